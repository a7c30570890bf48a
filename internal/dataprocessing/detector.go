package dataprocessing

import (
	"strings"

	"probecli/pkg/contracts/domain"
)

// DetectDialect returns the extended dialect when any line carries the
// extended start marker, and the legacy dialect otherwise.
func DetectDialect(lines []string) domain.Dialect {
	for _, line := range lines {
		if strings.Contains(line, MarkerExtendedStart) {
			return domain.DialectExtended
		}
	}
	return domain.DialectLegacy
}

// SplitLines splits decoded text on \n, \r\n and lone \r
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
