package dataprocessing

import (
	"regexp"
	"strings"

	"probecli/pkg/contracts/domain"
)

// Raw section names with header meaning
const (
	legacyHeaderSection   = "Header"
	extendedHeaderSection = "Header_FULL"
	extendedStatusSection = "Probe_Status_FULL"
	fallbackStatusSection = "Probe_Status"
)

// extendedFieldNames maps extended header keys to canonical names.
// Keys not listed pass through unchanged.
var extendedFieldNames = map[string]string{
	"SerialNumber": domain.FieldSN,
	"TestStation":  domain.FieldTestStation,
	"Operator":     domain.FieldOperator,
	"Date":         domain.FieldDate,
	"Time":         domain.FieldTime,
}

var (
	extendedSectionPattern = regexp.MustCompile(`^(.+?)(?:\s*\([^()]*\))?_FULL(?:\s*\([^()]*\))?$`)
	overallStatusPattern   = regexp.MustCompile(`(?i)^(pass|fail)\b`)
	fallbackStatusPattern  = regexp.MustCompile(`(?i)^(?:Overall_Status|PassOrFail)\s*=\s*(pass|fail)\b`)
)

// CanonicalSectionName returns the storage key for a raw extended section
// name: the `_FULL` suffix and its parenthesized qualifier are removed.
func CanonicalSectionName(raw string) string {
	m := extendedSectionPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return raw
	}
	return name
}

// CanonicalFieldName maps a header key to its canonical name for a dialect
func CanonicalFieldName(dialect domain.Dialect, key string) string {
	if dialect != domain.DialectExtended {
		return key
	}
	if canonical, ok := extendedFieldNames[key]; ok {
		return canonical
	}
	return key
}

// parseOverallStatus returns PASS or FAIL for an Overall_Status value
func parseOverallStatus(value string) (string, bool) {
	m := overallStatusPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// scanFallbackStatus looks for a pass/fail verdict inside a `[Probe_Status]` section
func scanFallbackStatus(lines []string) (string, bool) {
	inStatus := false
	for _, raw := range lines {
		text := strings.TrimSpace(raw)
		if m := sectionHeaderPattern.FindStringSubmatch(text); m != nil {
			inStatus = strings.TrimSpace(m[1]) == fallbackStatusSection
			continue
		}
		if !inStatus {
			continue
		}
		if m := fallbackStatusPattern.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1]), true
		}
	}
	return "", false
}

// finalizeHeader completes the header mapping after the scan. It returns nil
// when nothing header-like was found so the record reports no header.
func finalizeHeader(fileName string, dialect domain.Dialect, fields map[string]string, lines []string) map[string]string {
	if _, ok := fields[domain.FieldResultStatus]; !ok {
		if status, found := scanFallbackStatus(lines); found {
			fields[domain.FieldResultStatus] = status
		}
	}
	if len(fields) == 0 {
		return nil
	}
	fields[domain.FieldFileName] = fileName
	fields[domain.FieldFileFormat] = string(dialect)
	return fields
}

// BuildHeaderInfo derives the canonical header of a parsed record. Records
// without header fields get a placeholder with Unknown status.
func BuildHeaderInfo(record *domain.Record) domain.HeaderInfo {
	info := domain.HeaderInfo{
		FileName:     record.FileName,
		FileFormat:   record.Format,
		ResultStatus: domain.StatusUnknown,
		Fields:       make(map[string]string, len(record.Header)),
	}
	for k, v := range record.Header {
		info.Fields[k] = v
	}

	info.SN = record.Header[domain.FieldSN]
	info.TestStation = record.Header[domain.FieldTestStation]
	info.Operator = record.Header[domain.FieldOperator]
	info.Date = record.Header[domain.FieldDate]
	info.Time = record.Header[domain.FieldTime]
	info.ResultStatus = NormalizeStatus(record.Header[domain.FieldResultStatus])
	return info
}

// NormalizeStatus upper-cases a verdict; anything but PASS or FAIL is Unknown
func NormalizeStatus(value string) string {
	switch upper := strings.ToUpper(strings.TrimSpace(value)); upper {
	case domain.StatusPass, domain.StatusFail:
		return upper
	default:
		return domain.StatusUnknown
	}
}

// CanonicalStatus maps a filter value onto PASS, FAIL or Unknown ignoring
// case. Anything else is returned unchanged with ok false.
func CanonicalStatus(value string) (status string, ok bool) {
	switch upper := strings.ToUpper(strings.TrimSpace(value)); upper {
	case domain.StatusPass, domain.StatusFail:
		return upper, true
	case strings.ToUpper(domain.StatusUnknown):
		return domain.StatusUnknown, true
	}
	return value, false
}
