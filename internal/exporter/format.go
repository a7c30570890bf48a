package exporter

import (
	"strconv"
)

// formatFloat formats a float64 with the shortest exact representation
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatPercent rounds a percentage to two decimals
func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatOptional formats an optional value; nil becomes an empty cell
func formatOptional(f *float64, format func(float64) string) string {
	if f == nil {
		return ""
	}
	return format(*f)
}

// formatInt formats an int for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
