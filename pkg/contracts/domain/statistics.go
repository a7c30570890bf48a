package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SpecLimits holds the optional upper and lower spec limits for a series
type SpecLimits struct {
	Upper *float64 `json:"upper,omitempty"`
	Lower *float64 `json:"lower,omitempty"`
}

// HasBoth reports whether both limits are set
func (l SpecLimits) HasBoth() bool {
	return l.Upper != nil && l.Lower != nil
}

// NewSpecLimits builds limits from plain values
func NewSpecLimits(lower, upper float64) SpecLimits {
	return SpecLimits{Lower: &lower, Upper: &upper}
}

// ParseSectionLimit parses "section:lower:upper". The section itself may
// contain colons; the bounds are the last two fields.
func ParseSectionLimit(entry string) (string, SpecLimits, error) {
	upperAt := strings.LastIndex(entry, ":")
	if upperAt <= 0 {
		return "", SpecLimits{}, fmt.Errorf("limit %q must be section:lower:upper", entry)
	}
	lowerAt := strings.LastIndex(entry[:upperAt], ":")
	if lowerAt <= 0 {
		return "", SpecLimits{}, fmt.Errorf("limit %q must be section:lower:upper", entry)
	}

	section := strings.TrimSpace(entry[:lowerAt])
	if section == "" {
		return "", SpecLimits{}, fmt.Errorf("limit %q has no section", entry)
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(entry[lowerAt+1:upperAt]), 64)
	if err != nil {
		return "", SpecLimits{}, fmt.Errorf("limit %q has a non-numeric lower bound", entry)
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(entry[upperAt+1:]), 64)
	if err != nil {
		return "", SpecLimits{}, fmt.Errorf("limit %q has a non-numeric upper bound", entry)
	}
	if upper < lower {
		return "", SpecLimits{}, fmt.Errorf("limit %q has upper below lower", entry)
	}
	return section, NewSpecLimits(lower, upper), nil
}

// SummaryStatistics describes one numeric series
type SummaryStatistics struct {
	Count             int      `json:"count"`
	Average           float64  `json:"average"`
	Min               float64  `json:"min"`
	Max               float64  `json:"max"`
	Range             float64  `json:"range"`
	StandardDeviation float64  `json:"standard_deviation"`
	UpperLimit        *float64 `json:"upper_limit,omitempty"`
	LowerLimit        *float64 `json:"lower_limit,omitempty"`

	// Set only when both limits are present
	WithinSpecPercent *float64 `json:"within_spec_percent,omitempty"`
	AboveUpperPercent *float64 `json:"above_upper_percent,omitempty"`
	BelowLowerPercent *float64 `json:"below_lower_percent,omitempty"`
}

// FileSeries is the numeric series one file contributes to a section
type FileSeries struct {
	FileName string       `json:"file_name"`
	Station  string       `json:"station"`
	Indexes  []int        `json:"indexes,omitempty"`
	Values   []float64    `json:"values"`
	Source   SeriesSource `json:"source"`
}

// SectionSeries groups the per-file series for one section
type SectionSeries struct {
	Section string       `json:"section"`
	Kind    SectionKind  `json:"kind"`
	Source  SeriesSource `json:"source"`
	Files   []FileSeries `json:"files"`
}

// Pooled concatenates all file values in file order
func (s SectionSeries) Pooled() []float64 {
	var pooled []float64
	for _, f := range s.Files {
		pooled = append(pooled, f.Values...)
	}
	return pooled
}
