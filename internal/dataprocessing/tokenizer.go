package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"

	"probecli/pkg/contracts/domain"
)

// Block markers used by the extended dialect
const (
	MarkerExtendedStart   = "{Start _FULL data}"
	MarkerBeginStatistics = "{***Begin_Statistics***}"
	MarkerEndStatistics   = "{***End_Statistics***}"
	MarkerBeginElements   = "{***Begin_Individual_Element_Data***}"
)

// Bad-element markers per dialect
const (
	legacyBadMarker   = "BadEL"
	extendedBadMarker = "Bad_Elements"
)

var (
	sectionHeaderPattern = regexp.MustCompile(`^\[\s*(.+?)\s*\]$`)
	numericRecordPattern = regexp.MustCompile(`^(\d+)\s*=\s*(.*)$`)
	waveformPattern      = regexp.MustCompile(`^Waveform\.Array\s*=\s*(.*)$`)
	headerFieldPattern   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.\-]*)\s*=\s*(.*)$`)

	// leading number, optional fraction and exponent; trailing units are ignored
	numberPattern        = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
	leadingNumberPattern = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// BlockMarker identifies an extended-dialect block marker line
type BlockMarker int

const (
	BlockNone BlockMarker = iota
	BlockExtendedStart
	BlockBeginStatistics
	BlockEndStatistics
	BlockBeginElements
)

var blockMarkers = map[string]BlockMarker{
	MarkerExtendedStart:   BlockExtendedStart,
	MarkerBeginStatistics: BlockBeginStatistics,
	MarkerEndStatistics:   BlockEndStatistics,
	MarkerBeginElements:   BlockBeginElements,
}

// LineKind is the primary category of a line
type LineKind int

const (
	LineBlank LineKind = iota
	LineBlockMarker
	LineSectionHeader
	LineContent
)

// NumericRecord is an `<index> = <value>` line. Valid is false when the value
// carries no parseable number.
type NumericRecord struct {
	Index int
	Value float64
	Valid bool
}

// HeaderField is an `<identifier> = <rest>` line
type HeaderField struct {
	Key   string
	Value string
}

// Line is the classification of one trimmed line. Content lines may carry
// several facets at once; the parser applies every one that is set.
type Line struct {
	Kind    LineKind
	Text    string
	Marker  BlockMarker
	Section string

	BadElement bool
	Numeric    *NumericRecord
	Waveform   []float64
	IsWaveform bool
	Field      *HeaderField
	Assignment bool
}

// ClassifyLine classifies a raw line for the given dialect. The line is trimmed first.
func ClassifyLine(raw string, dialect domain.Dialect) Line {
	text := strings.TrimSpace(raw)
	line := Line{Text: text}
	if text == "" {
		line.Kind = LineBlank
		return line
	}

	if dialect == domain.DialectExtended {
		if marker, ok := blockMarkers[text]; ok {
			line.Kind = LineBlockMarker
			line.Marker = marker
			return line
		}
	}

	if m := sectionHeaderPattern.FindStringSubmatch(text); m != nil {
		line.Kind = LineSectionHeader
		line.Section = strings.TrimSpace(m[1])
		return line
	}

	line.Kind = LineContent
	line.BadElement = strings.Contains(text, badMarkerFor(dialect))
	line.Assignment = strings.Contains(text, "=")

	if m := numericRecordPattern.FindStringSubmatch(text); m != nil {
		line.Numeric = parseNumericRecord(m[1], m[2])
	}
	if m := waveformPattern.FindStringSubmatch(text); m != nil {
		line.IsWaveform = true
		line.Waveform = ParseWaveform(m[1])
	}
	if m := headerFieldPattern.FindStringSubmatch(text); m != nil {
		line.Field = &HeaderField{Key: m[1], Value: strings.TrimSpace(m[2])}
	}

	return line
}

func badMarkerFor(dialect domain.Dialect) string {
	if dialect == domain.DialectExtended {
		return extendedBadMarker
	}
	return legacyBadMarker
}

func parseNumericRecord(indexText, valueText string) *NumericRecord {
	index, err := strconv.Atoi(indexText)
	if err != nil {
		// index overflows int
		return &NumericRecord{}
	}
	value, ok := LeadingNumber(valueText)
	return &NumericRecord{Index: index, Value: value, Valid: ok}
}

// LeadingNumber parses the number at the start of s, ignoring any unit suffix
// ("50.5ohm" → 50.5). It reports false when s does not start with a number.
func LeadingNumber(s string) (float64, bool) {
	token := leadingNumberPattern.FindString(strings.TrimSpace(s))
	if token == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseWaveform extracts one number per comma-separated token. Tokens without
// a numeric substring are dropped, not zero-filled.
func ParseWaveform(s string) []float64 {
	tokens := strings.Split(s, ",")
	values := make([]float64, 0, len(tokens))
	for _, token := range tokens {
		match := numberPattern.FindString(strings.TrimSpace(token))
		if match == "" {
			continue
		}
		value, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		values = append(values, value)
	}
	return values
}
