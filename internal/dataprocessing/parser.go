package dataprocessing

import (
	"strings"

	"probecli/internal/errors"
	"probecli/pkg/contracts/domain"
)

// SectionParser turns the lines of one decoded file into a Record
type SectionParser interface {
	Dialect() domain.Dialect
	Parse(fileName string, lines []string) *domain.Record
}

// dialectRules holds the parts of the scan that differ between dialects
type dialectRules interface {
	Dialect() domain.Dialect
	storageName(raw string) string
	isHeaderSection(raw string) bool
	statusFrom(rawSection string, field HeaderField) (string, bool)
}

// NewSectionParser returns the parser for a dialect
func NewSectionParser(dialect domain.Dialect) SectionParser {
	if dialect == domain.DialectExtended {
		return extendedParser{}
	}
	return legacyParser{}
}

type legacyParser struct{}

func (legacyParser) Dialect() domain.Dialect { return domain.DialectLegacy }

func (p legacyParser) Parse(fileName string, lines []string) *domain.Record {
	return scanLines(p, fileName, lines)
}

func (legacyParser) storageName(raw string) string { return raw }

func (legacyParser) isHeaderSection(raw string) bool { return raw == legacyHeaderSection }

func (legacyParser) statusFrom(string, HeaderField) (string, bool) { return "", false }

type extendedParser struct{}

func (extendedParser) Dialect() domain.Dialect { return domain.DialectExtended }

func (p extendedParser) Parse(fileName string, lines []string) *domain.Record {
	return scanLines(p, fileName, lines)
}

func (extendedParser) storageName(raw string) string { return CanonicalSectionName(raw) }

func (extendedParser) isHeaderSection(raw string) bool {
	return isFullSection(raw, extendedHeaderSection)
}

func (extendedParser) statusFrom(rawSection string, field HeaderField) (string, bool) {
	if !isFullSection(rawSection, extendedStatusSection) || field.Key != "Overall_Status" {
		return "", false
	}
	return parseOverallStatus(field.Value)
}

// isFullSection reports whether raw is the _FULL form of name, with or
// without a parenthesized qualifier. name is given in its _FULL form.
func isFullSection(raw, name string) bool {
	if raw == name {
		return true
	}
	return strings.Contains(raw, "_FULL") &&
		CanonicalSectionName(raw) == strings.TrimSuffix(name, "_FULL")
}

// recordBuilder accumulates one file's record during a single scan
type recordBuilder struct {
	rules  dialectRules
	record *domain.Record
	fields map[string]string

	current    *domain.SectionData
	currentKey string
	currentRaw string

	inStatistics bool
	inElements   bool
}

func newRecordBuilder(rules dialectRules, fileName string) *recordBuilder {
	return &recordBuilder{
		rules: rules,
		record: &domain.Record{
			FileName:     fileName,
			Format:       rules.Dialect(),
			Sections:     make(map[string]*domain.SectionData),
			SectionOrder: []string{},
			BadSections:  make(map[string]bool),
		},
		fields: make(map[string]string),
	}
}

func scanLines(rules dialectRules, fileName string, lines []string) *domain.Record {
	b := newRecordBuilder(rules, fileName)
	for _, raw := range lines {
		b.apply(ClassifyLine(raw, rules.Dialect()))
	}
	return b.finish(lines)
}

func (b *recordBuilder) apply(line Line) {
	switch line.Kind {
	case LineBlank:
		return
	case LineBlockMarker:
		b.record.Diagnostics.Lines++
		b.toggleBlock(line.Marker)
		return
	case LineSectionHeader:
		b.record.Diagnostics.Lines++
		b.openSection(line.Section)
		return
	}

	b.record.Diagnostics.Lines++
	open := b.current != nil

	if line.BadElement && open {
		b.record.BadSections[b.currentKey] = true
	}

	if line.Numeric != nil && open {
		if line.Numeric.Valid {
			b.current.IndexValues = append(b.current.IndexValues, domain.IndexValue{
				Index: line.Numeric.Index,
				Value: line.Numeric.Value,
			})
		} else {
			b.record.Diagnostics.MalformedNumeric++
		}
	}

	if line.IsWaveform && open {
		b.current.Waveform = append(b.current.Waveform, line.Waveform...)
	}

	if line.Field != nil && open {
		b.captureField(*line.Field)
	}

	if line.Assignment && open {
		b.current.RawText = append(b.current.RawText, line.Text)
	}
}

func (b *recordBuilder) toggleBlock(marker BlockMarker) {
	switch marker {
	case BlockBeginStatistics:
		b.inStatistics = true
	case BlockEndStatistics:
		b.inStatistics = false
	case BlockBeginElements:
		b.inStatistics = false
		b.inElements = true
	}
}

// openSection switches the current section. A header naming an existing
// section reopens its accumulator instead of replacing it.
func (b *recordBuilder) openSection(raw string) {
	if raw == "" {
		b.current, b.currentKey, b.currentRaw = nil, "", ""
		return
	}

	key := b.rules.storageName(raw)
	data, ok := b.record.Sections[key]
	if !ok {
		data = domain.NewSectionData()
		b.record.Sections[key] = data
		b.record.SectionOrder = append(b.record.SectionOrder, key)
	}
	b.current, b.currentKey, b.currentRaw = data, key, raw
}

func (b *recordBuilder) captureField(field HeaderField) {
	if b.rules.isHeaderSection(b.currentRaw) {
		b.fields[CanonicalFieldName(b.rules.Dialect(), field.Key)] = field.Value
		return
	}
	if status, ok := b.rules.statusFrom(b.currentRaw, field); ok {
		b.fields[domain.FieldResultStatus] = status
	}
}

func (b *recordBuilder) finish(lines []string) *domain.Record {
	b.record.Header = finalizeHeader(b.record.FileName, b.rules.Dialect(), b.fields, lines)
	b.record.Diagnostics.Sections = len(b.record.SectionOrder)
	b.record.Diagnostics.BadSections = len(b.record.BadSections)
	return b.record
}

// ParseFile decodes and parses one uploaded file. Empty content yields an
// empty legacy record. The only error is a decode failure.
func ParseFile(file domain.SourceFile, decoder *Decoder) (*domain.Record, error) {
	if len(file.Content) == 0 {
		return NewSectionParser(domain.DialectLegacy).Parse(file.Name, nil), nil
	}

	text, encoding, err := decoder.Decode(file.Content)
	if err != nil {
		return nil, errors.NewDecodeError(file.Name, err)
	}

	lines := SplitLines(text)
	parser := NewSectionParser(DetectDialect(lines))
	record := parser.Parse(file.Name, lines)
	record.Diagnostics.Encoding = encoding
	return record, nil
}
