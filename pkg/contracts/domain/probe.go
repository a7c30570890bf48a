package domain

import (
	"sort"
	"strings"
)

// Dialect identifies which of the two probe result layouts a file uses
type Dialect string

const (
	DialectLegacy   Dialect = "legacy"
	DialectExtended Dialect = "extended"
)

// Canonical header field names shared by both dialects
const (
	FieldFileName     = "fileName"
	FieldFileFormat   = "fileFormat"
	FieldSN           = "SN"
	FieldTestStation  = "TestStation"
	FieldStation      = "Station"
	FieldOperator     = "Operator"
	FieldDate         = "Date"
	FieldTime         = "Time"
	FieldResultStatus = "ResultStatus"
)

// Result status values
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusUnknown = "Unknown"
)

// HeaderSectionName is the canonical name under which header sections are stored
const HeaderSectionName = "Header"

// SourceFile is one uploaded file: its name and undecoded content
type SourceFile struct {
	Name    string `json:"name" validate:"required"`
	Content []byte `json:"-"`
}

// IndexValue is one numeric `index = value` record
type IndexValue struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// SectionData holds everything accumulated for one section of one file
type SectionData struct {
	IndexValues []IndexValue `json:"index_value"`
	Waveform    []float64    `json:"waveform"`
	RawText     []string     `json:"raw_text"`
}

// NewSectionData returns an empty accumulator
func NewSectionData() *SectionData {
	return &SectionData{
		IndexValues: []IndexValue{},
		Waveform:    []float64{},
		RawText:     []string{},
	}
}

// SortedIndexValues returns a copy of the index/value records ordered by index.
// Records sharing an index keep their file order.
func (s *SectionData) SortedIndexValues() []IndexValue {
	sorted := make([]IndexValue, len(s.IndexValues))
	copy(sorted, s.IndexValues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})
	return sorted
}

// Values returns the value column of the index/value records in file order
func (s *SectionData) Values() []float64 {
	values := make([]float64, 0, len(s.IndexValues))
	for _, iv := range s.IndexValues {
		values = append(values, iv.Value)
	}
	return values
}

// IsEmpty reports whether the section carries no data at all
func (s *SectionData) IsEmpty() bool {
	return len(s.IndexValues) == 0 && len(s.Waveform) == 0 && len(s.RawText) == 0
}

// SectionKind tells how a section's data is meant to be read
type SectionKind string

const (
	SectionKindWaveform   SectionKind = "waveform"
	SectionKindIndexValue SectionKind = "index_value"
)

// SectionKindOf classifies a section by name. Element sections are numbered
// and carry a waveform; every other section is an index/value table.
func SectionKindOf(name string) SectionKind {
	if name == "" {
		return SectionKindIndexValue
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return SectionKindIndexValue
		}
	}
	return SectionKindWaveform
}

// SeriesSource selects which part of a section feeds a numeric series
type SeriesSource string

const (
	SourceIndexValue SeriesSource = "index_value"
	SourceWaveform   SeriesSource = "waveform"
)

// ParseDiagnostics counts what happened while parsing one file
type ParseDiagnostics struct {
	Encoding         string `json:"encoding"`
	Lines            int    `json:"lines"`
	Sections         int    `json:"sections"`
	BadSections      int    `json:"bad_sections"`
	MalformedNumeric int    `json:"malformed_numeric"`
}

// Record is one parsed file
type Record struct {
	FileName     string                  `json:"file_name"`
	Format       Dialect                 `json:"file_format"`
	Sections     map[string]*SectionData `json:"sections"`
	SectionOrder []string                `json:"section_order"`
	Header       map[string]string       `json:"header,omitempty"`
	BadSections  map[string]bool         `json:"bad_sections,omitempty"`
	Diagnostics  ParseDiagnostics        `json:"diagnostics"`
}

// HasHeader reports whether any header field was extracted from the file
func (r *Record) HasHeader() bool {
	return len(r.Header) > 0
}

// HeaderInfo is the canonical per-file header used for filtering
type HeaderInfo struct {
	FileName     string            `json:"fileName"`
	FileFormat   Dialect           `json:"fileFormat"`
	SN           string            `json:"SN,omitempty"`
	TestStation  string            `json:"TestStation,omitempty"`
	Operator     string            `json:"Operator,omitempty"`
	Date         string            `json:"Date,omitempty"`
	Time         string            `json:"Time,omitempty"`
	ResultStatus string            `json:"ResultStatus"`
	Fields       map[string]string `json:"fields"`
}

// Station resolves the station used for grouping: TestStation, then Station, then Unknown
func (h HeaderInfo) Station() string {
	if h.TestStation != "" {
		return h.TestStation
	}
	if station := strings.TrimSpace(h.Fields[FieldStation]); station != "" {
		return station
	}
	return StatusUnknown
}

// ErrorKind classifies per-file failures reported to the caller
type ErrorKind string

const (
	ErrorKindDecodeFailure         ErrorKind = "DecodeFailure"
	ErrorKindMalformedNumericField ErrorKind = "MalformedNumericField"
	ErrorKindEmptySeries           ErrorKind = "EmptySeries"
)

// FileError reports a file that contributed nothing to the aggregate
type FileError struct {
	FileName string    `json:"fileName"`
	Kind     ErrorKind `json:"errorKind"`
	Message  string    `json:"message,omitempty"`
}

// FileSection is one file's contribution to a section
type FileSection struct {
	FileName string       `json:"file_name"`
	Data     *SectionData `json:"data"`
}

// AggregateStore is the merged result of one analysis batch
type AggregateStore struct {
	BatchID      string                   `json:"batch_id"`
	Files        []string                 `json:"files"`
	Sections     map[string][]FileSection `json:"sections"`
	SectionOrder []string                 `json:"section_order"`
	Headers      []HeaderInfo             `json:"headers"`
	Records      map[string]*Record       `json:"-"`
	Errors       []FileError              `json:"errors"`
}

// NewAggregateStore returns an empty store for a batch
func NewAggregateStore(batchID string) *AggregateStore {
	return &AggregateStore{
		BatchID:      batchID,
		Files:        []string{},
		Sections:     make(map[string][]FileSection),
		SectionOrder: []string{},
		Headers:      []HeaderInfo{},
		Records:      make(map[string]*Record),
		Errors:       []FileError{},
	}
}

// Append adds one file's section, registering the section name on first sight
func (s *AggregateStore) Append(section, fileName string, data *SectionData) {
	if _, seen := s.Sections[section]; !seen {
		s.SectionOrder = append(s.SectionOrder, section)
	}
	s.Sections[section] = append(s.Sections[section], FileSection{FileName: fileName, Data: data})
}

// SectionNames lists sections with at least one contribution in first-seen order
func (s *AggregateStore) SectionNames() []string {
	names := make([]string, 0, len(s.SectionOrder))
	for _, name := range s.SectionOrder {
		if len(s.Sections[name]) > 0 {
			names = append(names, name)
		}
	}
	return names
}

// Section returns the contributions for a section
func (s *AggregateStore) Section(name string) ([]FileSection, bool) {
	entries, ok := s.Sections[name]
	if !ok || len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// HeaderFor returns the header of a file, if the file produced one
func (s *AggregateStore) HeaderFor(fileName string) (HeaderInfo, bool) {
	for _, h := range s.Headers {
		if h.FileName == fileName {
			return h, true
		}
	}
	return HeaderInfo{}, false
}

// HeaderText returns the raw header lines a file contributed
func (s *AggregateStore) HeaderText(fileName string) []string {
	for _, entry := range s.Sections[HeaderSectionName] {
		if entry.FileName == fileName {
			return entry.Data.RawText
		}
	}
	return nil
}

// HeaderFilter narrows a store to files whose header matches every non-empty list
type HeaderFilter struct {
	Stations       []string `json:"stations,omitempty" validate:"omitempty,dive,required"`
	Operators      []string `json:"operators,omitempty" validate:"omitempty,dive,required"`
	ResultStatuses []string `json:"result_statuses,omitempty" validate:"omitempty,dive,oneof=PASS FAIL Unknown"`
	SerialNumbers  []string `json:"serial_numbers,omitempty" validate:"omitempty,dive,required"`
}

// IsEmpty reports whether the filter would keep every file
func (f HeaderFilter) IsEmpty() bool {
	return len(f.Stations) == 0 && len(f.Operators) == 0 &&
		len(f.ResultStatuses) == 0 && len(f.SerialNumbers) == 0
}
