package dataprocessing

import (
	"sort"
	"strings"

	"probecli/pkg/contracts/domain"
)

// DefaultSource picks the series source a section is normally plotted from
func DefaultSource(section string) domain.SeriesSource {
	if domain.SectionKindOf(section) == domain.SectionKindWaveform {
		return domain.SourceWaveform
	}
	return domain.SourceIndexValue
}

// SeriesFor extracts the per-file numeric series of one section. An empty
// source falls back to DefaultSource. Index/value series are ordered by
// index. The second result is false when the section has no contributions.
func SeriesFor(store *domain.AggregateStore, section string, source domain.SeriesSource) (domain.SectionSeries, bool) {
	if source == "" {
		source = DefaultSource(section)
	}

	series := domain.SectionSeries{
		Section: section,
		Kind:    domain.SectionKindOf(section),
		Source:  source,
		Files:   []domain.FileSeries{},
	}
	if store == nil {
		return series, false
	}

	entries, ok := store.Section(section)
	if !ok {
		return series, false
	}

	for _, entry := range entries {
		fs := domain.FileSeries{
			FileName: entry.FileName,
			Station:  domain.StatusUnknown,
			Source:   source,
		}
		if header, ok := store.HeaderFor(entry.FileName); ok {
			fs.Station = header.Station()
		}

		switch source {
		case domain.SourceWaveform:
			fs.Values = append([]float64{}, entry.Data.Waveform...)
		default:
			sorted := entry.Data.SortedIndexValues()
			fs.Indexes = make([]int, len(sorted))
			fs.Values = make([]float64, len(sorted))
			for i, iv := range sorted {
				fs.Indexes[i] = iv.Index
				fs.Values[i] = iv.Value
			}
		}
		series.Files = append(series.Files, fs)
	}
	return series, true
}

// SectionSummary pairs a section series with the statistics of its pooled values
type SectionSummary struct {
	Series     domain.SectionSeries      `json:"series"`
	Statistics *domain.SummaryStatistics `json:"statistics,omitempty"`
}

// SummarizeSection extracts a section series and summarizes the pooled values.
// found is false when the section does not exist; Statistics is nil when the
// series is empty.
func SummarizeSection(store *domain.AggregateStore, section string, source domain.SeriesSource, limits domain.SpecLimits) (summary SectionSummary, found bool) {
	series, found := SeriesFor(store, section, source)
	summary.Series = series
	if !found {
		return summary, false
	}
	summary.Statistics, _ = Summarize(series.Pooled(), limits)
	return summary, true
}

// headerOrPlaceholder returns the file's header, or an Unknown header for
// files that carried none so they still match Unknown filters
func headerOrPlaceholder(store *domain.AggregateStore, fileName string) domain.HeaderInfo {
	if header, ok := store.HeaderFor(fileName); ok {
		return header
	}
	format := domain.Dialect("")
	if record, ok := store.Records[fileName]; ok {
		format = record.Format
	}
	return domain.HeaderInfo{
		FileName:     fileName,
		FileFormat:   format,
		ResultStatus: domain.StatusUnknown,
		Fields:       map[string]string{},
	}
}

// MatchesFilter reports whether a header passes every non-empty filter list
func MatchesFilter(header domain.HeaderInfo, filter domain.HeaderFilter) bool {
	if len(filter.Stations) > 0 && !containsExact(filter.Stations, header.Station()) {
		return false
	}
	if len(filter.Operators) > 0 && !containsExact(filter.Operators, header.Operator) {
		return false
	}
	if len(filter.SerialNumbers) > 0 && !containsExact(filter.SerialNumbers, header.SN) {
		return false
	}
	if len(filter.ResultStatuses) > 0 {
		status := strings.ToUpper(header.ResultStatus)
		matched := false
		for _, s := range filter.ResultStatuses {
			if strings.ToUpper(strings.TrimSpace(s)) == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func containsExact(list []string, value string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == value {
			return true
		}
	}
	return false
}

// FilterStore returns a new store holding only the files whose header matches
// filter. The input store is never modified. An empty filter returns the
// input store itself.
func FilterStore(store *domain.AggregateStore, filter domain.HeaderFilter) *domain.AggregateStore {
	if store == nil || filter.IsEmpty() {
		return store
	}

	keep := make(map[string]bool, len(store.Files))
	out := domain.NewAggregateStore(store.BatchID)
	for _, name := range store.Files {
		if MatchesFilter(headerOrPlaceholder(store, name), filter) {
			keep[name] = true
			out.Files = append(out.Files, name)
			if record, ok := store.Records[name]; ok {
				out.Records[name] = record
			}
		}
	}

	for _, section := range store.SectionOrder {
		for _, entry := range store.Sections[section] {
			if keep[entry.FileName] {
				out.Append(section, entry.FileName, entry.Data)
			}
		}
	}
	for _, header := range store.Headers {
		if keep[header.FileName] {
			out.Headers = append(out.Headers, header)
		}
	}
	out.Errors = append(out.Errors, store.Errors...)
	return out
}

// FilterHeaders returns the headers of a store that match filter
func FilterHeaders(store *domain.AggregateStore, filter domain.HeaderFilter) []domain.HeaderInfo {
	headers := []domain.HeaderInfo{}
	if store == nil {
		return headers
	}
	for _, header := range store.Headers {
		if MatchesFilter(header, filter) {
			headers = append(headers, header)
		}
	}
	return headers
}

// FilterOptions lists the distinct values available for each header filter
type FilterOptions struct {
	Stations       []string `json:"stations"`
	Operators      []string `json:"operators"`
	ResultStatuses []string `json:"result_statuses"`
	SerialNumbers  []string `json:"serial_numbers"`
}

// AvailableFilters collects the sorted distinct filter values of a store.
// Files without a header contribute Unknown station and status.
func AvailableFilters(store *domain.AggregateStore) FilterOptions {
	stations, operators := map[string]bool{}, map[string]bool{}
	statuses, serials := map[string]bool{}, map[string]bool{}

	if store != nil {
		for _, name := range store.Files {
			header := headerOrPlaceholder(store, name)
			stations[header.Station()] = true
			statuses[header.ResultStatus] = true
			if header.Operator != "" {
				operators[header.Operator] = true
			}
			if header.SN != "" {
				serials[header.SN] = true
			}
		}
	}

	return FilterOptions{
		Stations:       sortedKeys(stations),
		Operators:      sortedKeys(operators),
		ResultStatuses: sortedKeys(statuses),
		SerialNumbers:  sortedKeys(serials),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
