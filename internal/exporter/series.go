package exporter

import (
	"io"

	"probecli/internal/dataprocessing"
	"probecli/pkg/contracts/domain"
)

// SeriesHeaders are the columns of a long-format series export
var SeriesHeaders = []string{"file_name", "station", "position", "value"}

// SummaryHeaders are the columns of a statistics export
var SummaryHeaders = []string{
	"section", "kind", "source", "files",
	"count", "average", "min", "max", "range", "standard_deviation",
	"lower_limit", "upper_limit",
	"within_spec_percent", "above_upper_percent", "below_lower_percent",
}

// SeriesRows flattens a section series into one row per value. Index/value
// series use the record index as position; waveforms use the 1-based sample number.
func SeriesRows(series domain.SectionSeries) [][]string {
	var rows [][]string
	for _, file := range series.Files {
		for i, v := range file.Values {
			position := i + 1
			if i < len(file.Indexes) {
				position = file.Indexes[i]
			}
			rows = append(rows, []string{file.FileName, file.Station, formatInt(position), formatFloat(v)})
		}
	}
	return rows
}

// SummaryRow renders one section summary. Statistic cells are empty when the
// series had nothing to summarize.
func SummaryRow(summary dataprocessing.SectionSummary) []string {
	row := []string{
		summary.Series.Section,
		string(summary.Series.Kind),
		string(summary.Series.Source),
		formatInt(len(summary.Series.Files)),
	}

	stats := summary.Statistics
	if stats == nil {
		return append(row, make([]string, len(SummaryHeaders)-len(row))...)
	}

	return append(row,
		formatInt(stats.Count),
		formatFloat(stats.Average),
		formatFloat(stats.Min),
		formatFloat(stats.Max),
		formatFloat(stats.Range),
		formatFloat(stats.StandardDeviation),
		formatOptional(stats.LowerLimit, formatFloat),
		formatOptional(stats.UpperLimit, formatFloat),
		formatOptional(stats.WithinSpecPercent, formatPercent),
		formatOptional(stats.AboveUpperPercent, formatPercent),
		formatOptional(stats.BelowLowerPercent, formatPercent),
	)
}

// WriteSeriesCSV writes one section series as CSV
func WriteSeriesCSV(out io.Writer, series domain.SectionSeries) error {
	return WriteTo(out, WriteOptions{
		Headers:   SeriesHeaders,
		Records:   SeriesRows(series),
		BOMPrefix: true,
	})
}

// WriteSummaryCSV writes section statistics as CSV, one row per section
func WriteSummaryCSV(out io.Writer, summaries []dataprocessing.SectionSummary) error {
	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, SummaryRow(s))
	}
	return WriteTo(out, WriteOptions{
		Headers:   SummaryHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}

// SummarizeAll summarizes every non-empty section of a store with its default
// source. limits supplies optional spec limits per section name.
func SummarizeAll(store *domain.AggregateStore, limits map[string]domain.SpecLimits) []dataprocessing.SectionSummary {
	if store == nil {
		return nil
	}
	summaries := make([]dataprocessing.SectionSummary, 0, len(store.SectionOrder))
	for _, name := range store.SectionNames() {
		if summary, ok := dataprocessing.SummarizeSection(store, name, "", limits[name]); ok {
			summaries = append(summaries, summary)
		}
	}
	return summaries
}
