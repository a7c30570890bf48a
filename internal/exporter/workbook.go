package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"probecli/internal/dataprocessing"
	"probecli/pkg/contracts/domain"
)

// Fixed sheet names
const (
	SheetSummary = "Summary"
	SheetHeaders = "Headers"
	SheetErrors  = "Errors"
)

const maxSheetNameLength = 31

// HeaderColumns are the columns of the Headers sheet
var HeaderColumns = []string{"fileName", "fileFormat", "SN", "Station", "Operator", "Date", "Time", "ResultStatus"}

// WorkbookExporter renders an analysis batch as an Excel workbook
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger.With(slog.String("component", "workbook_exporter"))}
}

// Write builds the workbook for store and writes it to out. The workbook has
// a Summary sheet, a Headers sheet, an Errors sheet when files failed, and
// one long-format sheet per section.
func (e *WorkbookExporter) Write(out io.Writer, store *domain.AggregateStore, limits map[string]domain.SpecLimits) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	summaries := SummarizeAll(store, limits)
	if err := writeRows(f, SheetSummary, bold, SummaryHeaders, summaryRows(summaries)); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetHeaders); err != nil {
		return fmt.Errorf("failed to create headers sheet: %w", err)
	}
	if err := writeRows(f, SheetHeaders, bold, HeaderColumns, headerRows(store.Headers)); err != nil {
		return err
	}

	if len(store.Errors) > 0 {
		if _, err := f.NewSheet(SheetErrors); err != nil {
			return fmt.Errorf("failed to create errors sheet: %w", err)
		}
		rows := make([][]interface{}, 0, len(store.Errors))
		for _, fe := range store.Errors {
			rows = append(rows, []interface{}{fe.FileName, string(fe.Kind), fe.Message})
		}
		if err := writeRows(f, SheetErrors, bold, []string{"fileName", "errorKind", "message"}, rows); err != nil {
			return err
		}
	}

	names := newSheetNamer(SheetSummary, SheetHeaders, SheetErrors)
	for _, summary := range summaries {
		sheet := names.next(summary.Series.Section)
		if err := e.writeSectionSheet(f, sheet, bold, summary.Series); err != nil {
			return err
		}
	}

	e.logger.Info("workbook exported",
		slog.String("batch_id", store.BatchID),
		slog.Int("sections", len(summaries)),
		slog.Int("files", len(store.Files)))

	return f.Write(out)
}

// writeSectionSheet streams one section's values; sections can be large
func (e *WorkbookExporter) writeSectionSheet(f *excelize.File, sheet string, style int, series domain.SectionSeries) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream for %q: %w", sheet, err)
	}

	header := make([]interface{}, len(SeriesHeaders))
	for i, h := range SeriesHeaders {
		header[i] = excelize.Cell{StyleID: style, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", sheet, err)
	}

	row := 2
	for _, file := range series.Files {
		for i, v := range file.Values {
			position := i + 1
			if i < len(file.Indexes) {
				position = file.Indexes[i]
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, []interface{}{file.FileName, file.Station, position, v}); err != nil {
				return fmt.Errorf("failed to write row %d of %q: %w", row, sheet, err)
			}
			row++
		}
	}

	return sw.Flush()
}

func writeRows(f *excelize.File, sheet string, style int, headers []string, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// summaryRows keeps statistics numeric so they stay usable in Excel formulas
func summaryRows(summaries []dataprocessing.SectionSummary) [][]interface{} {
	rows := make([][]interface{}, 0, len(summaries))
	for _, s := range summaries {
		row := []interface{}{s.Series.Section, string(s.Series.Kind), string(s.Series.Source), len(s.Series.Files)}
		if stats := s.Statistics; stats != nil {
			row = append(row,
				stats.Count, stats.Average, stats.Min, stats.Max, stats.Range, stats.StandardDeviation,
				optional(stats.LowerLimit), optional(stats.UpperLimit),
				optional(stats.WithinSpecPercent), optional(stats.AboveUpperPercent), optional(stats.BelowLowerPercent),
			)
		}
		rows = append(rows, row)
	}
	return rows
}

func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func headerRows(headers []domain.HeaderInfo) [][]interface{} {
	rows := make([][]interface{}, 0, len(headers))
	for _, h := range headers {
		rows = append(rows, []interface{}{
			h.FileName, string(h.FileFormat), h.SN, h.Station(), h.Operator, h.Date, h.Time, h.ResultStatus,
		})
	}
	return rows
}

// sheetNamer produces unique, Excel-legal sheet names
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer(reserved ...string) *sheetNamer {
	n := &sheetNamer{used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = true
	}
	return n
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

func (n *sheetNamer) next(section string) string {
	base := strings.Trim(sheetNameReplacer.Replace(section), "'")
	if base == "" {
		base = "Section"
	}
	base = truncateRunes(base, maxSheetNameLength)

	name := base
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		name = truncateRunes(base, maxSheetNameLength-len(suffix)) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
