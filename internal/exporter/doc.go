// Package exporter renders analysis batches for download.
//
// WriteTo produces UTF-8 CSV with an optional BOM so Excel picks
// up the encoding. SeriesRows and SummaryRow flatten section series and
// statistics into long-format rows. WorkbookExporter builds a single .xlsx
// with Summary, Headers and Errors sheets plus one sheet per section.
//
// Example usage:
//
//	exp := exporter.NewWorkbookExporter(logger)
//	err := exp.Write(w, store, map[string]domain.SpecLimits{
//		"Impedance": domain.NewSpecLimits(45, 55),
//	})
package exporter
