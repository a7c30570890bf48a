// Package dataprocessing turns acoustic-probe result files (.raw / .imp) into a
// normalized aggregate and computes summary statistics over it.
//
// # Architecture
//
// The package is organized as a pipeline of small components:
//
// 1. Decoder: tries UTF-8, Latin-1 and GB18030 in order and returns text
// 2. Detector: picks the legacy or extended dialect from the text
// 3. Tokenizer: classifies each trimmed line (marker, header, record)
// 4. Parser: a SectionParser per dialect builds a domain.Record
// 5. Header normalizer: canonical header fields and result status
// 6. Filter: drops sections flagged with bad-element markers
// 7. Aggregator: parses a batch concurrently and merges in upload order
// 8. Statistics: count, average, spread and spec-limit percentages
//
// # Usage
//
// Parsing a single file:
//
//	record, err := dataprocessing.ParseFile(file, dataprocessing.DefaultDecoder())
//	if err != nil {
//	    return err
//	}
//
// Aggregating a batch:
//
//	agg := dataprocessing.NewAggregator(logger)
//	store, err := agg.Aggregate(ctx, files)
//
// Statistics for one section:
//
//	series, ok := dataprocessing.SeriesFor(store, "Impedance", domain.SourceIndexValue)
//	stats, ok := dataprocessing.Summarize(series.Pooled(), domain.NewSpecLimits(45, 55))
//
// # Data Flow
//
//	bytes → Decoder → lines → Detector → SectionParser → Record → Filter → AggregateStore → Statistics
//
// # Error Handling
//
// Only decoding can fail a file; that file is reported in AggregateStore.Errors
// and the rest of the batch continues. Malformed numeric values are dropped and
// counted in the record diagnostics. An empty series yields no statistics.
//
// # Testing
//
// Fixtures for both dialects live in internal/shared/testutil.
// Use table-driven tests when adding new functionality.
package dataprocessing
