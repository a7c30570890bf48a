// Package services implements the business logic layer between HTTP handlers
// and the analysis core.
//
// AnalysisService validates upload batches, runs them through the
// dataprocessing aggregator and keeps the latest AggregateStore behind a
// read/write lock. Queries (sections, series, summaries, headers, filters)
// and exports all read from that store; a new batch replaces it in one swap.
//
// HealthService reports liveness, readiness (analysis service, data and
// export directories) and runtime statistics.
//
// Services return sentinel errors (ErrNoAnalysis, ErrSectionNotFound,
// ErrEmptySeries, ErrNoFiles, ErrTooManyFiles, ErrDuplicateFile) that the
// transport layer maps to HTTP problems with errors.Is.
package services
