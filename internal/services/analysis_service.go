package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"probecli/internal/config"
	"probecli/internal/dataprocessing"
	apierrors "probecli/internal/errors"
	"probecli/internal/exporter"
	"probecli/internal/infrastructure"
	"probecli/internal/validation"
	"probecli/pkg/contracts/domain"
)

// AnalysisService runs analysis batches and answers queries against the
// most recent one. A new batch replaces the previous store in one step.
type AnalysisService struct {
	aggregator *dataprocessing.Aggregator
	validator  *validation.FileValidator
	workbook   *exporter.WorkbookExporter
	logger     *slog.Logger

	mu         sync.RWMutex
	store      *domain.AggregateStore
	analyzedAt time.Time
}

// AnalysisResult is returned by a completed batch
type AnalysisResult struct {
	BatchID     string                             `json:"batch_id"`
	AnalyzedAt  time.Time                          `json:"analyzed_at"`
	Files       []string                           `json:"files"`
	Sections    []SectionInfo                      `json:"sections"`
	Errors      []domain.FileError                 `json:"errors"`
	Diagnostics map[string]domain.ParseDiagnostics `json:"diagnostics"`
}

// SectionInfo describes one non-empty section of the current batch
type SectionInfo struct {
	Name          string              `json:"name"`
	Kind          domain.SectionKind  `json:"kind"`
	DefaultSource domain.SeriesSource `json:"default_source"`
	Files         int                 `json:"files"`
}

// SectionQuery selects a section series. Filter narrows the files first;
// Limits only affect summaries.
type SectionQuery struct {
	Section string
	Source  domain.SeriesSource
	Filter  domain.HeaderFilter
	Limits  domain.SpecLimits
}

// AnalysisStatus is a snapshot of what the service currently holds
type AnalysisStatus struct {
	Loaded     bool       `json:"loaded"`
	BatchID    string     `json:"batch_id,omitempty"`
	Files      int        `json:"files"`
	Sections   int        `json:"sections"`
	Errors     int        `json:"errors"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`
	Workers    int        `json:"workers"`
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(aggregator *dataprocessing.Aggregator, validator *validation.FileValidator, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if aggregator == nil {
		aggregator = dataprocessing.NewAggregator(logger)
	}
	if validator == nil {
		validator = validation.NewFileValidator(logger, config.Default().Processing)
	}

	logger = logger.With(slog.String("service", "analysis"))
	logger.Info("AnalysisService initialized", slog.Int("workers", aggregator.Workers()))

	return &AnalysisService{
		aggregator: aggregator,
		validator:  validator,
		workbook:   exporter.NewWorkbookExporter(logger),
		logger:     logger,
	}
}

// Analyze validates and parses a batch and makes it the current analysis.
// On any error the previous analysis stays in place.
func (s *AnalysisService) Analyze(ctx context.Context, files []domain.SourceFile) (*AnalysisResult, error) {
	if err := s.validator.ValidateBatch(len(files)); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if err := s.validator.ValidateUpload(f.Name, int64(len(f.Content))); err != nil {
			return nil, err
		}
		names = append(names, f.Name)
	}
	if err := s.validator.ValidateNames(names); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Analyze: starting batch", slog.Int("files", len(files)))

	store, err := s.aggregator.Aggregate(ctx, files)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("analysis aborted: %w", err)
	}
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"probe.batch_id":      store.BatchID,
		"probe.files":         len(store.Files),
		"probe.decode_errors": len(store.Errors),
	})

	analyzedAt := time.Now()
	s.mu.Lock()
	s.store = store
	s.analyzedAt = analyzedAt
	s.mu.Unlock()

	return buildResult(store, analyzedAt), nil
}

func buildResult(store *domain.AggregateStore, analyzedAt time.Time) *AnalysisResult {
	diagnostics := make(map[string]domain.ParseDiagnostics, len(store.Records))
	for name, record := range store.Records {
		diagnostics[name] = record.Diagnostics
	}
	return &AnalysisResult{
		BatchID:     store.BatchID,
		AnalyzedAt:  analyzedAt,
		Files:       store.Files,
		Sections:    sectionInfos(store),
		Errors:      store.Errors,
		Diagnostics: diagnostics,
	}
}

// Current returns the current store and when it was built
func (s *AnalysisService) Current() (*domain.AggregateStore, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, time.Time{}, ErrNoAnalysis
	}
	return s.store, s.analyzedAt, nil
}

// Result rebuilds the summary of the current batch
func (s *AnalysisService) Result(ctx context.Context) (*AnalysisResult, error) {
	store, analyzedAt, err := s.Current()
	if err != nil {
		return nil, err
	}
	return buildResult(store, analyzedAt), nil
}

// Reset drops the current analysis
func (s *AnalysisService) Reset(ctx context.Context) {
	s.mu.Lock()
	s.store = nil
	s.analyzedAt = time.Time{}
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Reset: analysis cleared")
}

// Status reports what the service holds, for health checks
func (s *AnalysisService) Status() AnalysisStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := AnalysisStatus{Workers: s.aggregator.Workers()}
	if s.store == nil {
		return status
	}
	analyzedAt := s.analyzedAt
	status.Loaded = true
	status.BatchID = s.store.BatchID
	status.Files = len(s.store.Files)
	status.Sections = len(s.store.SectionNames())
	status.Errors = len(s.store.Errors)
	status.AnalyzedAt = &analyzedAt
	return status
}

// Sections lists the non-empty sections of the filtered batch in first-seen order
func (s *AnalysisService) Sections(ctx context.Context, filter domain.HeaderFilter) ([]SectionInfo, error) {
	store, err := s.filtered(filter)
	if err != nil {
		return nil, err
	}
	return sectionInfos(store), nil
}

func sectionInfos(store *domain.AggregateStore) []SectionInfo {
	names := store.SectionNames()
	infos := make([]SectionInfo, 0, len(names))
	for _, name := range names {
		entries, _ := store.Section(name)
		infos = append(infos, SectionInfo{
			Name:          name,
			Kind:          domain.SectionKindOf(name),
			DefaultSource: dataprocessing.DefaultSource(name),
			Files:         len(entries),
		})
	}
	return infos
}

// Series returns the per-file numeric series of one section
func (s *AnalysisService) Series(ctx context.Context, query SectionQuery) (domain.SectionSeries, error) {
	if err := validateSource(query.Source); err != nil {
		return domain.SectionSeries{}, err
	}
	store, err := s.filtered(query.Filter)
	if err != nil {
		return domain.SectionSeries{}, err
	}

	series, ok := dataprocessing.SeriesFor(store, query.Section, query.Source)
	if !ok {
		return domain.SectionSeries{}, fmt.Errorf("%w: %s", ErrSectionNotFound, query.Section)
	}
	return series, nil
}

// Summary computes statistics over the pooled values of one section.
// ErrEmptySeries is returned with the series when nothing numeric was found.
func (s *AnalysisService) Summary(ctx context.Context, query SectionQuery) (*dataprocessing.SectionSummary, error) {
	if err := validateSource(query.Source); err != nil {
		return nil, err
	}
	store, err := s.filtered(query.Filter)
	if err != nil {
		return nil, err
	}

	summary, ok := dataprocessing.SummarizeSection(store, query.Section, query.Source, query.Limits)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, query.Section)
	}
	if summary.Statistics == nil {
		s.logger.DebugContext(ctx, "Summary: empty series",
			slog.String("section", query.Section),
			slog.String("source", string(summary.Series.Source)))
		return &summary, ErrEmptySeries
	}
	return &summary, nil
}

// Headers returns the headers matching filter, in file order
func (s *AnalysisService) Headers(ctx context.Context, filter domain.HeaderFilter) ([]domain.HeaderInfo, error) {
	store, _, err := s.Current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.FilterHeaders(store, filter), nil
}

// HeaderText returns the raw header lines of one file
func (s *AnalysisService) HeaderText(ctx context.Context, fileName string) ([]string, error) {
	store, _, err := s.Current()
	if err != nil {
		return nil, err
	}
	if _, ok := store.Records[fileName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileName)
	}
	lines := store.HeaderText(fileName)
	if lines == nil {
		lines = []string{}
	}
	return lines, nil
}

// Filters lists the values each header filter can take
func (s *AnalysisService) Filters(ctx context.Context) (dataprocessing.FilterOptions, error) {
	store, _, err := s.Current()
	if err != nil {
		return dataprocessing.FilterOptions{}, err
	}
	return dataprocessing.AvailableFilters(store), nil
}

// ExportWorkbook writes the filtered batch as an Excel workbook
func (s *AnalysisService) ExportWorkbook(ctx context.Context, w io.Writer, filter domain.HeaderFilter, limits map[string]domain.SpecLimits) error {
	store, err := s.filtered(filter)
	if err != nil {
		return err
	}
	if err := s.workbook.Write(w, store, limits); err != nil {
		return apierrors.NewExportError("workbook export failed", err).WithContext("batch_id", store.BatchID)
	}
	return nil
}

// ExportSummaryCSV writes one statistics row per section
func (s *AnalysisService) ExportSummaryCSV(ctx context.Context, w io.Writer, filter domain.HeaderFilter, limits map[string]domain.SpecLimits) error {
	store, err := s.filtered(filter)
	if err != nil {
		return err
	}
	if err := exporter.WriteSummaryCSV(w, exporter.SummarizeAll(store, limits)); err != nil {
		return apierrors.NewExportError("summary export failed", err).WithContext("batch_id", store.BatchID)
	}
	return nil
}

// ExportSectionCSV writes one section's series in long format
func (s *AnalysisService) ExportSectionCSV(ctx context.Context, w io.Writer, query SectionQuery) error {
	series, err := s.Series(ctx, query)
	if err != nil {
		return err
	}
	if err := exporter.WriteSeriesCSV(w, series); err != nil {
		return apierrors.NewExportError("series export failed", err).WithContext("section", series.Section)
	}
	return nil
}

func (s *AnalysisService) filtered(filter domain.HeaderFilter) (*domain.AggregateStore, error) {
	store, _, err := s.Current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.FilterStore(store, filter), nil
}

func validateSource(source domain.SeriesSource) error {
	switch source {
	case "", domain.SourceIndexValue, domain.SourceWaveform:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
}
