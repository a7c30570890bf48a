package dataprocessing

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"probecli/pkg/contracts/domain"
)

const tracerName = "probecli/dataprocessing"

// MetricsRecorder receives per-file and per-batch counters
type MetricsRecorder interface {
	FileParsed(ctx context.Context, dialect string, excludedSections, malformed int)
	DecodeFailed(ctx context.Context)
	BatchCompleted(ctx context.Context, files int, duration time.Duration, err error)
}

// Aggregator parses a batch of files concurrently and merges the results
type Aggregator struct {
	decoder *Decoder
	workers int
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// AggregatorOption configures an Aggregator
type AggregatorOption func(*Aggregator)

// WithWorkers bounds the number of concurrent parses; n <= 0 keeps the default
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithDecoder replaces the default decoder chain
func WithDecoder(d *Decoder) AggregatorOption {
	return func(a *Aggregator) {
		if d != nil {
			a.decoder = d
		}
	}
}

// WithMetrics attaches a metrics recorder
func WithMetrics(m MetricsRecorder) AggregatorOption {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// NewAggregator creates an aggregator with one worker per CPU
func NewAggregator(logger *slog.Logger, opts ...AggregatorOption) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Aggregator{
		decoder: DefaultDecoder(),
		workers: runtime.NumCPU(),
		logger:  logger.With(slog.String("component", "aggregator")),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Workers returns the configured concurrency bound
func (a *Aggregator) Workers() int {
	return a.workers
}

type parseResult struct {
	record *domain.Record
	err    error
}

// Aggregate parses every file and merges them into a fresh store. Results
// are merged in submission order regardless of completion order. A file that
// cannot be decoded is reported in the store's Errors and skipped. If ctx is
// cancelled the whole batch is abandoned and no store is returned.
func (a *Aggregator) Aggregate(ctx context.Context, files []domain.SourceFile) (*domain.AggregateStore, error) {
	start := time.Now()
	batchID := uuid.New().String()

	ctx, span := a.tracer.Start(ctx, "probe.aggregate", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.files", len(files)),
	))
	defer span.End()

	store, err := a.aggregate(ctx, batchID, files)

	if a.metrics != nil {
		a.metrics.BatchCompleted(ctx, len(files), time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.WarnContext(ctx, "analysis batch aborted",
			slog.String("batch_id", batchID),
			slog.String("error", err.Error()))
		return nil, err
	}

	a.logger.InfoContext(ctx, "analysis batch complete",
		slog.String("batch_id", batchID),
		slog.Int("files", len(files)),
		slog.Int("parsed", len(store.Files)),
		slog.Int("failed", len(store.Errors)),
		slog.Int("sections", len(store.SectionOrder)),
		slog.Duration("duration", time.Since(start)))

	return store, nil
}

func (a *Aggregator) aggregate(ctx context.Context, batchID string, files []domain.SourceFile) (*domain.AggregateStore, error) {
	results := make([]parseResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record, err := ParseFile(files[i], a.decoder)
			results[i] = parseResult{record: record, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store := domain.NewAggregateStore(batchID)
	for i, res := range results {
		a.merge(ctx, store, files[i].Name, res)
	}
	return store, nil
}

// merge folds one file's result into the store
func (a *Aggregator) merge(ctx context.Context, store *domain.AggregateStore, fileName string, res parseResult) {
	if res.err != nil {
		store.Errors = append(store.Errors, domain.FileError{
			FileName: fileName,
			Kind:     domain.ErrorKindDecodeFailure,
			Message:  res.err.Error(),
		})
		if a.metrics != nil {
			a.metrics.DecodeFailed(ctx)
		}
		a.logger.WarnContext(ctx, "file skipped",
			slog.String("file", fileName),
			slog.String("error_kind", string(domain.ErrorKindDecodeFailure)))
		return
	}

	record := res.record
	store.Files = append(store.Files, fileName)
	store.Records[fileName] = record

	kept, excluded := FilterBadElements(record)
	for _, name := range kept {
		store.Append(name, fileName, record.Sections[name])
	}
	if record.HasHeader() {
		store.Headers = append(store.Headers, BuildHeaderInfo(record))
	}

	if a.metrics != nil {
		a.metrics.FileParsed(ctx, string(record.Format), len(excluded), record.Diagnostics.MalformedNumeric)
	}
	a.logger.DebugContext(ctx, "file merged",
		slog.String("file", fileName),
		slog.String("format", string(record.Format)),
		slog.String("encoding", record.Diagnostics.Encoding),
		slog.Int("sections", len(kept)),
		slog.Any("excluded_sections", excluded),
		slog.Int("malformed_numeric", record.Diagnostics.MalformedNumeric))
}
