package http

import (
	"context"
	"io"

	"probecli/internal/dataprocessing"
	"probecli/internal/services"
	"probecli/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the analysis operations the HTTP layer needs
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, files []domain.SourceFile) (*services.AnalysisResult, error)
	Result(ctx context.Context) (*services.AnalysisResult, error)
	Reset(ctx context.Context)

	Sections(ctx context.Context, filter domain.HeaderFilter) ([]services.SectionInfo, error)
	Series(ctx context.Context, query services.SectionQuery) (domain.SectionSeries, error)
	Summary(ctx context.Context, query services.SectionQuery) (*dataprocessing.SectionSummary, error)
	Headers(ctx context.Context, filter domain.HeaderFilter) ([]domain.HeaderInfo, error)
	HeaderText(ctx context.Context, fileName string) ([]string, error)
	Filters(ctx context.Context) (dataprocessing.FilterOptions, error)

	ExportWorkbook(ctx context.Context, w io.Writer, filter domain.HeaderFilter, limits map[string]domain.SpecLimits) error
	ExportSummaryCSV(ctx context.Context, w io.Writer, filter domain.HeaderFilter, limits map[string]domain.SpecLimits) error
	ExportSectionCSV(ctx context.Context, w io.Writer, query services.SectionQuery) error
}
