package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"probecli/internal/config"
	"probecli/internal/dataprocessing"
	apierrors "probecli/internal/errors"
	"probecli/internal/middleware"
	"probecli/internal/services"
	"probecli/internal/validation"
	"probecli/pkg/contracts/domain"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"

	// multipart parts above this size spill to temporary files
	multipartMemory = 32 << 20
)

type sectionCtxKey struct{}

type sectionParam struct {
	Section string `json:"section" validate:"required,section"`
}

// AnalysisHandler handles analysis batches, queries and exports with RFC 7807 errors
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validation   *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, validation *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		validation:   validation,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "analysis_handler")),
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(
		h.validation.LimitBody,
		middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"),
	).Post("/", h.Analyze)
	r.Get("/", h.GetResult)
	r.Delete("/", h.Reset)

	r.Get("/sections", h.GetSections)
	r.Route("/sections/{section}", func(r chi.Router) {
		r.Use(h.SectionCtx)
		r.Get("/", h.GetSeries)
		r.Get("/summary", h.GetSummary)
		r.Get("/export.csv", h.ExportSectionCSV)
	})

	r.Get("/headers", h.GetHeaders)
	r.Get("/headers/{file}/raw", h.GetHeaderText)
	r.Get("/filters", h.GetFilters)

	r.Get("/export.xlsx", h.ExportWorkbook)
	r.Get("/export.csv", h.ExportSummaryCSV)

	return r
}

// SectionCtx validates the section URL parameter and stores it in the context
func (h *AnalysisHandler) SectionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		section, err := url.PathUnescape(chi.URLParam(r, "section"))
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("section", "Section name is not valid URL encoding"))
			return
		}
		if err := h.validation.ValidateStruct(sectionParam{Section: section}); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sectionCtxKey{}, section)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sectionFromContext(ctx context.Context) string {
	section, _ := ctx.Value(sectionCtxKey{}).(string)
	return section
}

// Analyze handles POST /api/analysis with multipart "files" parts
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.logger.WarnContext(r.Context(), "upload rejected",
				slog.Int64("limit", h.validation.MaxBodySize()))
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				"Upload exceeds the allowed size", fmt.Sprintf("limit is %d bytes", maxErr.Limit)))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]domain.SourceFile, 0, len(headers))
	for _, fh := range headers {
		file, err := readPart(fh)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		files = append(files, file)
	}

	h.logger.InfoContext(r.Context(), "analysis requested",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.Int("files", len(files)))

	result, err := h.service.Analyze(r.Context(), files)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func readPart(fh *multipart.FileHeader) (domain.SourceFile, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("failed to open part %q: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("failed to read part %q: %w", fh.Filename, err)
	}
	return domain.SourceFile{Name: fh.Filename, Content: content}, nil
}

// GetResult handles GET /api/analysis
func (h *AnalysisHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Reset handles DELETE /api/analysis
func (h *AnalysisHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.service.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// GetSections handles GET /api/analysis/sections
func (h *AnalysisHandler) GetSections(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	sections, err := h.service.Sections(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"sections": sections,
		"count":    len(sections),
	})
}

// GetSeries handles GET /api/analysis/sections/{section}
func (h *AnalysisHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseSectionQuery(w, r, false)
	if !ok {
		return
	}

	series, err := h.service.Series(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, series)
}

// GetSummary handles GET /api/analysis/sections/{section}/summary. An empty
// series answers 204 No Content.
func (h *AnalysisHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseSectionQuery(w, r, true)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), query)
	if errors.Is(err, services.ErrEmptySeries) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// GetHeaders handles GET /api/analysis/headers
func (h *AnalysisHandler) GetHeaders(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	headers, err := h.service.Headers(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"headers": headers,
		"count":   len(headers),
	})
}

// GetHeaderText handles GET /api/analysis/headers/{file}/raw
func (h *AnalysisHandler) GetHeaderText(w http.ResponseWriter, r *http.Request) {
	fileName, err := url.PathUnescape(chi.URLParam(r, "file"))
	if err != nil || fileName == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "File name is required"))
		return
	}

	lines, err := h.service.HeaderText(r.Context(), fileName)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"file_name": fileName,
		"lines":     lines,
	})
}

// GetFilters handles GET /api/analysis/filters
func (h *AnalysisHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.Filters(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, options)
}

// ExportWorkbook handles GET /api/analysis/export.xlsx
func (h *AnalysisHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	limits, ok := h.parseSectionLimits(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportWorkbook(r.Context(), &buf, filter, limits); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeDownload(w, r, config.WorkbookFileName, contentTypeXLSX, buf.Bytes())
}

// ExportSummaryCSV handles GET /api/analysis/export.csv
func (h *AnalysisHandler) ExportSummaryCSV(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	limits, ok := h.parseSectionLimits(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportSummaryCSV(r.Context(), &buf, filter, limits); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeDownload(w, r, config.SummaryFileName, contentTypeCSV, buf.Bytes())
}

// ExportSectionCSV handles GET /api/analysis/sections/{section}/export.csv
func (h *AnalysisHandler) ExportSectionCSV(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseSectionQuery(w, r, false)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportSectionCSV(r.Context(), &buf, query); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeDownload(w, r, "section_"+query.Section+".csv", contentTypeCSV, buf.Bytes())
}

func (h *AnalysisHandler) writeDownload(w http.ResponseWriter, r *http.Request, fileName, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted",
			slog.String("file_name", fileName),
			slog.String("error", err.Error()))
	}
}

// parseFilter reads station, operator, status and sn query parameters
func (h *AnalysisHandler) parseFilter(w http.ResponseWriter, r *http.Request) (domain.HeaderFilter, bool) {
	filter := domain.HeaderFilter{
		Stations:       middleware.ListParam(r, "station"),
		Operators:      middleware.ListParam(r, "operator"),
		ResultStatuses: normalizeStatuses(middleware.ListParam(r, "status")),
		SerialNumbers:  middleware.ListParam(r, "sn"),
	}
	if err := h.validation.ValidateStruct(filter); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.HeaderFilter{}, false
	}
	return filter, true
}

func normalizeStatuses(statuses []string) []string {
	for i, s := range statuses {
		statuses[i], _ = dataprocessing.CanonicalStatus(s)
	}
	return statuses
}

// parseSectionQuery combines the section, source, filter and optional limits
func (h *AnalysisHandler) parseSectionQuery(w http.ResponseWriter, r *http.Request, withLimits bool) (services.SectionQuery, bool) {
	query := services.SectionQuery{Section: sectionFromContext(r.Context())}

	source, ok := h.query.ValidateEnum(w, r, "source",
		[]string{string(domain.SourceIndexValue), string(domain.SourceWaveform)}, "")
	if !ok {
		return query, false
	}
	query.Source = domain.SeriesSource(source)

	if query.Filter, ok = h.parseFilter(w, r); !ok {
		return query, false
	}

	if !withLimits {
		return query, true
	}

	lower, ok := h.query.ValidateFloat(w, r, "lower")
	if !ok {
		return query, false
	}
	upper, ok := h.query.ValidateFloat(w, r, "upper")
	if !ok {
		return query, false
	}
	if lower != nil && upper != nil && *upper < *lower {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("upper", "upper must be greater than or equal to lower"))
		return query, false
	}
	query.Limits = domain.SpecLimits{Lower: lower, Upper: upper}
	return query, true
}

// parseSectionLimits reads repeated limit=section:lower:upper parameters
func (h *AnalysisHandler) parseSectionLimits(w http.ResponseWriter, r *http.Request) (map[string]domain.SpecLimits, bool) {
	raw := r.URL.Query()["limit"]
	if len(raw) == 0 {
		return nil, true
	}

	limits := make(map[string]domain.SpecLimits, len(raw))
	for _, entry := range raw {
		section, sectionLimits, err := domain.ParseSectionLimit(entry)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", err.Error()))
			return nil, false
		}
		limits[section] = sectionLimits
	}
	return limits, true
}

// handleServiceError maps service errors onto API errors
func (h *AnalysisHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr error
	switch {
	case errors.Is(err, services.ErrNoAnalysis):
		apiErr = apierrors.ErrNoAnalysis
	case errors.Is(err, services.ErrSectionNotFound):
		apiErr = apierrors.NewWithDetails(http.StatusNotFound, "SECTION_NOT_FOUND",
			"Section not found in the current batch", err.Error())
	case errors.Is(err, services.ErrFileNotFound):
		apiErr = apierrors.NotFoundError("file")
	case errors.Is(err, services.ErrInvalidSource):
		apiErr = apierrors.ErrValidation("source", err.Error())
	case errors.Is(err, services.ErrNoFiles):
		apiErr = apierrors.ErrValidation("files", "At least one .raw or .imp file is required")
	case errors.Is(err, validation.ErrFileTooLarge):
		apiErr = apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			"Upload exceeds the allowed size", err.Error())
	case errors.Is(err, services.ErrTooManyFiles),
		errors.Is(err, services.ErrDuplicateFile),
		errors.Is(err, validation.ErrInvalidName),
		errors.Is(err, validation.ErrUnsupportedType):
		apiErr = apierrors.ErrValidation("files", err.Error())
	default:
		apiErr = err
	}
	h.errorHandler.HandleError(w, r, apiErr)
}
