package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"probecli/internal/dataprocessing"
	apierrors "probecli/internal/errors"
	"probecli/internal/middleware"
	"probecli/internal/services"
	"probecli/internal/shared/testutil"
	"probecli/internal/validation"
	"probecli/pkg/contracts/domain"
)

// MockAnalysisService is a mock implementation of AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, files []domain.SourceFile) (*services.AnalysisResult, error) {
	args := m.Called(files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) Result(ctx context.Context) (*services.AnalysisResult, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) Reset(ctx context.Context) {
	m.Called()
}

func (m *MockAnalysisService) Sections(ctx context.Context, filter domain.HeaderFilter) ([]services.SectionInfo, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.SectionInfo), args.Error(1)
}

func (m *MockAnalysisService) Series(ctx context.Context, query services.SectionQuery) (domain.SectionSeries, error) {
	args := m.Called(query)
	return args.Get(0).(domain.SectionSeries), args.Error(1)
}

func (m *MockAnalysisService) Summary(ctx context.Context, query services.SectionQuery) (*dataprocessing.SectionSummary, error) {
	args := m.Called(query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataprocessing.SectionSummary), args.Error(1)
}

func (m *MockAnalysisService) Headers(ctx context.Context, filter domain.HeaderFilter) ([]domain.HeaderInfo, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HeaderInfo), args.Error(1)
}

func (m *MockAnalysisService) HeaderText(ctx context.Context, fileName string) ([]string, error) {
	args := m.Called(fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAnalysisService) Filters(ctx context.Context) (dataprocessing.FilterOptions, error) {
	args := m.Called()
	return args.Get(0).(dataprocessing.FilterOptions), args.Error(1)
}

func (m *MockAnalysisService) ExportWorkbook(ctx context.Context, w io.Writer, filter domain.HeaderFilter, limits map[string]domain.SpecLimits) error {
	args := m.Called(w, filter, limits)
	return args.Error(0)
}

func (m *MockAnalysisService) ExportSummaryCSV(ctx context.Context, w io.Writer, filter domain.HeaderFilter, limits map[string]domain.SpecLimits) error {
	args := m.Called(w, filter, limits)
	return args.Error(0)
}

func (m *MockAnalysisService) ExportSectionCSV(ctx context.Context, w io.Writer, query services.SectionQuery) error {
	args := m.Called(w, query)
	return args.Error(0)
}

func setupAnalysisRouter(t *testing.T, svc *MockAnalysisService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	v := middleware.NewValidationMiddleware(logger, errorHandler, 1<<20)

	r := chi.NewRouter()
	r.Mount("/api/analysis", NewAnalysisHandler(svc, v, errorHandler, logger).Routes())
	return r
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, files map[string][]byte, order ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	files := map[string][]byte{
		"a.raw": testutil.LegacyFile(),
		"b.imp": testutil.ExtendedFile(),
	}

	tests := []struct {
		name           string
		setupMock      func(*MockAnalysisService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "successful batch",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.MatchedBy(func(got []domain.SourceFile) bool {
					return len(got) == 2 && got[0].Name == "a.raw" && got[1].Name == "b.imp" &&
						bytes.Equal(got[0].Content, testutil.LegacyFile())
				})).Return(&services.AnalysisResult{BatchID: "batch-1", Files: []string{"a.raw", "b.imp"}}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"batch_id":"batch-1"`,
		},
		{
			name: "duplicate names",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.Anything).Return(nil, fmt.Errorf("%w: a.raw", services.ErrDuplicateFile))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name: "file too large",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.Anything).Return(nil, fmt.Errorf("%w: a.raw", validation.ErrFileTooLarge))
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   `"PAYLOAD_TOO_LARGE"`,
		},
		{
			name: "aggregation failure",
			setupMock: func(m *MockAnalysisService) {
				m.On("Analyze", mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal Server Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)

			w := serve(setupAnalysisRouter(t, svc), multipartRequest(t, files, "a.raw", "b.imp"))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_AnalyzeRequiresMultipart(t *testing.T) {
	svc := new(MockAnalysisService)
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	w := serve(setupAnalysisRouter(t, svc), req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	svc.AssertNotCalled(t, "Analyze", mock.Anything)
}

func TestAnalysisHandler_AnalyzeNoFiles(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Analyze", []domain.SourceFile{}).Return(nil, services.ErrNoFiles)

	w := serve(setupAnalysisRouter(t, svc), multipartRequest(t, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "At least one")
}

func TestAnalysisHandler_ResultAndReset(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Result").Return(nil, services.ErrNoAnalysis).Once()
	svc.On("Reset").Return()
	router := setupAnalysisRouter(t, svc)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"NO_ANALYSIS"`)

	w = serve(router, httptest.NewRequest(http.MethodDelete, "/api/analysis", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_GetSections(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockAnalysisService)
		expectedStatus int
	}{
		{
			name:  "filters parsed and normalized",
			query: "?station=TS-01,TS-02&status=pass&status=unknown&sn=X-77",
			setupMock: func(m *MockAnalysisService) {
				m.On("Sections", domain.HeaderFilter{
					Stations:       []string{"TS-01", "TS-02"},
					ResultStatuses: []string{"PASS", "Unknown"},
					SerialNumbers:  []string{"X-77"},
				}).Return([]services.SectionInfo{{Name: "Impedance", Kind: domain.SectionKindIndexValue, Files: 1}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid status",
			query:          "?status=maybe",
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "no analysis",
			query: "",
			setupMock: func(m *MockAnalysisService) {
				m.On("Sections", domain.HeaderFilter{}).Return(nil, services.ErrNoAnalysis)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)

			w := serve(setupAnalysisRouter(t, svc), httptest.NewRequest(http.MethodGet, "/api/analysis/sections"+tt.query, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				body := decodeBody(t, w)
				assert.Equal(t, float64(1), body["count"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_GetSeries(t *testing.T) {
	series := domain.SectionSeries{
		Section: "Probe Data",
		Kind:    domain.SectionKindIndexValue,
		Source:  domain.SourceWaveform,
		Files:   []domain.FileSeries{{FileName: "a.raw", Station: "TS-01", Values: []float64{1, 2}}},
	}

	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockAnalysisService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "escaped section with source",
			path: "/api/analysis/sections/Probe%20Data?source=waveform",
			setupMock: func(m *MockAnalysisService) {
				m.On("Series", services.SectionQuery{Section: "Probe Data", Source: domain.SourceWaveform}).Return(series, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"file_name":"a.raw"`,
		},
		{
			name:           "invalid source",
			path:           "/api/analysis/sections/Impedance?source=both",
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name: "section not found",
			path: "/api/analysis/sections/Nope",
			setupMock: func(m *MockAnalysisService) {
				m.On("Series", services.SectionQuery{Section: "Nope"}).
					Return(domain.SectionSeries{}, fmt.Errorf("%w: Nope", services.ErrSectionNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"SECTION_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)

			w := serve(setupAnalysisRouter(t, svc), httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_GetSummary(t *testing.T) {
	stats := &domain.SummaryStatistics{Count: 3, Average: 50.43, Min: 49.8, Max: 51, Range: 1.2}
	limits := domain.NewSpecLimits(50, 51)

	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockAnalysisService)
		expectedStatus int
	}{
		{
			name:  "statistics with limits",
			query: "?lower=50&upper=51",
			setupMock: func(m *MockAnalysisService) {
				m.On("Summary", services.SectionQuery{Section: "Impedance", Limits: limits}).
					Return(&dataprocessing.SectionSummary{Statistics: stats}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "upper limit only",
			query: "?upper=51",
			setupMock: func(m *MockAnalysisService) {
				m.On("Summary", mock.MatchedBy(func(q services.SectionQuery) bool {
					return q.Limits.Lower == nil && q.Limits.Upper != nil && *q.Limits.Upper == 51
				})).Return(&dataprocessing.SectionSummary{Statistics: stats}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "empty series",
			query: "",
			setupMock: func(m *MockAnalysisService) {
				m.On("Summary", services.SectionQuery{Section: "Impedance"}).
					Return(&dataprocessing.SectionSummary{}, services.ErrEmptySeries)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "non-numeric limit",
			query:          "?lower=abc",
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "inverted limits",
			query:          "?lower=60&upper=50",
			setupMock:      func(m *MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)

			w := serve(setupAnalysisRouter(t, svc), httptest.NewRequest(http.MethodGet, "/api/analysis/sections/Impedance/summary"+tt.query, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Empty(t, w.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_Headers(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Headers", domain.HeaderFilter{Operators: []string{"bob"}}).
		Return([]domain.HeaderInfo{{FileName: "b.imp", Operator: "bob", ResultStatus: "FAIL"}}, nil)
	svc.On("HeaderText", "a.raw").Return([]string{"SN = P12345"}, nil)
	svc.On("HeaderText", "c.raw").Return(nil, fmt.Errorf("%w: c.raw", services.ErrFileNotFound))
	svc.On("Filters").Return(dataprocessing.FilterOptions{Stations: []string{"TS-01"}}, nil)
	router := setupAnalysisRouter(t, svc)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/analysis/headers?operator=bob", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fileName":"b.imp"`)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/analysis/headers/a.raw/raw", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"SN = P12345"`)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/analysis/headers/c.raw/raw", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/analysis/filters", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stations":["TS-01"]`)

	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Exports(t *testing.T) {
	writeBody := func(content string) func(mock.Arguments) {
		return func(args mock.Arguments) {
			_, _ = args.Get(0).(io.Writer).Write([]byte(content))
		}
	}

	t.Run("workbook with limits", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ExportWorkbook", mock.Anything, domain.HeaderFilter{}, map[string]domain.SpecLimits{
			"Impedance": domain.NewSpecLimits(45, 55),
		}).Run(writeBody("PK-xlsx")).Return(nil)

		w := serve(setupAnalysisRouter(t, svc), httptest.NewRequest(http.MethodGet, "/api/analysis/export.xlsx?limit=Impedance:45:55", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, contentTypeXLSX, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=probe_analysis.xlsx`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "PK-xlsx", w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("summary csv", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ExportSummaryCSV", mock.Anything, domain.HeaderFilter{Stations: []string{"TS-01"}}, map[string]domain.SpecLimits(nil)).
			Run(writeBody("section,kind\n")).Return(nil)

		w := serve(setupAnalysisRouter(t, svc), httptest.NewRequest(http.MethodGet, "/api/analysis/export.csv?station=TS-01", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, contentTypeCSV, w.Header().Get("Content-Type"))
		assert.Equal(t, "section,kind\n", w.Body.String())
	})

	t.Run("section csv", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ExportSectionCSV", mock.Anything, services.SectionQuery{Section: "3"}).
			Run(writeBody("file_name,station,position,value\n")).Return(nil)

		w := serve(setupAnalysisRouter(t, svc), httptest.NewRequest(http.MethodGet, "/api/analysis/sections/3/export.csv", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "section_3.csv")
	})

	t.Run("bad limit", func(t *testing.T) {
		svc := new(MockAnalysisService)
		w := serve(setupAnalysisRouter(t, svc), httptest.NewRequest(http.MethodGet, "/api/analysis/export.xlsx?limit=Impedance:high:55", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ExportWorkbook", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("export without analysis", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ExportWorkbook", mock.Anything, domain.HeaderFilter{}, map[string]domain.SpecLimits(nil)).Return(services.ErrNoAnalysis)

		w := serve(setupAnalysisRouter(t, svc), httptest.NewRequest(http.MethodGet, "/api/analysis/export.xlsx", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})
}
