package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "probecli/internal/errors"
	"probecli/internal/shared/testutil"
)

type summaryQuery struct {
	Section string   `json:"section" validate:"required,section"`
	Source  string   `json:"source" validate:"omitempty,oneof=index_value waveform"`
	Lower   *float64 `json:"lower"`
	Upper   *float64 `json:"upper" validate:"omitempty,gtefield=Lower"`
}

type uploadName struct {
	Name string `json:"name" validate:"filename"`
}

func newValidation(t *testing.T, maxBody int64) *ValidationMiddleware {
	logger, _ := testutil.NewTestLogger(t)
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false), maxBody)
}

func TestValidateStruct(t *testing.T) {
	v := newValidation(t, 0)
	lower, upper := 5.0, 1.0

	tests := []struct {
		name      string
		input     interface{}
		wantField string
	}{
		{"valid", summaryQuery{Section: "Impedance", Source: "waveform"}, ""},
		{"missing section", summaryQuery{}, "section"},
		{"bracketed section", summaryQuery{Section: "[Impedance]"}, "section"},
		{"bad source", summaryQuery{Section: "1", Source: "both"}, "source"},
		{"inverted limits", summaryQuery{Section: "1", Lower: &lower, Upper: &upper}, "upper"},
		{"path in filename", uploadName{Name: "../etc/passwd"}, "name"},
		{"plain filename", uploadName{Name: "probe_01.raw"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.input)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.NotEmpty(t, details.Errors)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
		})
	}
}

func TestLimitBody(t *testing.T) {
	v := newValidation(t, 16)
	assert.Equal(t, int64(16), v.MaxBodySize())

	var readErr error
	handler := v.LimitBody(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("declared oversize body", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("undeclared oversize body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
		req.ContentLength = -1
		handler.ServeHTTP(httptest.NewRecorder(), req)
		var maxErr *http.MaxBytesError
		assert.True(t, errors.As(readErr, &maxErr))
	})

	t.Run("small body", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, readErr)
	})
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "multipart/form-data")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"get skips check", http.MethodGet, "", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"multipart", http.MethodPost, "multipart/form-data; boundary=x", http.StatusOK},
		{"json", http.MethodPost, "application/json", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	t.Run("float", func(t *testing.T) {
		w := httptest.NewRecorder()
		got, ok := v.ValidateFloat(w, httptest.NewRequest(http.MethodGet, "/?upper=1.5", nil), "upper")
		require.True(t, ok)
		require.NotNil(t, got)
		assert.Equal(t, 1.5, *got)

		got, ok = v.ValidateFloat(w, httptest.NewRequest(http.MethodGet, "/", nil), "upper")
		assert.True(t, ok)
		assert.Nil(t, got)

		w = httptest.NewRecorder()
		_, ok = v.ValidateFloat(w, httptest.NewRequest(http.MethodGet, "/?upper=high", nil), "upper")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("enum", func(t *testing.T) {
		allowed := []string{"index_value", "waveform"}
		w := httptest.NewRecorder()
		got, ok := v.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/", nil), "source", allowed, "")
		assert.True(t, ok)
		assert.Empty(t, got)

		_, ok = v.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/?source=both", nil), "source", allowed, "")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?station=TS-01,TS-02&station=%20TS-03%20&station=", nil)
	assert.Equal(t, []string{"TS-01", "TS-02", "TS-03"}, ListParam(req, "station"))
	assert.Nil(t, ListParam(req, "operator"))
}
