package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"probecli/internal/config"
	"probecli/internal/shared/testutil"
)

func newValidator(t *testing.T) *FileValidator {
	logger, _ := testutil.NewTestLogger(t)
	return NewFileValidator(logger, config.ProcessingConfig{
		MaxFileSize:   1024,
		MaxBatchFiles: 3,
		Extensions:    []string{".raw", ".imp"},
	})
}

func TestFileValidator_ValidateBatch(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		count   int
		wantErr error
	}{
		{"empty", 0, ErrNoFiles},
		{"single", 1, nil},
		{"at limit", 3, nil},
		{"over limit", 4, ErrTooManyFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBatch(tt.count)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileValidator_ValidateUpload(t *testing.T) {
	v := newValidator(t)
	assert.Equal(t, int64(1024), v.MaxFileSize())

	tests := []struct {
		name     string
		fileName string
		size     int64
		wantErr  error
	}{
		{"raw file", "probe_01.raw", 100, nil},
		{"imp upper case", "PROBE.IMP", 100, nil},
		{"empty file allowed", "empty.raw", 0, nil},
		{"blank name", " ", 1, ErrInvalidName},
		{"path traversal", "../x.raw", 1, ErrInvalidName},
		{"windows path", `dir\x.raw`, 1, ErrInvalidName},
		{"wrong extension", "notes.txt", 1, ErrUnsupportedType},
		{"too large", "big.raw", 2048, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.fileName, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileValidator_ValidateNames(t *testing.T) {
	v := newValidator(t)
	assert.NoError(t, v.ValidateNames([]string{"a.raw", "b.raw", "A.raw"}))
	assert.ErrorIs(t, v.ValidateNames([]string{"a.raw", "b.raw", "a.raw"}), ErrDuplicateFile)
}

func TestFileValidator_ExportFormat(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out/report.xlsx", ExportXLSX, false},
		{"summary.CSV", ExportCSV, false},
		{"report.xls", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := v.ExportFormat(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedExport)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := newValidator(t)
	dir := filepath.Join(t.TempDir(), "exports", "nested")

	require.NoError(t, v.ValidateOutputDirectory(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileValidator_DefaultExtensions(t *testing.T) {
	v := NewFileValidator(nil, config.ProcessingConfig{})
	assert.NoError(t, v.ValidateUpload("a.imp", 1))
	assert.NoError(t, v.ValidateBatch(10000))
}
