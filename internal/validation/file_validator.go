package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"probecli/internal/config"
)

// Upload and export validation errors
var (
	ErrNoFiles           = errors.New("no files provided")
	ErrTooManyFiles      = errors.New("too many files in batch")
	ErrInvalidName       = errors.New("invalid file name")
	ErrUnsupportedType   = errors.New("unsupported file type")
	ErrFileTooLarge      = errors.New("file exceeds maximum size")
	ErrDuplicateFile     = errors.New("duplicate file name in batch")
	ErrUnsupportedExport = errors.New("unsupported export format")
)

// Export formats
const (
	ExportXLSX = "xlsx"
	ExportCSV  = "csv"
)

// FileValidator checks uploads and export targets against processing limits
type FileValidator struct {
	logger        *slog.Logger
	extensions    []string
	maxFileSize   int64
	maxBatchFiles int
}

// NewFileValidator creates a validator from the processing configuration
func NewFileValidator(logger *slog.Logger, cfg config.ProcessingConfig) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = config.ProbeFileExtensions
	}
	return &FileValidator{
		logger:        logger.With(slog.String("component", "file_validator")),
		extensions:    extensions,
		maxFileSize:   cfg.MaxFileSize,
		maxBatchFiles: cfg.MaxBatchFiles,
	}
}

// MaxFileSize is the per-file limit in bytes; zero means unlimited
func (v *FileValidator) MaxFileSize() int64 {
	return v.maxFileSize
}

// ValidateBatch checks the number of files in one analysis request
func (v *FileValidator) ValidateBatch(count int) error {
	if count == 0 {
		return ErrNoFiles
	}
	if v.maxBatchFiles > 0 && count > v.maxBatchFiles {
		v.logger.Warn("batch rejected",
			slog.Int("files", count),
			slog.Int("limit", v.maxBatchFiles))
		return fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, count, v.maxBatchFiles)
	}
	return nil
}

// ValidateUpload checks one uploaded file's name and size. Empty files are
// accepted; they simply contribute no sections.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if !v.hasAllowedExtension(name) {
		return fmt.Errorf("%w: %s, expected one of %s", ErrUnsupportedType, name, strings.Join(v.extensions, ", "))
	}

	if v.maxFileSize > 0 && size > v.maxFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, name, size, v.maxFileSize)
	}

	return nil
}

// ValidateNames rejects a batch in which two files share a name
func (v *FileValidator) ValidateNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrDuplicateFile, name)
		}
		seen[name] = true
	}
	return nil
}

// ExportFormat derives the export format from a target file name
func (v *FileValidator) ExportFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ExportXLSX, nil
	case ".csv":
		return ExportCSV, nil
	default:
		return "", fmt.Errorf("%w: %q, expected .xlsx or .csv", ErrUnsupportedExport, path)
	}
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func (v *FileValidator) hasAllowedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range v.extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
