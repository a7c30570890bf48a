package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	apierrors "probecli/internal/errors"
	"probecli/pkg/contracts/domain"
)

var (
	// ErrFileTooLarge is returned when a file exceeds the loader's size limit
	ErrFileTooLarge = errors.New("file exceeds maximum size")
	// ErrDuplicateName is returned when two paths share a base name
	ErrDuplicateName = errors.New("duplicate file name")
)

// Loader reads discovered files into analysis inputs
type Loader struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewLoader creates a loader. A non-positive maxFileSize disables the size check.
func NewLoader(maxFileSize int64, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "file_loader")),
	}
}

// Load reads every file in order. Files are named by their base name, which
// must be unique within the batch.
func (l *Loader) Load(ctx context.Context, infos []FileInfo) ([]domain.SourceFile, error) {
	sources := make([]domain.SourceFile, 0, len(infos))
	names := make(map[string]string, len(infos))

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if previous, dup := names[info.Name]; dup {
			return nil, fmt.Errorf("%w: %s (%s and %s)", ErrDuplicateName, info.Name, previous, info.Path)
		}
		names[info.Name] = info.Path

		if l.maxFileSize > 0 && info.Size > l.maxFileSize {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, info.Path, info.Size, l.maxFileSize)
		}

		content, err := os.ReadFile(info.Path)
		if err != nil {
			return nil, apierrors.NewStorageError("failed to read probe file", err).WithContext("file", info.Path)
		}

		l.logger.DebugContext(ctx, "file loaded",
			slog.String("path", info.Path),
			slog.Int("bytes", len(content)))

		sources = append(sources, domain.SourceFile{Name: info.Name, Content: content})
	}

	l.logger.InfoContext(ctx, "files loaded", slog.Int("count", len(sources)))
	return sources, nil
}
