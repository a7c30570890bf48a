package services

import (
	"errors"

	"probecli/internal/validation"
)

// Analysis service errors
var (
	ErrNoAnalysis      = errors.New("no analysis has been run")
	ErrSectionNotFound = errors.New("section not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrEmptySeries     = errors.New("series has no numeric values")
	ErrInvalidSource   = errors.New("invalid series source")

	// Batch errors shared with upload validation
	ErrNoFiles       = validation.ErrNoFiles
	ErrTooManyFiles  = validation.ErrTooManyFiles
	ErrDuplicateFile = validation.ErrDuplicateFile
)
