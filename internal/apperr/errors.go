// Package apperr defines the error kinds shared across the command surface.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrImportFailed = errors.New("import failed")
	ErrExportFailed = errors.New("export failed")

	// ErrLockPoisoned is returned by every store operation after a panic
	// escaped a previous critical section.
	ErrLockPoisoned = errors.New("store lock poisoned")
)
