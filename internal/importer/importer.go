// Package importer turns plain-text files into notes, skipping files whose
// content is already in the store.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/starford/jot/internal/apperr"
	"github.com/starford/jot/internal/checksum"
	"github.com/starford/jot/internal/models"
	"github.com/starford/jot/internal/store"
)

// Untitled is the title given to files whose name yields no usable stem.
const Untitled = "(untitled)"

// Sink accepts import candidates. *store.DB satisfies it.
type Sink interface {
	Import(ctx context.Context, c store.Candidate) (int64, bool, error)
}

// Importer reads files and hands them to a Sink for deduplication and insert.
type Importer struct {
	sink   Sink
	logger *slog.Logger
}

// New creates an Importer. A nil logger uses slog.Default().
func New(sink Sink, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{sink: sink, logger: logger}
}

// ImportFile imports a single file. imported is false when the file duplicates
// an existing note; that is not an error.
func (im *Importer) ImportFile(ctx context.Context, path string) (imported bool, id int64, err error) {
	c, err := ReadCandidate(path)
	if err != nil {
		return false, 0, err
	}
	id, imported, err = im.sink.Import(ctx, c)
	if err != nil {
		return false, 0, fmt.Errorf("importer: %s: %w", path, err)
	}
	return imported, id, nil
}

// ImportFiles imports paths in order. Failures are logged and counted as
// skipped; they never abort the batch.
func (im *Importer) ImportFiles(ctx context.Context, paths []string) models.ImportResult {
	logger := im.logger.With(slog.String("run_id", uuid.NewString()))
	res := models.ImportResult{IDs: []int64{}}

	for _, p := range paths {
		imported, id, err := im.ImportFile(ctx, p)
		switch {
		case err != nil:
			res.Skipped++
			logger.Warn("import: file failed", slog.String("path", p), slog.String("error", err.Error()))
		case !imported:
			res.Skipped++
			logger.Debug("import: duplicate skipped", slog.String("path", p))
		default:
			res.Imported++
			res.IDs = append(res.IDs, id)
			logger.Debug("import: file imported", slog.String("path", p), slog.Int64("id", id))
		}
	}

	logger.Info("import: finished",
		slog.Int("files", len(paths)),
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped))
	return res
}

// ReadCandidate loads path and derives its title, fingerprint and mtime.
func ReadCandidate(path string) (store.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Candidate{}, fmt.Errorf("importer: read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return store.Candidate{}, fmt.Errorf("importer: %s is not UTF-8 text: %w", path, apperr.ErrImportFailed)
	}

	title := TitleFromPath(path)
	body := string(data)
	c := store.Candidate{
		Title:       title,
		Body:        body,
		Fingerprint: checksum.Fingerprint(title, body),
	}
	if info, err := os.Stat(path); err == nil {
		c.ModTime = info.ModTime()
	}
	return c, nil
}

// TitleFromPath returns the file name without its last extension. Dotfiles
// such as ".profile" keep their full name.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return Untitled
	}
	stem := base
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		stem = base[:i]
	}
	if stem == "" || !utf8.ValidString(stem) {
		return Untitled
	}
	return stem
}
