// Package noteservice is the command surface shared by the CLI, HTTP and MCP
// transports. Each method maps to one repository, query, import or export
// operation and announces changes to an optional Notifier.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/jot/internal/apperr"
	"github.com/starford/jot/internal/export"
	"github.com/starford/jot/internal/importer"
	"github.com/starford/jot/internal/models"
	"github.com/starford/jot/internal/store"
)

// MaxSeed caps how many sample notes one SeedNotes call may create.
const MaxSeed = 100_000

// Event kinds passed to Notifier.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventDeleted  = "deleted"
	EventImported = "imported"
)

// Notifier receives note change events. *sse.Broker satisfies it.
type Notifier interface {
	PublishNoteEvent(kind string, ids ...int64)
}

// Service coordinates the store, importer and exporter.
type Service struct {
	db        store.NoteStore
	importer  *importer.Importer
	exporter  *export.Exporter
	exportDir string
	format    export.Format
	notifier  Notifier
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes change events to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithExportDir sets the directory used when ExportNotes is given none.
func WithExportDir(dir string) Option {
	return func(s *Service) { s.exportDir = dir }
}

// WithExportFormat selects markdown or html export.
func WithExportFormat(f export.Format) Option {
	return func(s *Service) { s.format = f }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a service over db.
func New(db store.NoteStore, opts ...Option) *Service {
	s := &Service{db: db, format: export.FormatMarkdown, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.exporter = export.New(db, s.format, s.logger)
	s.importer = importer.New(db, s.logger)
	return s
}

// Importer exposes the importer, e.g. for the inbox watcher.
func (s *Service) Importer() *importer.Importer { return s.importer }

func (s *Service) notify(kind string, ids ...int64) {
	if s.notifier != nil && len(ids) > 0 {
		s.notifier.PublishNoteEvent(kind, ids...)
	}
}

// Search runs a query returning at most limit results. A zero limit returns
// none; a negative one means store.DefaultSearchLimit.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	return s.db.Search(ctx, query, limit)
}

// GetNote returns the note or nil when it does not exist.
func (s *Service) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	return s.db.Get(ctx, id)
}

// CreateNote stores a new note and returns its id.
func (s *Service) CreateNote(ctx context.Context, title, body string) (int64, error) {
	id, err := s.db.Create(ctx, title, body)
	if err != nil {
		return 0, err
	}
	s.notify(EventCreated, id)
	return id, nil
}

// UpdateNote replaces a note's body.
func (s *Service) UpdateNote(ctx context.Context, id int64, body string) error {
	if err := s.db.Update(ctx, id, body); err != nil {
		return err
	}
	s.notify(EventUpdated, id)
	return nil
}

// UpdateNoteFull replaces a note's title and body.
func (s *Service) UpdateNoteFull(ctx context.Context, id int64, title, body string) error {
	if err := s.db.UpdateTitleAndBody(ctx, id, title, body); err != nil {
		return err
	}
	s.notify(EventUpdated, id)
	return nil
}

// DeleteNote removes one note.
func (s *Service) DeleteNote(ctx context.Context, id int64) error {
	if err := s.db.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(EventDeleted, id)
	return nil
}

// DeleteNotes removes the given notes and returns how many existed. The
// deleted event lists only the ids that were removed.
func (s *Service) DeleteNotes(ctx context.Context, ids []int64) (int, error) {
	removed, err := s.db.DeleteManyIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.notify(EventDeleted, removed...)
	return len(removed), nil
}

// NoteCount returns the number of stored notes.
func (s *Service) NoteCount(ctx context.Context) (int, error) {
	return s.db.Count(ctx)
}

// SeedNotes creates n sample notes.
func (s *Service) SeedNotes(ctx context.Context, n int) error {
	if n < 0 || n > MaxSeed {
		return fmt.Errorf("seed count %d out of range [0, %d]: %w", n, MaxSeed, apperr.ErrInvalidInput)
	}
	if err := s.db.Seed(ctx, n); err != nil {
		return err
	}
	s.logger.Info("seeded sample notes", slog.Int("count", n))
	return nil
}

// ImportFiles imports paths; per-file failures are counted as skipped.
func (s *Service) ImportFiles(ctx context.Context, paths []string) models.ImportResult {
	res := s.importer.ImportFiles(ctx, paths)
	s.notify(EventImported, res.IDs...)
	return res
}

// ScanDirectories lists import candidates under dirs matching pattern.
func (s *Service) ScanDirectories(dirs []string, pattern string) ([]models.FileEntry, error) {
	return importer.Scan(dirs, pattern)
}

// ExportNotes writes the given notes into dir, or the configured export
// directory when dir is empty.
func (s *Service) ExportNotes(ctx context.Context, ids []int64, dir string) (models.ExportResult, error) {
	if dir == "" {
		dir = s.exportDir
	}
	if dir == "" {
		return models.ExportResult{}, fmt.Errorf("no export directory: %w", apperr.ErrInvalidInput)
	}
	n, err := s.exporter.Export(ctx, ids, dir)
	if err != nil {
		return models.ExportResult{}, err
	}
	return models.ExportResult{Count: n, Dir: dir}, nil
}

// OnInboxImport adapts the notifier to the inbox watcher callback.
func (s *Service) OnInboxImport(id int64, path string) {
	s.logger.Debug("inbox note created", slog.Int64("id", id), slog.String("path", path))
	s.notify(EventImported, id)
}
