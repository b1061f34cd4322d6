package store

import (
	"context"

	"github.com/starford/jot/internal/models"
)

// NoteStore is the repository surface used by the command service.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type NoteStore interface {
	Create(ctx context.Context, title, body string) (int64, error)
	Get(ctx context.Context, id int64) (*models.Note, error)
	GetMany(ctx context.Context, ids []int64) ([]models.Note, error)
	Update(ctx context.Context, id int64, body string) error
	UpdateTitleAndBody(ctx context.Context, id int64, title, body string) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int, error)
	DeleteManyIDs(ctx context.Context, ids []int64) ([]int64, error)
	Count(ctx context.Context) (int, error)
	Seed(ctx context.Context, n int) error
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
	Import(ctx context.Context, c Candidate) (int64, bool, error)
	Locked(fn func(s *Session) error) error
	Close() error
}

// Verify *DB satisfies NoteStore at compile time.
var _ NoteStore = (*DB)(nil)
