package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/starford/jot/internal/apperr"
	"github.com/starford/jot/internal/models"
)

// timeLayout is fixed-width RFC3339 so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxIDsPerStatement bounds the number of bound parameters in IN lists.
const maxIDsPerStatement = 500

const noteColumns = `id, title, body, created_at, updated_at, import_hash`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a note and returns its id.
func (db *DB) Create(ctx context.Context, title, body string) (int64, error) {
	return lockedValue(db, func(s *Session) (int64, error) {
		return s.Create(ctx, title, body)
	})
}

// Get returns the note with id, or nil if there is none.
func (db *DB) Get(ctx context.Context, id int64) (*models.Note, error) {
	return lockedValue(db, func(s *Session) (*models.Note, error) {
		return s.Get(ctx, id)
	})
}

// GetMany returns the notes matching ids, most recently updated first.
func (db *DB) GetMany(ctx context.Context, ids []int64) ([]models.Note, error) {
	return lockedValue(db, func(s *Session) ([]models.Note, error) {
		return s.GetMany(ctx, ids)
	})
}

// Update replaces the body of a note.
func (db *DB) Update(ctx context.Context, id int64, body string) error {
	return db.Locked(func(s *Session) error {
		return s.Update(ctx, id, body)
	})
}

// UpdateTitleAndBody replaces both title and body of a note.
func (db *DB) UpdateTitleAndBody(ctx context.Context, id int64, title, body string) error {
	return db.Locked(func(s *Session) error {
		return s.UpdateTitleAndBody(ctx, id, title, body)
	})
}

// Delete removes a single note.
func (db *DB) Delete(ctx context.Context, id int64) error {
	return db.Locked(func(s *Session) error {
		return s.Delete(ctx, id)
	})
}

// DeleteMany removes every note in ids and returns how many existed.
func (db *DB) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	return lockedValue(db, func(s *Session) (int, error) {
		return s.DeleteMany(ctx, ids)
	})
}

// DeleteManyIDs is DeleteMany returning the removed ids in ascending order.
func (db *DB) DeleteManyIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return lockedValue(db, func(s *Session) ([]int64, error) {
		return s.DeleteManyIDs(ctx, ids)
	})
}

// Count returns the total number of notes.
func (db *DB) Count(ctx context.Context) (int, error) {
	return lockedValue(db, func(s *Session) (int, error) {
		return s.Count(ctx)
	})
}

// Seed inserts n synthetic notes.
func (db *DB) Seed(ctx context.Context, n int) error {
	return db.Locked(func(s *Session) error {
		return s.Seed(ctx, n)
	})
}

// Create inserts a note with created_at = updated_at = now.
func (s *Session) Create(ctx context.Context, title, body string) (int64, error) {
	now := formatTime(s.now())
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO notes (title, body, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		title, body, now, now)
	if err != nil {
		return 0, fmt.Errorf("store: create note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: create note: last insert id: %w", err)
	}
	return id, nil
}

// Get returns the note with id, or nil if there is none.
func (s *Session) Get(ctx context.Context, id int64) (*models.Note, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := s.scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get note %d: %w", id, err)
	}
	return &n, nil
}

// GetMany returns the notes matching ids ordered by updated_at descending.
// Empty input returns an empty slice without querying.
func (s *Session) GetMany(ctx context.Context, ids []int64) ([]models.Note, error) {
	out := []models.Note{}
	for _, chunk := range chunkIDs(dedupeIDs(ids)) {
		rows, err := s.conn.QueryContext(ctx,
			`SELECT `+noteColumns+` FROM notes WHERE id IN (`+placeholders(len(chunk))+`) ORDER BY updated_at DESC`,
			idArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("store: get many: %w", err)
		}
		for rows.Next() {
			n, err := s.scanNote(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("store: get many: %w", err)
			}
			out = append(out, n)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("store: get many: %w", err)
		}
	}

	slices.SortStableFunc(out, func(a, b models.Note) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

// Update replaces the body of note id and refreshes updated_at.
func (s *Session) Update(ctx context.Context, id int64, body string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE notes SET body = ?, updated_at = max(created_at, ?) WHERE id = ?`,
		body, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("store: update note %d: %w", id, err)
	}
	return requireRow(res, id)
}

// UpdateTitleAndBody replaces title and body of note id and refreshes updated_at.
func (s *Session) UpdateTitleAndBody(ctx context.Context, id int64, title, body string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE notes SET title = ?, body = ?, updated_at = max(created_at, ?) WHERE id = ?`,
		title, body, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("store: update note %d: %w", id, err)
	}
	return requireRow(res, id)
}

// Delete removes note id.
func (s *Session) Delete(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete note %d: %w", id, err)
	}
	return requireRow(res, id)
}

// DeleteMany removes every existing note in ids within one transaction and
// returns the number of rows removed. Unknown ids are ignored.
func (s *Session) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	removed, err := s.DeleteManyIDs(ctx, ids)
	return len(removed), err
}

// DeleteManyIDs removes every existing note in ids within one transaction and
// returns the ids that were removed, ascending. Unknown ids are ignored.
func (s *Session) DeleteManyIDs(ctx context.Context, ids []int64) ([]int64, error) {
	removed := []int64{}
	if len(ids) == 0 {
		return removed, nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, chunk := range chunkIDs(dedupeIDs(ids)) {
		rows, err := tx.QueryContext(ctx,
			`DELETE FROM notes WHERE id IN (`+placeholders(len(chunk))+`) RETURNING id`,
			idArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("store: delete many: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("store: delete many: %w", err)
			}
			removed = append(removed, id)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("store: delete many: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: delete many: commit: %w", err)
	}
	slices.Sort(removed)
	return removed, nil
}

// Count returns the total number of notes.
func (s *Session) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Seed inserts n deterministic sample notes through Create.
func (s *Session) Seed(ctx context.Context, n int) error {
	for i := 1; i <= n; i++ {
		title, body := SeedNote(i)
		if _, err := s.Create(ctx, title, body); err != nil {
			return err
		}
	}
	return nil
}

// SeedNote returns the title and body of the i-th (1-based) sample note.
func SeedNote(i int) (title, body string) {
	title = fmt.Sprintf("Sample note %d", i)
	body = fmt.Sprintf("This is sample note number %d.\n\n"+
		"Created for testing jot.\n"+
		"Contains keywords like alpha beta gamma delta.\n\n"+
		"Use :help for commands.", i)
	return title, body
}

func (s *Session) scanNote(row rowScanner) (models.Note, error) {
	var (
		n                models.Note
		created, updated string
		hash             sql.NullString
	)
	if err := row.Scan(&n.ID, &n.Title, &n.Body, &created, &updated, &hash); err != nil {
		return models.Note{}, err
	}
	n.CreatedAt = s.parseTime(created)
	n.UpdatedAt = s.parseTime(updated)
	if hash.Valid {
		h := hash.String
		n.ImportHash = &h
	}
	return n, nil
}

// parseTime reads a stored timestamp. Unparseable values fall back to the
// current time so that one bad row cannot break a listing.
func (s *Session) parseTime(v string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	s.logger.Warn("store: unparseable timestamp", slog.String("value", v))
	return s.now().UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("note %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkIDs(ids []int64) [][]int64 {
	var chunks [][]int64
	for len(ids) > maxIDsPerStatement {
		chunks = append(chunks, ids[:maxIDsPerStatement])
		ids = ids[maxIDsPerStatement:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
