package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

// prefixRunes is how much of a body the title+prefix check compares.
const prefixRunes = 200

// Candidate is a note proposed by the import pipeline.
type Candidate struct {
	Title       string
	Body        string
	Fingerprint string
	// ModTime backdates created_at; zero means "now".
	ModTime time.Time
}

type duplicateCheck struct {
	name  string
	match func(ctx context.Context, s *Session, c Candidate) (bool, error)
}

// duplicateChecks run in order, cheapest first, and stop at the first match.
var duplicateChecks = []duplicateCheck{
	{name: "import_hash", match: hashExists},
	{name: "body", match: bodyExists},
	{name: "title_prefix", match: titlePrefixExists},
}

func hashExists(ctx context.Context, s *Session, c Candidate) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM notes WHERE import_hash = ?)`, c.Fingerprint)
}

func bodyExists(ctx context.Context, s *Session, c Candidate) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM notes WHERE body = ?)`, c.Body)
}

// titlePrefixExists matches a note with the same title whose body starts with
// the candidate's first 200 characters.
func titlePrefixExists(ctx context.Context, s *Session, c Candidate) (bool, error) {
	prefix := truncateRunes(c.Body, prefixRunes)
	return s.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM notes WHERE title = ? AND substr(body, 1, ?) = ?)`,
		c.Title, utf8.RuneCountInString(prefix), prefix)
}

func (s *Session) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// FindDuplicate returns the name of the first duplicate check that matches c,
// or "" if c is new.
func (s *Session) FindDuplicate(ctx context.Context, c Candidate) (string, error) {
	for _, check := range duplicateChecks {
		ok, err := check.match(ctx, s, c)
		if err != nil {
			return "", fmt.Errorf("store: duplicate check %s: %w", check.name, err)
		}
		if ok {
			return check.name, nil
		}
	}
	return "", nil
}

// InsertImported stores c with its fingerprint. created_at is the candidate's
// modification time, clamped so it never lies after updated_at.
func (s *Session) InsertImported(ctx context.Context, c Candidate) (int64, error) {
	now := s.now().UTC()
	created := c.ModTime.UTC()
	if c.ModTime.IsZero() || created.After(now) {
		created = now
	}

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO notes (title, body, created_at, updated_at, import_hash) VALUES (?, ?, ?, ?, ?)`,
		c.Title, c.Body, formatTime(created), formatTime(now), c.Fingerprint)
	if err != nil {
		return 0, fmt.Errorf("store: insert imported note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert imported note: last insert id: %w", err)
	}
	return id, nil
}

// Import inserts c unless it duplicates an existing note. The duplicate
// checks and the insert happen under one lock acquisition.
func (db *DB) Import(ctx context.Context, c Candidate) (id int64, imported bool, err error) {
	err = db.Locked(func(s *Session) error {
		dup, err := s.FindDuplicate(ctx, c)
		if err != nil {
			return err
		}
		if dup != "" {
			s.logger.Debug("store: import skipped duplicate",
				slog.String("title", c.Title),
				slog.String("matched", dup))
			return nil
		}
		id, err = s.InsertImported(ctx, c)
		if err != nil {
			return err
		}
		imported = true
		return nil
	})
	return id, imported, err
}
