package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/starford/jot/internal/apperr"
)

// Session is the view of the store available while its lock is held.
// It must not be retained after the Locked callback returns.
type Session struct {
	conn   *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// Locked runs fn with exclusive access to the store. Every repository, query,
// import and export operation goes through here, so callers serialize on a
// single mutex. A panic inside fn poisons the store: the panic is re-raised
// and all later calls fail with apperr.ErrLockPoisoned.
func (db *DB) Locked(fn func(s *Session) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.poisoned {
		return apperr.ErrLockPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			db.poisoned = true
			db.logger.Error("store: panic while holding lock", slog.Any("panic", r))
			panic(r)
		}
	}()

	return fn(&Session{conn: db.conn, now: db.now, logger: db.logger})
}

// lockedValue runs fn under the store lock and returns its result.
func lockedValue[T any](db *DB, fn func(s *Session) (T, error)) (T, error) {
	var out T
	err := db.Locked(func(s *Session) error {
		v, err := fn(s)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
