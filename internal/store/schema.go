// Package store provides the SQLite-backed note repository: schema management,
// CRUD, date/keyword search, and import deduplication over a single connection
// guarded by a single lock.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
)

// driverName is the go-sqlite3 driver with jot's SQL functions registered.
const driverName = "sqlite3_jot"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// SQLite's lower() only folds ASCII.
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

const tableSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	body        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	import_hash TEXT
);
`

const indexSQL = `
CREATE INDEX IF NOT EXISTS idx_updated ON notes(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_import_hash ON notes(import_hash);
`

// DB owns the only connection to the notes database.
type DB struct {
	mu       sync.Mutex
	poisoned bool

	conn   *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// Open opens (or creates) the notes database at path and applies the schema.
func Open(path string, opts ...Option) (*DB, error) {
	conn, err := sql.Open(driverName, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{
		conn:   conn,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// migrate creates the notes table, adds import_hash to tables created before
// the column existed, and then creates the indexes.
func migrate(conn *sql.DB) error {
	if _, err := conn.Exec(tableSQL); err != nil {
		return fmt.Errorf("store: create notes table: %w", err)
	}

	ok, err := hasColumn(conn, "notes", "import_hash")
	if err != nil {
		return err
	}
	if !ok {
		if _, err := conn.Exec(`ALTER TABLE notes ADD COLUMN import_hash TEXT`); err != nil {
			return fmt.Errorf("store: add import_hash column: %w", err)
		}
	}

	if _, err := conn.Exec(indexSQL); err != nil {
		return fmt.Errorf("store: create indexes: %w", err)
	}
	return nil
}

func hasColumn(conn *sql.DB, table, column string) (bool, error) {
	rows, err := conn.Query(`PRAGMA table_info(` + table + `)`)
	if err != nil {
		return false, fmt.Errorf("store: table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("store: scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
