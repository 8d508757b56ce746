package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating if needed) a SQLite database with foreign keys
// on. Use ":memory:" for a private in-memory database.
//
// The handle is limited to one connection: SQLite has a single writer, and
// serializing through one connection is what makes the vote transaction
// linearizable on this backend.
func OpenSQLite(path string) (*sql.DB, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, eris.Wrap(err, "create db directory")
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open sqlite")
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)
	if path != ":memory:" {
		// an in-memory database lives only as long as its connection
		sqldb.SetConnMaxIdleTime(5 * time.Minute)
	}
	return sqldb, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('USER', 'ADMIN')),
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`,
	`CREATE TABLE IF NOT EXISTS toilets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		lat REAL NOT NULL CHECK (lat BETWEEN -90 AND 90),
		lon REAL NOT NULL CHECK (lon BETWEEN -180 AND 180),
		name TEXT NOT NULL DEFAULT '',
		operator TEXT NOT NULL DEFAULT '',
		fee TEXT NOT NULL DEFAULT '',
		opening_hours TEXT NOT NULL DEFAULT '',
		wheelchair TEXT NOT NULL DEFAULT '',
		is_free INTEGER NOT NULL DEFAULT 0,
		is_paid INTEGER NOT NULL DEFAULT 0,
		is_accessible INTEGER NOT NULL DEFAULT 0,
		is_user_created INTEGER NOT NULL DEFAULT 0,
		submitter_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		report_count INTEGER NOT NULL DEFAULT 0 CHECK (report_count >= 0),
		verify_count INTEGER NOT NULL DEFAULT 0 CHECK (verify_count >= 0),
		is_verified INTEGER NOT NULL DEFAULT 0,
		is_hidden INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_toilets_lat_lon ON toilets (lat, lon)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL CHECK (type IN ('REPORT', 'VERIFY')),
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		toilet_id INTEGER NOT NULL REFERENCES toilets(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
		UNIQUE (user_id, toilet_id, type)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		toilet_id INTEGER NOT NULL REFERENCES toilets(id) ON DELETE CASCADE,
		user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		content TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_toilet ON reviews (toilet_id)`,
}

// EnsureSQLiteSchema creates the SQLite schema if it does not exist.
func EnsureSQLiteSchema(ctx context.Context, sqldb *sql.DB) error {
	for i, stmt := range sqliteSchema {
		if _, err := sqldb.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "sqlite schema statement %d", i)
		}
	}
	return nil
}
