// Package sqlitestore implements the toilet, vote, user and review stores on
// SQLite. Radius queries prefilter on an indexed lat/lon bounding box and then
// recheck every candidate with the haversine distance.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/db"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
)

const timeLayout = time.RFC3339Nano

const nowSQL = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

// Stores groups the SQLite-backed stores sharing one handle.
type Stores struct {
	DB      *sql.DB
	Toilets *ToiletStore
	Votes   *VoteStore
	Users   *UserStore
	Reviews *ReviewStore
}

func New(sqldb *sql.DB) *Stores {
	return &Stores{
		DB:      sqldb,
		Toilets: &ToiletStore{db: sqldb},
		Votes:   &VoteStore{db: sqldb},
		Users:   &UserStore{db: sqldb},
		Reviews: &ReviewStore{db: sqldb},
	}
}

// Open opens the database at path, creates the schema and returns the stores.
func Open(ctx context.Context, path string) (*Stores, error) {
	sqldb, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSQLiteSchema(ctx, sqldb); err != nil {
		sqldb.Close()
		return nil, err
	}
	return New(sqldb), nil
}

func (s *Stores) Close() error {
	return s.DB.Close()
}

// Ping is used by the readiness probe.
func (s *Stores) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func sqliteCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

type constraintKind int

const (
	noConstraint constraintKind = iota
	uniqueConstraint
	foreignKeyConstraint
	checkConstraint
)

// constraint classifies a constraint failure. The message is consulted when
// only the primary result code is available.
func constraint(err error) constraintKind {
	switch sqliteCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return uniqueConstraint
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return foreignKeyConstraint
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return checkConstraint
	case sqlite3.SQLITE_CONSTRAINT:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return uniqueConstraint
		case strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return foreignKeyConstraint
		case strings.Contains(msg, "CHECK constraint failed"):
			return checkConstraint
		}
	}
	return noConstraint
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
	case sqliteCode(err) == sqlite3.SQLITE_BUSY:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
	default:
		return eris.Wrap(err, op)
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse timestamp %q", s)
	}
	return t, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
