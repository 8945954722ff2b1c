// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the records the pipeline reads but does not
// produce: paper tags, saved queries, digest definitions and the nightly
// digest results.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

var (
	// ErrNotFound is returned when a named record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalid wraps validation failures on input records.
	ErrInvalid = errors.New("invalid record")
)

// timeFmt is fixed-width so stored timestamps sort lexically.
const timeFmt = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the SQLite database. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at cfg.Path and ensures the schema.
// The path ":memory:" opens a private in-memory database.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = types.DefaultConfig().Store.Path
	}

	dsn := path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS paper_tags (
			id TEXT PRIMARY KEY,
			paper_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_paper_tags_unique
			ON paper_tags(user_id, paper_id, name COLLATE NOCASE)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_tags_user_name ON paper_tags(user_id, name)`,
		`CREATE TABLE IF NOT EXISTS saved_queries (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			query TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_queries_user ON saved_queries(user_id)`,
		`CREATE TABLE IF NOT EXISTS digests (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			topics TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE(user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS digest_results (
			digest_id TEXT NOT NULL REFERENCES digests(id) ON DELETE CASCADE,
			run_date TEXT NOT NULL,
			arxiv_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			relevancy_score REAL NOT NULL,
			PRIMARY KEY (digest_id, run_date, arxiv_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeFmt, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeFmt)
}

// requireUser rejects anonymous writes.
func requireUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	return ctx.Err()
}
