// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const runDateFmt = "2006-01-02"

// CreateDigest defines a named digest for a user. Names are unique per user.
func (s *Store) CreateDigest(ctx context.Context, userID, name string, topics []string, description string) (types.Digest, error) {
	if err := requireUser(ctx, userID); err != nil {
		return types.Digest{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Digest{}, fmt.Errorf("%w: digest name cannot be empty", ErrInvalid)
	}

	var clean []string
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	topicsJSON, _ := json.Marshal(clean)

	d := types.Digest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Topics:      clean,
		Description: strings.TrimSpace(description),
	}
	created := s.stamp()
	d.CreatedAt = parseTime(created)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO digests (id, user_id, name, topics, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Name, string(topicsJSON), d.Description, created,
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return types.Digest{}, fmt.Errorf("%w: digest %q already exists", ErrInvalid, name)
		}
		return types.Digest{}, fmt.Errorf("inserting digest: %w", err)
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDigest(row rowScanner) (types.Digest, error) {
	var d types.Digest
	var topics, created string
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &topics, &d.Description, &created); err != nil {
		return d, err
	}
	if err := json.Unmarshal([]byte(topics), &d.Topics); err != nil {
		return d, fmt.Errorf("decoding topics: %w", err)
	}
	d.CreatedAt = parseTime(created)
	return d, nil
}

const digestColumns = `id, user_id, name, topics, description, created_at`

// Digests lists a user's digests, newest first.
func (s *Store) Digests(ctx context.Context, userID string) ([]types.Digest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+digestColumns+` FROM digests WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying digests: %w", err)
	}
	defer rows.Close()

	var out []types.Digest
	for rows.Next() {
		d, err := scanDigest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning digest: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DigestByName returns one of a user's digests.
func (s *Store) DigestByName(ctx context.Context, userID, name string) (types.Digest, error) {
	d, err := scanDigest(s.db.QueryRowContext(ctx,
		`SELECT `+digestColumns+` FROM digests WHERE user_id = ? AND name = ?`, userID, strings.TrimSpace(name),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("%w: digest %q", ErrNotFound, name)
	}
	if err != nil {
		return d, fmt.Errorf("querying digest: %w", err)
	}
	return d, nil
}

// DeleteDigest removes a digest and its results.
func (s *Store) DeleteDigest(ctx context.Context, userID, name string) error {
	if err := requireUser(ctx, userID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM digests WHERE user_id = ? AND name = ?`, userID, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("deleting digest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: digest %q", ErrNotFound, name)
	}
	return nil
}

// PutDigestResults records the results of one nightly run. Re-importing
// the same paper for the same day replaces its judgment.
func (s *Store) PutDigestResults(ctx context.Context, digestID string, day time.Time, results []types.DigestResult) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO digest_results (digest_id, run_date, arxiv_id, reason, relevancy_score)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(digest_id, run_date, arxiv_id) DO UPDATE SET
			reason=excluded.reason, relevancy_score=excluded.relevancy_score`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	runDate := day.UTC().Format(runDateFmt)
	n := 0
	for _, r := range results {
		id := arxiv.CanonicalID(r.ArxivID)
		if id == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, digestID, runDate, id, strings.TrimSpace(r.Reason), r.RelevancyScore); err != nil {
			return 0, fmt.Errorf("inserting digest result %s: %w", id, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing digest results: %w", err)
	}
	return n, nil
}

// DigestResults returns the results recorded for a user's digest on day.
// An unknown digest is ErrNotFound; a day without a run yields no results.
func (s *Store) DigestResults(ctx context.Context, userID, name string, day time.Time) ([]types.DigestResult, error) {
	d, err := s.DigestByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT arxiv_id, reason, relevancy_score FROM digest_results
		 WHERE digest_id = ? AND run_date = ? ORDER BY arxiv_id`,
		d.ID, day.UTC().Format(runDateFmt),
	)
	if err != nil {
		return nil, fmt.Errorf("querying digest results: %w", err)
	}
	defer rows.Close()

	var out []types.DigestResult
	for rows.Next() {
		var r types.DigestResult
		if err := rows.Scan(&r.ArxivID, &r.Reason, &r.RelevancyScore); err != nil {
			return nil, fmt.Errorf("scanning digest result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResultsFile is the YAML layout the nightly job hands over.
type ResultsFile struct {
	Digest  string               `yaml:"digest"`
	Date    string               `yaml:"date"`
	Results []types.DigestResult `yaml:"results"`
}

// ImportDigestResults reads a ResultsFile and stores its results under the
// user's digest of the same name. It returns the number of rows written.
func (s *Store) ImportDigestResults(ctx context.Context, userID string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading results file: %w", err)
	}
	var rf ResultsFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return 0, fmt.Errorf("parsing results file: %w", err)
	}
	if strings.TrimSpace(rf.Digest) == "" {
		return 0, fmt.Errorf("%w: results file names no digest", ErrInvalid)
	}
	day, err := time.Parse(runDateFmt, rf.Date)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid date %q: %v", ErrInvalid, rf.Date, err)
	}

	d, err := s.DigestByName(ctx, userID, rf.Digest)
	if err != nil {
		return 0, err
	}
	return s.PutDigestResults(ctx, d.ID, day, rf.Results)
}
