// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// SaveQuery stores a named search expression for a user.
func (s *Store) SaveQuery(ctx context.Context, userID, name, query string) (types.SavedQuery, error) {
	if err := requireUser(ctx, userID); err != nil {
		return types.SavedQuery{}, err
	}
	name, query = strings.TrimSpace(name), strings.TrimSpace(query)
	if name == "" || query == "" {
		return types.SavedQuery{}, fmt.Errorf("%w: query name and expression are required", ErrInvalid)
	}

	q := types.SavedQuery{ID: uuid.NewString(), UserID: userID, Name: name, Query: query}
	created := s.stamp()
	q.CreatedAt = parseTime(created)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_queries (id, user_id, name, query, created_at) VALUES (?, ?, ?, ?, ?)`,
		q.ID, q.UserID, q.Name, q.Query, created,
	); err != nil {
		return types.SavedQuery{}, fmt.Errorf("inserting saved query: %w", err)
	}
	return q, nil
}

// Queries lists a user's saved queries, newest first.
func (s *Store) Queries(ctx context.Context, userID string) ([]types.SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, query, created_at FROM saved_queries
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying saved queries: %w", err)
	}
	defer rows.Close()

	var out []types.SavedQuery
	for rows.Next() {
		var q types.SavedQuery
		var created string
		if err := rows.Scan(&q.ID, &q.UserID, &q.Name, &q.Query, &created); err != nil {
			return nil, fmt.Errorf("scanning saved query: %w", err)
		}
		q.CreatedAt = parseTime(created)
		out = append(out, q)
	}
	return out, rows.Err()
}

// QueryByName returns the newest saved query with the given name.
func (s *Store) QueryByName(ctx context.Context, userID, name string) (types.SavedQuery, error) {
	var q types.SavedQuery
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, query, created_at FROM saved_queries
		 WHERE user_id = ? AND name = ? ORDER BY created_at DESC LIMIT 1`, userID, strings.TrimSpace(name),
	).Scan(&q.ID, &q.UserID, &q.Name, &q.Query, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return q, fmt.Errorf("%w: saved query %q", ErrNotFound, name)
	}
	if err != nil {
		return q, fmt.Errorf("querying saved query: %w", err)
	}
	q.CreatedAt = parseTime(created)
	return q, nil
}

// DeleteQuery removes a saved query by id.
func (s *Store) DeleteQuery(ctx context.Context, userID, id string) error {
	if err := requireUser(ctx, userID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("deleting saved query: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: saved query %s", ErrNotFound, id)
	}
	return nil
}
