// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// ErrDuplicateTag is returned when a paper already carries a tag of the
// same name, ignoring case.
var ErrDuplicateTag = errors.New("tag already exists for this paper")

// TagPalette lists the badge classes tag colors are drawn from.
var TagPalette = []string{
	"bg-blue-100 text-blue-800",
	"bg-green-100 text-green-800",
	"bg-yellow-100 text-yellow-800",
	"bg-purple-100 text-purple-800",
	"bg-pink-100 text-pink-800",
	"bg-indigo-100 text-indigo-800",
}

// TagColor picks a palette entry from a rolling hash of name's UTF-16
// code units. The same name always yields the same color.
func TagColor(name string) string {
	var acc int64
	for _, unit := range utf16.Encode([]rune(name)) {
		shifted := int64(int32(uint32(acc) << 5))
		acc = int64(unit) + shifted - acc
	}
	if acc < 0 {
		acc = -acc
	}
	return TagPalette[acc%int64(len(TagPalette))]
}

// AddTag labels a paper for a user. The name is trimmed; empty names and
// case-insensitive duplicates on the same paper are rejected. A name the
// user already uses elsewhere keeps its existing color.
func (s *Store) AddTag(ctx context.Context, userID, paperID, name string) (types.PaperTag, error) {
	if err := requireUser(ctx, userID); err != nil {
		return types.PaperTag{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.PaperTag{}, fmt.Errorf("%w: tag name cannot be empty", ErrInvalid)
	}
	paperID = arxiv.CanonicalID(paperID)
	if paperID == "" {
		return types.PaperTag{}, fmt.Errorf("%w: paper id is required", ErrInvalid)
	}

	color, err := s.existingColor(ctx, userID, name)
	if err != nil {
		return types.PaperTag{}, err
	}
	if color == "" {
		color = TagColor(name)
	}

	tag := types.PaperTag{
		ID:      uuid.NewString(),
		PaperID: paperID,
		UserID:  userID,
		Name:    name,
		Color:   color,
	}
	created := s.stamp()
	tag.CreatedAt = parseTime(created)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO paper_tags (id, paper_id, user_id, name, color, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		tag.ID, tag.PaperID, tag.UserID, tag.Name, tag.Color, created,
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return types.PaperTag{}, fmt.Errorf("%w: %q on %s", ErrDuplicateTag, name, paperID)
		}
		return types.PaperTag{}, fmt.Errorf("inserting tag: %w", err)
	}
	return tag, nil
}

func (s *Store) existingColor(ctx context.Context, userID, name string) (string, error) {
	var color string
	err := s.db.QueryRowContext(ctx,
		`SELECT color FROM paper_tags WHERE user_id = ? AND name = ? LIMIT 1`, userID, name,
	).Scan(&color)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up tag color: %w", err)
	}
	return color, nil
}

// RemoveTag deletes a tag by name (case-insensitive) from one paper.
func (s *Store) RemoveTag(ctx context.Context, userID, paperID, name string) error {
	if err := requireUser(ctx, userID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM paper_tags WHERE user_id = ? AND paper_id = ? AND name = ? COLLATE NOCASE`,
		userID, arxiv.CanonicalID(paperID), strings.TrimSpace(name),
	)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: tag %q on %s", ErrNotFound, name, paperID)
	}
	return nil
}

// TagsForPaper lists a user's tags on one paper, newest first.
func (s *Store) TagsForPaper(ctx context.Context, userID, paperID string) ([]types.PaperTag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, paper_id, user_id, name, color, created_at FROM paper_tags
		 WHERE user_id = ? AND paper_id = ? ORDER BY created_at DESC, id DESC`,
		userID, arxiv.CanonicalID(paperID),
	)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []types.PaperTag
	for rows.Next() {
		var t types.PaperTag
		var created string
		if err := rows.Scan(&t.ID, &t.PaperID, &t.UserID, &t.Name, &t.Color, &created); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		t.CreatedAt = parseTime(created)
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// TagNames returns the distinct tag names a user has applied, sorted.
func (s *Store) TagNames(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT name FROM paper_tags WHERE user_id = ? ORDER BY name`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tag names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning tag name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// PaperIDsForTag returns the ids of papers a user has tagged with name.
// An empty user yields no ids.
func (s *Store) PaperIDsForTag(ctx context.Context, userID, name string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT paper_id FROM paper_tags WHERE user_id = ? AND name = ? ORDER BY paper_id`,
		userID, strings.TrimSpace(name),
	)
	if err != nil {
		return nil, fmt.Errorf("querying tagged papers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning paper id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
