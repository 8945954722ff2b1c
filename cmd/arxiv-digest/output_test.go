// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

func TestParseDay(t *testing.T) {
	fallback := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := parseDay("", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = parseDay(" 2024-02-29 ", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDay("29/02/2024", fallback)
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestPrintPapers_Table(t *testing.T) {
	papers := []types.Paper{
		{ID: "2301.00002", Title: "Second", Category: "cs.AI", Published: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "2301.00001", Title: "First", Category: "cs.CL", Published: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	require.NoError(t, printPapers(&buf, papers, false))

	out := buf.String()
	assert.Contains(t, out, "Category")
	assert.Regexp(t, `1\s+2301\.00002\s+2023-01-02\s+cs\.AI\s+Second`, out)
	assert.Contains(t, out, "2 papers")
}

func TestPrintPapers_Scored(t *testing.T) {
	p := types.Paper{ID: "2401.00001", Title: "Agents"}.WithDigest("Relevant benchmark.", 8.5)
	var buf bytes.Buffer
	require.NoError(t, printPapers(&buf, []types.Paper{p}, false))

	out := buf.String()
	assert.Contains(t, out, "Score")
	assert.Contains(t, out, "8.5")
	assert.Contains(t, out, "Relevant benchmark.")
}

func TestPrintPapers_EmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPapers(&buf, nil, true))

	var got []types.Paper
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Empty(t, got)
	assert.Equal(t, "[]\n", buf.String())
}

func TestPrintPapers_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPapers(&buf, nil, false))
	assert.Equal(t, "No papers found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", truncate("éééééééé", 6))
}

func TestExitStatus(t *testing.T) {
	var buf bytes.Buffer
	assert.Zero(t, exitStatus(&buf, nil))
	assert.Empty(t, buf.String())

	assert.Equal(t, exitCancelled, exitStatus(&buf, fmt.Errorf("%w: %w", fetch.ErrCancelled, context.Canceled)))
	assert.Equal(t, exitCancelled, exitStatus(&buf, context.Canceled))
	assert.Empty(t, buf.String(), "an interrupted run prints nothing")

	assert.Equal(t, 1, exitStatus(&buf, errors.New("disk on fire")))
	assert.Equal(t, "Error: disk on fire\n", buf.String())
}
