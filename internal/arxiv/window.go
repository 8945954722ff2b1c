// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"time"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Window is an inclusive range of whole UTC days.
type Window struct {
	// Start is UTC midnight of the first day.
	Start time.Time
	// End is 23:59:59.999 UTC of the last day.
	End time.Time
}

// NewWindow spans startOfDay(start) through endOfDay(end), both in UTC.
func NewWindow(start, end time.Time) Window {
	return Window{Start: StartOfDay(start), End: EndOfDay(end)}
}

// StartOfDay returns UTC midnight of t's UTC day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last millisecond of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Millisecond)
}

// Contains reports whether t's UTC publication day lies in the window.
func (w Window) Contains(t time.Time) bool {
	day := StartOfDay(t)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Filter keeps the papers published inside the window, normalizing each
// kept paper's Published to UTC midnight.
func (w Window) Filter(papers []types.Paper) []types.Paper {
	var kept []types.Paper
	for _, p := range papers {
		if !w.Contains(p.Published) {
			continue
		}
		p.Published = StartOfDay(p.Published)
		kept = append(kept, p)
	}
	return kept
}
