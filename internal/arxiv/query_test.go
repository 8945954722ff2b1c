// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2301.07041", "2301.07041"},
		{"2301.07041v3", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041v2", "2301.07041"},
		{"https://arxiv.org/pdf/2301.07041v1.pdf", "2301.07041"},
		{"/papers/2301.00001", "2301.00001"},
		{"/papers/2301.00001v2#community", "2301.00001"},
		{"https://huggingface.co/papers/2301.00001?utm=x", "2301.00001"},
		{"arXiv:2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v1", "hep-th/9901001"},
		{"math.AG/0601001v2", "math.AG/0601001"},
		{"  2301.07041  ", "2301.07041"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalID(tt.in), tt.in)
	}
}

func TestLooksLikeID(t *testing.T) {
	assert.True(t, LooksLikeID("2301.00001"))
	assert.True(t, LooksLikeID("/papers/2301.12345v2"))
	assert.True(t, LooksLikeID("hep-th/9901001"))
	assert.False(t, LooksLikeID("/papers"))
	assert.False(t, LooksLikeID("/papers/trending"))
	assert.False(t, LooksLikeID(""))
}

func TestAbsURL(t *testing.T) {
	assert.Equal(t, "https://arxiv.org/abs/2301.00001", AbsURL("2301.00001v4"))
}

func TestSubmittedDateRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 7, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "submittedDate:[202403010000 TO 202403072359]", SubmittedDateRange(start, end))
}

func TestTitleQuery(t *testing.T) {
	assert.Equal(t, `ti:"diffusion models"`, TitleQuery("diffusion models"))
	assert.Equal(t, `ti:"diffusion models"`, TitleQuery("  diffusion models "))
}

func TestKeywordQuery(t *testing.T) {
	assert.Equal(t, "all:transformer AND all:vision", KeywordQuery([]string{"transformer", " vision "}))
	assert.Equal(t, `all:"large language" AND all:rlhf`, KeywordQuery([]string{"large   language", "", "rlhf"}))
	assert.Equal(t, "", KeywordQuery(nil))
}

func TestSearchURL(t *testing.T) {
	raw := SearchURL("https://export.arxiv.org/api/query", `ti:"diffusion models"`, 1000)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "export.arxiv.org", u.Host)
	q := u.Query()
	assert.Equal(t, `ti:"diffusion models"`, q.Get("search_query"))
	assert.Equal(t, "0", q.Get("start"))
	assert.Equal(t, "1000", q.Get("max_results"))
	assert.Equal(t, "submittedDate", q.Get("sortBy"))
	assert.Equal(t, "descending", q.Get("sortOrder"))
}

func TestLookupURL(t *testing.T) {
	raw := LookupURL("https://export.arxiv.org/api/query", "http://arxiv.org/abs/2301.00001v2")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "2301.00001", u.Query().Get("id_list"))
}

func TestWindow(t *testing.T) {
	w := NewWindow(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 1, 12, 23, 59, 59, int(999*time.Millisecond), time.UTC), w.End)

	assert.True(t, w.Contains(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 1, 12, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 1, 9, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)))

	// Publication day is judged in UTC: 20:00 EST on the 12th is the 13th.
	est := time.FixedZone("EST", -5*3600)
	assert.False(t, w.Contains(time.Date(2024, 1, 12, 20, 0, 0, 0, est)))
	assert.True(t, w.Contains(time.Date(2024, 1, 9, 20, 0, 0, 0, est)))
}
