// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const submittedDayFmt = "20060102"

// SubmittedDateRange renders the submission-date filter covering whole UTC
// days from start to end.
func SubmittedDateRange(start, end time.Time) string {
	return fmt.Sprintf("submittedDate:[%s0000 TO %s2359]",
		start.UTC().Format(submittedDayFmt), end.UTC().Format(submittedDayFmt))
}

// WindowQuery combines a search expression with a submission-date range.
func WindowQuery(expr string, start, end time.Time) string {
	return strings.TrimSpace(expr) + " AND " + SubmittedDateRange(start, end)
}

// TitleQuery restricts a substring match to the title field.
func TitleQuery(term string) string {
	return `ti:"` + strings.TrimSpace(term) + `"`
}

// KeywordQuery ANDs keywords across all fields. Multi-word keywords are
// quoted as phrases; blank keywords are skipped.
func KeywordQuery(keywords []string) string {
	var parts []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.ContainsAny(kw, " \t") {
			kw = `"` + strings.Join(strings.Fields(kw), " ") + `"`
		}
		parts = append(parts, "all:"+kw)
	}
	return strings.Join(parts, " AND ")
}

// SearchURL builds a query URL sorted by submission date, newest first.
func SearchURL(apiBase, query string, maxResults int) string {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	return apiBase + "?" + params.Encode()
}

// LookupURL builds a single-identifier lookup URL.
func LookupURL(apiBase, id string) string {
	params := url.Values{}
	params.Set("id_list", BareID(id))
	return apiBase + "?" + params.Encode()
}
