// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"regexp"
	"strings"
)

// absBase prefixes canonical identifiers to form the browsable URL.
const absBase = "https://arxiv.org/abs/"

var (
	versionSuffix = regexp.MustCompile(`v\d+$`)

	// oldStyleID matches pre-2007 identifiers such as "hep-th/9901001" or
	// "math.AG/0601001v2", whose slash is part of the identifier.
	oldStyleID = regexp.MustCompile(`^[a-z-]+(\.[A-Z]{2})?/\d{7}(v\d+)?$`)

	// modernID matches "2301.07041" and "0704.0001" with optional version.
	modernID = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

	idMarkers = []string{"/abs/", "/pdf/", "/papers/"}
)

// CanonicalID normalizes an identifier, abstract URL, PDF URL or listing
// href to the dedup key form: no scheme or host, no fragment or query, no
// "arXiv:" prefix, no version suffix. Unrecognized input is reduced to its
// trailing path segment.
//
//	"http://arxiv.org/abs/2301.07041v2" -> "2301.07041"
//	"/papers/2301.07041#community"      -> "2301.07041"
//	"hep-th/9901001v1"                  -> "hep-th/9901001"
func CanonicalID(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "#?"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".pdf")

	for _, marker := range idMarkers {
		if i := strings.LastIndex(s, marker); i >= 0 {
			s = s[i+len(marker):]
			break
		}
	}
	s = strings.TrimPrefix(s, "arXiv:")

	if !oldStyleID.MatchString(s) {
		if i := strings.LastIndex(s, "/"); i >= 0 {
			s = s[i+1:]
		}
	}
	return versionSuffix.ReplaceAllString(s, "")
}

// BareID is the form sent as id_list to the lookup endpoint.
func BareID(raw string) string {
	return CanonicalID(raw)
}

// LooksLikeID reports whether s (after canonicalization) has the shape of
// an arXiv identifier.
func LooksLikeID(s string) bool {
	id := CanonicalID(s)
	return modernID.MatchString(id) || oldStyleID.MatchString(id)
}

// AbsURL returns the canonical abstract page for an identifier.
func AbsURL(id string) string {
	return absBase + CanonicalID(id)
}
