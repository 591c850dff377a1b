// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts raw identifier and title strings into canonical
// comparison keys. Keys are used purely for equality comparison, never for
// display. All functions are pure and never fail: malformed input normalizes
// to the empty key.
//
// See docs/ARCHITECTURE.md § Normalization.
package normalize

import (
	"strings"
	"unicode"
)

// doiPrefixes are the URL and scheme prefixes stripped before validating a
// DOI. Matched case-insensitively, longest first.
var doiPrefixes = []string{
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"https://doi.org/",
	"http://doi.org/",
	"dx.doi.org/",
	"doi.org/",
	"doi:",
}

// DOIKey returns the canonical comparison key for a raw DOI string: prefix
// stripped, lowercased, whitespace trimmed. It returns "" unless the result
// starts with "10." — a missing and a malformed DOI are treated identically.
func DOIKey(raw string) string {
	doi := strings.TrimSpace(raw)
	if doi == "" {
		return ""
	}

	lower := strings.ToLower(doi)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lower, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}

	doi = strings.ToLower(strings.TrimSpace(doi))
	if !strings.HasPrefix(doi, "10.") {
		return ""
	}
	return doi
}

// TitleKey returns the canonical comparison key for a title: lowercased,
// punctuation removed, whitespace collapsed to single spaces. Returns "" for
// input that normalizes to nothing.
func TitleKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TokenCount returns the number of whitespace-separated tokens in a title
// key. The matcher uses it to exclude very short titles from title-pass
// grouping.
func TokenCount(key string) int {
	if key == "" {
		return 0
	}
	return len(strings.Fields(key))
}
