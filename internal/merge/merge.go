// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge resolves each match group into one canonical UnifiedRecord.
// Every field follows a single documented rule so the merged dataset is
// reproducible:
//
//	title            longest non-empty (ties: source priority order)
//	abstract         first non-empty in abstract priority order; recorded
//	                 provenance on the winning member is preserved
//	doi              first non-empty normalized DOI in group member order
//	open_access_url  first non-empty
//	authors          longest non-empty
//	author_count     maximum present value
//	publication_year minimum present value
//	publication_date minimum present value
//	cited_by_count   maximum present value
//	venue            first non-empty
//	search_terms     sorted union of distinct terms
//	in_<source>      true iff the group has a member from that catalog
//	<source>_id      the member's own catalog-local id
//	policy_*         first non-empty
//
// Absent values stay absent: optional integers are nil, never zero.
//
// See docs/ARCHITECTURE.md § Merging.
package merge

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/policy-unify/internal/match"
	"github.com/pdiddy/policy-unify/internal/normalize"
	"github.com/pdiddy/policy-unify/pkg/types"
)

// ErrEmptyGroup reports a match group with no resolvable members reaching
// the merger. Given the matcher's partition contract this cannot happen;
// seeing it means a matcher bug, so the run aborts.
var ErrEmptyGroup = errors.New("match group has no members")

// DefaultAbstractPriority is the catalog order scanned when resolving the
// merged abstract. OpenAlex abstracts are reconstructed from full inverted
// indexes and tend to be the most complete.
var DefaultAbstractPriority = []types.Source{
	types.SourceOpenAlex,
	types.SourceSemanticScholar,
	types.SourceNBER,
}

// Merge produces exactly one UnifiedRecord per match group, in unified ID
// order. abstractPriority may be nil to use the default.
func Merge(records match.Records, groups []types.MatchGroup, abstractPriority []types.Source) ([]types.UnifiedRecord, error) {
	if len(abstractPriority) == 0 {
		abstractPriority = DefaultAbstractPriority
	}

	unified := make([]types.UnifiedRecord, 0, len(groups))
	for _, g := range groups {
		u, err := mergeGroup(records, g, abstractPriority)
		if err != nil {
			return nil, err
		}
		unified = append(unified, u)
	}
	return unified, nil
}

func mergeGroup(records match.Records, g types.MatchGroup, abstractPriority []types.Source) (types.UnifiedRecord, error) {
	if len(g.Members) == 0 {
		return types.UnifiedRecord{}, fmt.Errorf("%w: unified_id %d", ErrEmptyGroup, g.UnifiedID)
	}

	members := make([]types.SourceRecord, len(g.Members))
	for i, ref := range g.Members {
		members[i] = records.At(ref)
	}

	u := types.UnifiedRecord{
		UnifiedID: g.UnifiedID,
		Method:    g.Method,
	}

	u.Title = longestNonEmpty(members, func(r types.SourceRecord) string { return r.Title })
	u.NormalizedTitle = normalize.TitleKey(u.Title)
	u.Abstract, u.AbstractSource = resolveAbstract(members, abstractPriority)

	u.DOI = firstNonEmpty(members, func(r types.SourceRecord) string { return normalize.DOIKey(r.DOIRaw) })
	u.OpenAccessURL = firstNonEmpty(members, func(r types.SourceRecord) string { return r.OpenAccessURL })
	u.Venue = firstNonEmpty(members, func(r types.SourceRecord) string { return r.Venue })

	u.Authors = longestNonEmpty(members, func(r types.SourceRecord) string { return r.Authors })
	u.AuthorCount = maxPresent(members, func(r types.SourceRecord) *int { return r.AuthorCount })
	u.CitedByCount = maxPresent(members, func(r types.SourceRecord) *int { return r.CitedByCount })
	u.PublicationYear = minPresent(members, func(r types.SourceRecord) *int { return r.PublicationYear })
	u.PublicationDate = minNonEmpty(members, func(r types.SourceRecord) string { return r.PublicationDate })

	u.SearchTerms = unionTerms(members)

	for _, m := range members {
		switch m.Source {
		case types.SourceOpenAlex:
			u.InOpenAlex = true
			if u.OpenAlexID == "" {
				u.OpenAlexID = m.SourceID
			}
		case types.SourceSemanticScholar:
			u.InSemanticScholar = true
			if u.SemanticScholarID == "" {
				u.SemanticScholarID = m.SourceID
			}
		case types.SourceNBER:
			u.InNBER = true
			if u.NBERID == "" {
				u.NBERID = m.SourceID
			}
		}
	}

	u.PolicyName = firstNonEmpty(members, func(r types.SourceRecord) string { return r.PolicyName })
	u.PolicyAbbreviation = firstNonEmpty(members, func(r types.SourceRecord) string { return r.PolicyAbbreviation })
	u.PolicyCategory = firstNonEmpty(members, func(r types.SourceRecord) string { return r.PolicyCategory })
	u.PolicyYear = firstPresent(members, func(r types.SourceRecord) *int { return r.PolicyYear })

	return u, nil
}

// resolveAbstract scans catalogs in priority order and takes the first
// non-empty abstract. When the winning member carries recorded provenance
// (an upstream recovery stage filled the abstract in), that provenance is
// preserved; otherwise the scanning catalog is recorded.
func resolveAbstract(members []types.SourceRecord, priority []types.Source) (string, string) {
	for _, src := range priority {
		for _, m := range members {
			if m.Source != src {
				continue
			}
			if strings.TrimSpace(m.Abstract) == "" {
				continue
			}
			if m.AbstractSource != "" {
				return m.Abstract, m.AbstractSource
			}
			return m.Abstract, string(src)
		}
	}
	return "", ""
}

// longestNonEmpty returns the longest non-empty value. Members are already
// in source priority order, so on ties the higher-priority catalog wins.
func longestNonEmpty(members []types.SourceRecord, get func(types.SourceRecord) string) string {
	best := ""
	for _, m := range members {
		if v := get(m); len(v) > len(best) {
			best = v
		}
	}
	return best
}

// firstNonEmpty returns the first non-empty value in group member order.
func firstNonEmpty(members []types.SourceRecord, get func(types.SourceRecord) string) string {
	for _, m := range members {
		if v := get(m); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// minNonEmpty returns the smallest non-empty value in string order. ISO
// dates compare correctly as strings.
func minNonEmpty(members []types.SourceRecord, get func(types.SourceRecord) string) string {
	best := ""
	for _, m := range members {
		v := get(m)
		if v == "" {
			continue
		}
		if best == "" || v < best {
			best = v
		}
	}
	return best
}

// maxPresent returns the maximum of the present values, nil if none present.
func maxPresent(members []types.SourceRecord, get func(types.SourceRecord) *int) *int {
	var best *int
	for _, m := range members {
		v := get(m)
		if v == nil {
			continue
		}
		if best == nil || *v > *best {
			n := *v
			best = &n
		}
	}
	return best
}

// minPresent returns the minimum of the present values, nil if none present.
func minPresent(members []types.SourceRecord, get func(types.SourceRecord) *int) *int {
	var best *int
	for _, m := range members {
		v := get(m)
		if v == nil {
			continue
		}
		if best == nil || *v < *best {
			n := *v
			best = &n
		}
	}
	return best
}

// firstPresent returns the first present value, nil if none.
func firstPresent(members []types.SourceRecord, get func(types.SourceRecord) *int) *int {
	for _, m := range members {
		if v := get(m); v != nil {
			n := *v
			return &n
		}
	}
	return nil
}

// unionTerms collects the distinct search terms across members, sorted
// ascending and pipe-joined.
func unionTerms(members []types.SourceRecord) string {
	set := make(map[string]bool)
	for _, m := range members {
		if t := strings.TrimSpace(m.SearchTerm); t != "" {
			set[t] = true
		}
	}
	if len(set) == 0 {
		return ""
	}
	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return strings.Join(terms, " | ")
}
