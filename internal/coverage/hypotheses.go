// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coverage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/policy-unify/pkg/types"
)

// hypotheses runs the fixed pattern checks against the unified dataset.
// Each check is evaluated independently and is skipped when the partition
// it needs is empty — a hypothesis is never emitted without evidence.
func hypotheses(unified []types.UnifiedRecord) []types.Hypothesis {
	checks := []func([]types.UnifiedRecord) *types.Hypothesis{
		checkNBERVenueRestriction,
		checkDOIAsymmetry,
		checkVenuePatterns,
		checkTemporalDivergence,
		checkSearchTermEffectiveness,
	}

	var out []types.Hypothesis
	for _, check := range checks {
		if h := check(unified); h != nil {
			out = append(out, *h)
		}
	}
	return out
}

// only returns records present in src and absent from every other catalog.
func only(unified []types.UnifiedRecord, src types.Source) []types.UnifiedRecord {
	var out []types.UnifiedRecord
	for _, u := range unified {
		if u.In(src) && u.SourceCount() == 1 {
			out = append(out, u)
		}
	}
	return out
}

// onlyVersus returns records present in a and absent from b, regardless of
// the third catalog.
func onlyVersus(unified []types.UnifiedRecord, a, b types.Source) []types.UnifiedRecord {
	var out []types.UnifiedRecord
	for _, u := range unified {
		if u.In(a) && !u.In(b) {
			out = append(out, u)
		}
	}
	return out
}

func countIn(unified []types.UnifiedRecord, src types.Source) int {
	n := 0
	for _, u := range unified {
		if u.In(src) {
			n++
		}
	}
	return n
}

func doiPct(records []types.UnifiedRecord) float64 {
	withDOI := 0
	for _, u := range records {
		if u.DOI != "" {
			withDOI++
		}
	}
	return pct(withDOI, len(records))
}

// checkNBERVenueRestriction: the working-paper catalog indexes a single
// series by design, which explains its singleton set.
func checkNBERVenueRestriction(unified []types.UnifiedRecord) *types.Hypothesis {
	nberOnly := only(unified, types.SourceNBER)
	if len(nberOnly) == 0 {
		return nil
	}

	venues := make(map[string]int)
	for _, u := range nberOnly {
		if u.Venue != "" {
			venues[u.Venue]++
		}
	}

	return &types.Hypothesis{
		Statement: "NBER only indexes NBER working papers",
		Evidence: map[string]any{
			"nber_only_papers":        len(nberOnly),
			"total_nber_papers":       countIn(unified, types.SourceNBER),
			"top_venues_in_nber_only": topVenues(venues, 3),
		},
		Conclusion: fmt.Sprintf(
			"NBER has %d papers not found in the other catalogs, consistent with a catalog restricted to the NBER working paper series.",
			len(nberOnly)),
	}
}

// checkDOIAsymmetry: differing DOI coverage between the two "only"
// partitions suggests differing metadata completeness.
func checkDOIAsymmetry(unified []types.UnifiedRecord) *types.Hypothesis {
	oaOnly := onlyVersus(unified, types.SourceOpenAlex, types.SourceSemanticScholar)
	ssOnly := onlyVersus(unified, types.SourceSemanticScholar, types.SourceOpenAlex)
	if len(oaOnly) == 0 && len(ssOnly) == 0 {
		return nil
	}

	oaPct := doiPct(oaOnly)
	ssPct := doiPct(ssOnly)

	return &types.Hypothesis{
		Statement: "OpenAlex has more complete DOI metadata than Semantic Scholar",
		Evidence: map[string]any{
			"openalex_only_papers":          len(oaOnly),
			"semantic_scholar_only_papers":  len(ssOnly),
			"openalex_only_doi_pct":         oaPct,
			"semantic_scholar_only_doi_pct": ssPct,
		},
		Conclusion: fmt.Sprintf(
			"OpenAlex-only papers have %.1f%% DOI coverage vs %.1f%% for Semantic Scholar-only papers.",
			oaPct, ssPct),
	}
}

// checkVenuePatterns: the catalogs index different venues, so their
// singleton sets concentrate in different outlets.
func checkVenuePatterns(unified []types.UnifiedRecord) *types.Hypothesis {
	oaOnly := onlyVersus(unified, types.SourceOpenAlex, types.SourceSemanticScholar)
	ssOnly := onlyVersus(unified, types.SourceSemanticScholar, types.SourceOpenAlex)

	oaVenues := make(map[string]int)
	for _, u := range oaOnly {
		if u.Venue != "" {
			oaVenues[u.Venue]++
		}
	}
	ssVenues := make(map[string]int)
	for _, u := range ssOnly {
		if u.Venue != "" {
			ssVenues[u.Venue]++
		}
	}
	if len(oaVenues) == 0 && len(ssVenues) == 0 {
		return nil
	}

	return &types.Hypothesis{
		Statement: "Sources have different venue coverage patterns",
		Evidence: map[string]any{
			"top_venues_in_openalex_only":         topVenues(oaVenues, topVenueCount),
			"top_venues_in_semantic_scholar_only": topVenues(ssVenues, topVenueCount),
		},
		Conclusion: "Different catalogs index different venues, leading to non-overlapping coverage.",
	}
}

// checkTemporalDivergence: divergent median publication years between the
// two "only" partitions suggest differing indexing lag.
func checkTemporalDivergence(unified []types.UnifiedRecord) *types.Hypothesis {
	oaOnly := onlyVersus(unified, types.SourceOpenAlex, types.SourceSemanticScholar)
	ssOnly := onlyVersus(unified, types.SourceSemanticScholar, types.SourceOpenAlex)
	if len(oaOnly) == 0 || len(ssOnly) == 0 {
		return nil
	}

	oaMedian := medianYear(oaOnly)
	ssMedian := medianYear(ssOnly)
	if oaMedian == nil || ssMedian == nil {
		return nil
	}

	return &types.Hypothesis{
		Statement: "Sources may have different temporal coverage",
		Evidence: map[string]any{
			"openalex_only_median_year":         *oaMedian,
			"semantic_scholar_only_median_year": *ssMedian,
			"openalex_only_year_range":          yearRange(oaOnly),
			"semantic_scholar_only_year_range":  yearRange(ssOnly),
		},
		Conclusion: fmt.Sprintf(
			"OpenAlex-only papers have median year %.0f, Semantic Scholar-only papers median year %.0f.",
			*oaMedian, *ssMedian),
	}
}

// checkSearchTermEffectiveness: the same query term retrieves different
// result sets from different catalogs.
func checkSearchTermEffectiveness(unified []types.UnifiedRecord) *types.Hypothesis {
	perTerm := make(map[string]map[types.Source]int)
	for _, u := range unified {
		for _, term := range strings.Split(u.SearchTerms, " | ") {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			if perTerm[term] == nil {
				perTerm[term] = make(map[types.Source]int)
			}
			for _, src := range types.AllSources {
				if u.In(src) {
					perTerm[term][src]++
				}
			}
		}
	}
	if len(perTerm) == 0 {
		return nil
	}

	// Stable, serializable evidence shape.
	terms := make([]string, 0, len(perTerm))
	for t := range perTerm {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	cov := make(map[string]map[string]int, len(terms))
	for _, t := range terms {
		counts := make(map[string]int, len(types.AllSources))
		for src, n := range perTerm[t] {
			counts[string(src)] = n
		}
		cov[t] = counts
	}

	return &types.Hypothesis{
		Statement: "Different search terms have different effectiveness across sources",
		Evidence: map[string]any{
			"search_term_coverage": cov,
		},
		Conclusion: "Search API differences mean the same query returns different results across catalogs.",
	}
}

func medianYear(records []types.UnifiedRecord) *float64 {
	var years []int
	for _, u := range records {
		if u.PublicationYear != nil {
			years = append(years, *u.PublicationYear)
		}
	}
	return median(years)
}

func yearRange(records []types.UnifiedRecord) string {
	minYear, maxYear := 0, 0
	for _, u := range records {
		if u.PublicationYear == nil {
			continue
		}
		y := *u.PublicationYear
		if minYear == 0 || y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	if minYear == 0 {
		return ""
	}
	return fmt.Sprintf("%d-%d", minYear, maxYear)
}
