// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coverage computes overlap statistics over the unified dataset and
// generates evidence-backed hypotheses about why the catalogs diverge. All
// statistics are defined on empty inputs: zero counts, nil medians, never a
// division by zero.
//
// See docs/ARCHITECTURE.md § Coverage Analysis.
package coverage

import (
	"math"
	"sort"

	"github.com/pdiddy/policy-unify/pkg/types"
)

// DefaultSampleTitles is how many example titles a partition profile carries.
const DefaultSampleTitles = 5

const topVenueCount = 5

// sourcePairs lists the unordered catalog pairs compared, in report order.
var sourcePairs = [][2]types.Source{
	{types.SourceOpenAlex, types.SourceSemanticScholar},
	{types.SourceOpenAlex, types.SourceNBER},
	{types.SourceSemanticScholar, types.SourceNBER},
}

// Analyze computes the full coverage report for one policy topic: overall
// counts, one comparison block per source pair, and the hypothesis list.
// sampleTitles <= 0 selects the default.
func Analyze(policyAbbr string, unified []types.UnifiedRecord, sampleTitles int) types.CoverageReport {
	if sampleTitles <= 0 {
		sampleTitles = DefaultSampleTitles
	}

	report := types.CoverageReport{
		PolicyAbbreviation: policyAbbr,
		Overall:            overallStats(unified),
	}

	for _, pair := range sourcePairs {
		report.Pairwise = append(report.Pairwise, comparePair(unified, pair[0], pair[1], sampleTitles))
	}

	report.Hypotheses = hypotheses(unified)
	return report
}

func overallStats(unified []types.UnifiedRecord) types.OverallStats {
	stats := types.OverallStats{
		TotalUnified: len(unified),
		PerSource:    make(map[types.Source]int),
		MethodCounts: make(map[types.MatchMethod]int),
	}
	for _, src := range types.AllSources {
		stats.PerSource[src] = 0
	}

	for i := range unified {
		u := &unified[i]
		for _, src := range types.AllSources {
			if u.In(src) {
				stats.PerSource[src]++
			}
		}
		switch u.SourceCount() {
		case 1:
			stats.InExactlyOne++
		case 2:
			stats.InExactlyTwo++
		case 3:
			stats.InAllThree++
		}
		if u.Abstract != "" {
			stats.WithAbstract++
		}
		if u.DOI != "" {
			stats.WithDOI++
		}
		stats.MethodCounts[u.Method]++
	}
	return stats
}

func comparePair(unified []types.UnifiedRecord, a, b types.Source, sampleTitles int) types.PairComparison {
	var onlyA, onlyB []types.UnifiedRecord
	cmp := types.PairComparison{SourceA: a, SourceB: b}

	for i := range unified {
		u := unified[i]
		switch {
		case u.In(a) && u.In(b):
			cmp.Both++
		case u.In(a):
			onlyA = append(onlyA, u)
		case u.In(b):
			onlyB = append(onlyB, u)
		}
	}

	cmp.OnlyA = len(onlyA)
	cmp.OnlyB = len(onlyB)
	cmp.ProfileA = profile(onlyA, sampleTitles)
	cmp.ProfileB = profile(onlyB, sampleTitles)
	return cmp
}

// profile summarizes one "only" partition. An empty partition yields zero
// counts and a nil median.
func profile(records []types.UnifiedRecord, sampleTitles int) types.PartitionProfile {
	p := types.PartitionProfile{Count: len(records)}
	if len(records) == 0 {
		return p
	}

	withAbstract, withDOI := 0, 0
	var citations []int
	venues := make(map[string]int)
	years := make(map[int]int)

	for _, u := range records {
		if u.Abstract != "" {
			withAbstract++
		}
		if u.DOI != "" {
			withDOI++
		}
		if u.CitedByCount != nil {
			citations = append(citations, *u.CitedByCount)
		}
		if u.Venue != "" {
			venues[u.Venue]++
		}
		if u.PublicationYear != nil {
			years[*u.PublicationYear]++
		}
		if len(p.SampleTitles) < sampleTitles && u.Title != "" {
			p.SampleTitles = append(p.SampleTitles, u.Title)
		}
	}

	p.PctWithAbstract = pct(withAbstract, len(records))
	p.PctWithDOI = pct(withDOI, len(records))
	p.MedianCitations = median(citations)
	p.TopVenues = topVenues(venues, topVenueCount)
	if len(years) > 0 {
		p.YearCounts = years
	}
	return p
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(100 * float64(n) / float64(total))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// median returns the median of present values, nil when there are none.
func median(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	var m float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		m = float64(sorted[mid])
	} else {
		m = float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return &m
}

// topVenues ranks venues by frequency, ties broken alphabetically so the
// output is deterministic.
func topVenues(counts map[string]int, n int) []types.VenueCount {
	ranked := make([]types.VenueCount, 0, len(counts))
	for venue, count := range counts {
		ranked = append(ranked, types.VenueCount{Venue: venue, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Venue < ranked[j].Venue
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
