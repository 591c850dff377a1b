// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceQuality holds per-catalog completeness metrics for one policy topic,
// computed over the raw (pre-merge) source collection.
type SourceQuality struct {
	Source          Source   `json:"source" yaml:"source"`
	TotalRecords    int      `json:"total_records" yaml:"total_records"`
	PctWithAbstract float64  `json:"pct_with_abstract" yaml:"pct_with_abstract"`
	PctWithDOI      float64  `json:"pct_with_doi" yaml:"pct_with_doi"`
	PctWithOAURL    float64  `json:"pct_with_oa_url" yaml:"pct_with_oa_url"`
	YearRange       string   `json:"year_range,omitempty" yaml:"year_range,omitempty"`
	MedianCitations *float64 `json:"median_citations,omitempty" yaml:"median_citations,omitempty"`
}

// PartitionProfile describes one "only in A" (or "only in B") partition of a
// pairwise comparison. All statistics are defined-but-vacuous when the
// partition is empty: zero counts, nil median, empty maps.
type PartitionProfile struct {
	Count           int            `json:"count" yaml:"count"`
	PctWithAbstract float64        `json:"pct_with_abstract" yaml:"pct_with_abstract"`
	PctWithDOI      float64        `json:"pct_with_doi" yaml:"pct_with_doi"`
	MedianCitations *float64       `json:"median_citations,omitempty" yaml:"median_citations,omitempty"`
	TopVenues       []VenueCount   `json:"top_venues,omitempty" yaml:"top_venues,omitempty"`
	YearCounts      map[int]int    `json:"year_counts,omitempty" yaml:"year_counts,omitempty"`
	SampleTitles    []string       `json:"sample_titles,omitempty" yaml:"sample_titles,omitempty"`
}

// VenueCount is one venue-frequency pair, used for top-venue rankings.
type VenueCount struct {
	Venue string `json:"venue" yaml:"venue"`
	Count int    `json:"count" yaml:"count"`
}

// PairComparison holds the overlap statistics for one unordered source pair.
type PairComparison struct {
	SourceA Source `json:"source_a" yaml:"source_a"`
	SourceB Source `json:"source_b" yaml:"source_b"`

	OnlyA int `json:"only_a" yaml:"only_a"`
	OnlyB int `json:"only_b" yaml:"only_b"`
	Both  int `json:"both" yaml:"both"`

	ProfileA PartitionProfile `json:"profile_a" yaml:"profile_a"`
	ProfileB PartitionProfile `json:"profile_b" yaml:"profile_b"`
}

// Hypothesis is one ranked explanation for observed coverage divergence,
// backed by computed evidence. The analyzer never fabricates evidence: a
// check whose required partition is empty is skipped entirely.
type Hypothesis struct {
	Statement  string         `json:"statement" yaml:"statement"`
	Evidence   map[string]any `json:"evidence" yaml:"evidence"`
	Conclusion string         `json:"conclusion" yaml:"conclusion"`
}

// OverallStats summarizes the unified dataset for one policy topic.
type OverallStats struct {
	TotalUnified  int            `json:"total_unified" yaml:"total_unified"`
	PerSource     map[Source]int `json:"per_source" yaml:"per_source"`
	InAllThree    int            `json:"in_all_three" yaml:"in_all_three"`
	InExactlyOne  int            `json:"in_exactly_one" yaml:"in_exactly_one"`
	InExactlyTwo  int            `json:"in_exactly_two" yaml:"in_exactly_two"`
	WithAbstract  int            `json:"with_abstract" yaml:"with_abstract"`
	WithDOI       int            `json:"with_doi" yaml:"with_doi"`
	MethodCounts  map[MatchMethod]int `json:"method_counts" yaml:"method_counts"`
}

// CoverageReport is the full analysis output for one policy topic: overall
// counts, pairwise comparison blocks, and the hypothesis list. Derived,
// read-only, recomputed from scratch each run. The core emits only this
// structured form; rendering to Markdown lives in internal/report.
type CoverageReport struct {
	PolicyAbbreviation string           `json:"policy_abbreviation" yaml:"policy_abbreviation"`
	Overall            OverallStats     `json:"overall" yaml:"overall"`
	Pairwise           []PairComparison `json:"pairwise" yaml:"pairwise"`
	Hypotheses         []Hypothesis     `json:"hypotheses" yaml:"hypotheses"`
}
