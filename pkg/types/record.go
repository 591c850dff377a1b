// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the policy-unify pipeline:
// SourceRecord (one catalog row), MatchGroup (an equivalence class of rows
// judged to be the same paper), UnifiedRecord (the merged canonical row), and
// the coverage analysis output.
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

// Source identifies one of the three catalogs supplying records for a policy
// topic. The declaration order is the fixed priority order used for merge
// tie-breaks and deterministic group ordering.
type Source string

const (
	SourceOpenAlex        Source = "openalex"
	SourceSemanticScholar Source = "semantic_scholar"
	SourceNBER            Source = "nber"
)

// AllSources lists the catalogs in priority order.
var AllSources = []Source{SourceOpenAlex, SourceSemanticScholar, SourceNBER}

// Priority returns the source's rank in the fixed priority order (0 is
// highest). Unknown sources sort last.
func (s Source) Priority() int {
	for i, src := range AllSources {
		if s == src {
			return i
		}
	}
	return len(AllSources)
}

// SourceRecord is one bibliographic record exactly as reported by one catalog.
// It is immutable once loaded. Empty strings and nil pointers mean the catalog
// did not report the field; they are never backfilled with fabricated values.
type SourceRecord struct {
	// Source identifies the catalog that reported this record.
	Source Source `json:"source" yaml:"source"`

	// SourceID is the catalog-local identifier (OpenAlex work ID, Semantic
	// Scholar paper ID, NBER working paper number). May be empty.
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	// Title is the paper title as reported.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract, possibly empty.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// AbstractSource records where a recovered abstract came from when an
	// upstream recovery stage filled it in (e.g. "crossref_api"). Empty when
	// the abstract is the catalog's own.
	AbstractSource string `json:"abstract_source,omitempty" yaml:"abstract_source,omitempty"`

	// DOIRaw is the DOI string exactly as reported, possibly a full
	// https://doi.org/ URL. Empty if the catalog reported none.
	DOIRaw string `json:"doi_raw,omitempty" yaml:"doi_raw,omitempty"`

	// Authors is the pipe-joined author list.
	Authors string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// AuthorCount is the number of authors, nil if unknown.
	AuthorCount *int `json:"author_count,omitempty" yaml:"author_count,omitempty"`

	// PublicationYear is nil if unknown.
	PublicationYear *int `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`

	// PublicationDate is an ISO date string (YYYY-MM-DD), empty if unknown.
	PublicationDate string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// Venue is the journal, series, or repository name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitedByCount is nil if the catalog does not report citations.
	CitedByCount *int `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`

	// OpenAccessURL is a free full-text link, empty if none.
	OpenAccessURL string `json:"open_access_url,omitempty" yaml:"open_access_url,omitempty"`

	// SearchTerm is the query term that retrieved this record.
	SearchTerm string `json:"search_term,omitempty" yaml:"search_term,omitempty"`

	// Policy metadata carried through from the query, expected to agree
	// across catalogs for the same topic.
	PolicyName         string `json:"policy_name,omitempty" yaml:"policy_name,omitempty"`
	PolicyYear         *int   `json:"policy_year,omitempty" yaml:"policy_year,omitempty"`
	PolicyAbbreviation string `json:"policy_abbreviation,omitempty" yaml:"policy_abbreviation,omitempty"`
	PolicyCategory     string `json:"policy_category,omitempty" yaml:"policy_category,omitempty"`
}

// MatchMethod records how a MatchGroup was formed.
type MatchMethod string

const (
	// MatchDOI groups records sharing a normalized DOI.
	MatchDOI MatchMethod = "doi"
	// MatchTitle groups records from distinct sources sharing a normalized title.
	MatchTitle MatchMethod = "title"
	// MatchNone marks a singleton group.
	MatchNone MatchMethod = "none"
)

// MatchRef points at one SourceRecord by its position in its source collection.
type MatchRef struct {
	Source Source `json:"source" yaml:"source"`
	Index  int    `json:"source_index" yaml:"source_index"`
}

// MatchGroup is one equivalence class of records judged to denote the same
// paper. Groups partition the full record universe: every record belongs to
// exactly one group. Immutable once the matcher returns.
type MatchGroup struct {
	// UnifiedID is the canonical identity assigned to this group. IDs are
	// recomputed each run and are deterministic for a given record universe.
	UnifiedID int `json:"unified_id" yaml:"unified_id"`

	// Method is how the group was formed.
	Method MatchMethod `json:"match_method" yaml:"match_method"`

	// Key is the normalized DOI or title key the group was formed on, empty
	// for singletons without one.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Members are ordered by source priority, then source index.
	Members []MatchRef `json:"members" yaml:"members"`
}

// RegistryEntry is one row of the match registry: the audit trail mapping a
// SourceRecord to its unified identity.
type RegistryEntry struct {
	UnifiedID   int         `json:"unified_id" yaml:"unified_id"`
	Source      Source      `json:"source" yaml:"source"`
	SourceIndex int         `json:"source_index" yaml:"source_index"`
	Method      MatchMethod `json:"match_method" yaml:"match_method"`
	DOIKey      string      `json:"doi_key,omitempty" yaml:"doi_key,omitempty"`
	TitleKey    string      `json:"title_key,omitempty" yaml:"title_key,omitempty"`
}

// UnifiedRecord is the single canonical row produced from one MatchGroup.
// Field values follow the documented conflict-resolution rules in
// internal/merge. Never mutated after creation.
type UnifiedRecord struct {
	UnifiedID int `json:"unified_id" yaml:"unified_id"`

	Title           string `json:"title" yaml:"title"`
	NormalizedTitle string `json:"normalized_title,omitempty" yaml:"normalized_title,omitempty"`

	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	// AbstractSource is the catalog (or upstream recovery source) the merged
	// abstract came from.
	AbstractSource string `json:"abstract_source,omitempty" yaml:"abstract_source,omitempty"`

	DOI           string `json:"doi,omitempty" yaml:"doi,omitempty"`
	OpenAccessURL string `json:"open_access_url,omitempty" yaml:"open_access_url,omitempty"`

	Authors         string `json:"authors,omitempty" yaml:"authors,omitempty"`
	AuthorCount     *int   `json:"author_count,omitempty" yaml:"author_count,omitempty"`
	PublicationYear *int   `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	PublicationDate string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	Venue           string `json:"venue,omitempty" yaml:"venue,omitempty"`
	CitedByCount    *int   `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`

	// SearchTerms is the sorted, pipe-joined union of the search terms that
	// retrieved the group's members.
	SearchTerms string `json:"search_terms,omitempty" yaml:"search_terms,omitempty"`

	// Presence flags, one per catalog.
	InOpenAlex        bool `json:"in_openalex" yaml:"in_openalex"`
	InSemanticScholar bool `json:"in_semantic_scholar" yaml:"in_semantic_scholar"`
	InNBER            bool `json:"in_nber" yaml:"in_nber"`

	Method MatchMethod `json:"match_method" yaml:"match_method"`

	// Per-catalog local identifiers, empty when the catalog is not present.
	OpenAlexID        string `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`
	SemanticScholarID string `json:"semantic_scholar_id,omitempty" yaml:"semantic_scholar_id,omitempty"`
	NBERID            string `json:"nber_id,omitempty" yaml:"nber_id,omitempty"`

	PolicyName         string `json:"policy_name,omitempty" yaml:"policy_name,omitempty"`
	PolicyYear         *int   `json:"policy_year,omitempty" yaml:"policy_year,omitempty"`
	PolicyAbbreviation string `json:"policy_abbreviation,omitempty" yaml:"policy_abbreviation,omitempty"`
	PolicyCategory     string `json:"policy_category,omitempty" yaml:"policy_category,omitempty"`
}

// In reports whether the record is present in the given catalog.
func (u *UnifiedRecord) In(s Source) bool {
	switch s {
	case SourceOpenAlex:
		return u.InOpenAlex
	case SourceSemanticScholar:
		return u.InSemanticScholar
	case SourceNBER:
		return u.InNBER
	}
	return false
}

// SourceCount returns how many catalogs carry the record.
func (u *UnifiedRecord) SourceCount() int {
	n := 0
	for _, s := range AllSources {
		if u.In(s) {
			n++
		}
	}
	return n
}
