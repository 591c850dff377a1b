// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Policy is one policy topic: the named law or regulation whose literature is
// being collected, plus the search terms used to query the catalogs.
type Policy struct {
	// Name is the full policy name (e.g. "Tax Cuts and Jobs Act").
	Name string `json:"name" yaml:"name"`

	// Abbreviation is the short key used in file names and queries (e.g. "TCJA").
	Abbreviation string `json:"abbreviation" yaml:"abbreviation"`

	// Year is the enactment year, 0 if unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Category is a coarse policy domain label (e.g. "tax", "health").
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// SearchTerms are the query strings sent to each catalog.
	SearchTerms []string `json:"search_terms" yaml:"search_terms"`
}
