package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "policy-unify/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the catalog fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResultsPerTerm caps how many records one search term may return
	// from one catalog (default 1000).
	MaxResultsPerTerm int `json:"max_results_per_term" yaml:"max_results_per_term"`

	// PerPage is the page size for paginated catalog APIs (default 100).
	PerPage int `json:"per_page" yaml:"per_page"`

	// InterRequestDelay is the delay between consecutive API calls to the
	// same catalog (default 1s).
	InterRequestDelay time.Duration `json:"inter_request_delay" yaml:"inter_request_delay"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
}

// UnifyConfig holds settings for the match/merge/coverage stage.
type UnifyConfig struct {
	// AbstractPriority is the ordered list of catalogs scanned when
	// resolving the merged abstract. Defaults to the fixed source priority
	// order when empty. Expressed as configuration so the selection policy
	// is auditable and testable in isolation.
	AbstractPriority []Source `json:"abstract_priority,omitempty" yaml:"abstract_priority,omitempty"`

	// MinTitleTokens is the minimum number of normalized title tokens a
	// record needs to participate in title-pass grouping (default 3).
	// Guards against false merges of generic short titles.
	MinTitleTokens int `json:"min_title_tokens" yaml:"min_title_tokens"`

	// MaxConcurrentPolicies bounds the fan-out across policy topics
	// (default 4). Topics are independent; there is no shared state.
	MaxConcurrentPolicies int `json:"max_concurrent_policies" yaml:"max_concurrent_policies"`
}

// StoreConfig holds settings for the SQLite record store.
type StoreConfig struct {
	// DataDir is the base directory for the database and CSV exports
	// (contains index/, unified/).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ReportConfig holds settings for report rendering.
type ReportConfig struct {
	// ReportsDir is the directory Markdown and YAML reports are written to.
	ReportsDir string `json:"reports_dir" yaml:"reports_dir"`

	// SampleTitleCount is how many example titles each partition profile
	// carries (default 5).
	SampleTitleCount int `json:"sample_title_count" yaml:"sample_title_count"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch"`
	Unify  UnifyConfig  `json:"unify" yaml:"unify"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Report ReportConfig `json:"report" yaml:"report"`
}
