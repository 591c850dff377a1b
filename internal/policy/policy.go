// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package policy loads the policy topic list that drives the pipeline.
package policy

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/policy-unify/pkg/types"
)

// policiesFile is the YAML shape of policies.yaml.
type policiesFile struct {
	Policies []entry `yaml:"policies"`
}

type entry struct {
	Name         string `yaml:"name"`
	Abbreviation string `yaml:"abbreviation"`
	Year         int    `yaml:"year"`
	Category     string `yaml:"category"`
	// SearchTerms is pipe-joined, matching the upstream policies list format.
	SearchTerms string `yaml:"search_terms"`
}

// Load reads policies.yaml. Every policy needs an abbreviation and at least
// one search term; the abbreviation doubles as the search term when none
// are given.
func Load(path string) ([]types.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policies file %s: %w", path, err)
	}

	var f policiesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing policies file %s: %w", path, err)
	}
	if len(f.Policies) == 0 {
		return nil, fmt.Errorf("policies file %s lists no policies", path)
	}

	policies := make([]types.Policy, 0, len(f.Policies))
	for i, e := range f.Policies {
		if e.Abbreviation == "" {
			return nil, fmt.Errorf("policies file %s: entry %d has no abbreviation", path, i)
		}
		p := types.Policy{
			Name:         e.Name,
			Abbreviation: e.Abbreviation,
			Year:         e.Year,
			Category:     e.Category,
			SearchTerms:  splitTerms(e.SearchTerms),
		}
		if len(p.SearchTerms) == 0 {
			p.SearchTerms = []string{e.Abbreviation}
		}
		policies = append(policies, p)
	}
	return policies, nil
}

// Select filters policies down to the requested abbreviations. An empty
// request selects everything. Unknown abbreviations are an error so a typo
// does not silently process nothing.
func Select(policies []types.Policy, abbrs []string) ([]types.Policy, error) {
	if len(abbrs) == 0 {
		return policies, nil
	}

	byAbbr := make(map[string]types.Policy, len(policies))
	for _, p := range policies {
		byAbbr[p.Abbreviation] = p
	}

	selected := make([]types.Policy, 0, len(abbrs))
	for _, a := range abbrs {
		p, ok := byAbbr[a]
		if !ok {
			return nil, fmt.Errorf("unknown policy abbreviation %q", a)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

func splitTerms(s string) []string {
	var terms []string
	for _, t := range strings.Split(s, "|") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
