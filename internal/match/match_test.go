// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/pdiddy/policy-unify/pkg/types"
)

func rec(source types.Source, title, doi string) types.SourceRecord {
	return types.SourceRecord{Source: source, Title: title, DOIRaw: doi}
}

// groupFingerprints renders the partition as a sorted list of
// order-independent group descriptions, so runs over shuffled input can be
// compared structurally.
func groupFingerprints(t *testing.T, records Records, groups []types.MatchGroup) []string {
	t.Helper()
	var fps []string
	for _, g := range groups {
		var members []string
		for _, ref := range g.Members {
			r := records.At(ref)
			members = append(members, fmt.Sprintf("%s|%s|%s", r.Source, r.Title, r.DOIRaw))
		}
		sort.Strings(members)
		fps = append(fps, string(g.Method)+"::"+strings.Join(members, "::"))
	}
	sort.Strings(fps)
	return fps
}

func TestPartitionProperty(t *testing.T) {
	records := Records{
		types.SourceOpenAlex: {
			rec(types.SourceOpenAlex, "The Impact of Policy", "https://doi.org/10.1/a"),
			rec(types.SourceOpenAlex, "Minimum Wage Effects on Employment", ""),
			rec(types.SourceOpenAlex, "", ""), // no usable keys at all
		},
		types.SourceSemanticScholar: {
			rec(types.SourceSemanticScholar, "the impact of policy!!", ""),
			rec(types.SourceSemanticScholar, "An Unrelated Working Paper", "10.1/a"),
		},
		types.SourceNBER: {
			rec(types.SourceNBER, "Minimum Wage Effects on Employment", ""),
		},
	}

	result, err := Match(records, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	seen := make(map[types.MatchRef]int)
	for _, g := range result.Groups {
		if len(g.Members) == 0 {
			t.Errorf("group %d is empty", g.UnifiedID)
		}
		for _, ref := range g.Members {
			seen[ref]++
		}
	}
	for ref, n := range seen {
		if n != 1 {
			t.Errorf("record %v appears in %d groups, want 1", ref, n)
		}
	}
	if len(seen) != records.Total() {
		t.Errorf("%d records assigned, want %d", len(seen), records.Total())
	}
	if len(result.Registry) != records.Total() {
		t.Errorf("registry has %d entries, want %d", len(result.Registry), records.Total())
	}
}

func TestOrderInvariance(t *testing.T) {
	base := Records{
		types.SourceOpenAlex: {
			rec(types.SourceOpenAlex, "The Impact of Policy", "https://doi.org/10.1/a"),
			rec(types.SourceOpenAlex, "Minimum Wage Effects on Employment", ""),
			rec(types.SourceOpenAlex, "Taxation and Innovation in the Twentieth Century", "10.2/b"),
			rec(types.SourceOpenAlex, "A Fourth Unrelated Study", ""),
		},
		types.SourceSemanticScholar: {
			rec(types.SourceSemanticScholar, "the impact of policy", ""),
			rec(types.SourceSemanticScholar, "Taxation and Innovation in the 20th Century", "doi:10.2/B"),
			rec(types.SourceSemanticScholar, "Minimum Wage Effects on Employment", ""),
		},
		types.SourceNBER: {
			rec(types.SourceNBER, "Minimum Wage Effects on Employment", ""),
			rec(types.SourceNBER, "Some NBER Only Working Paper", ""),
		},
	}

	want, err := Match(base, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	wantFP := groupFingerprints(t, base, want.Groups)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		shuffled := make(Records, len(base))
		for src, recs := range base {
			cp := append([]types.SourceRecord(nil), recs...)
			rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
			shuffled[src] = cp
		}

		got, err := Match(shuffled, 0)
		if err != nil {
			t.Fatalf("Match() on shuffled input: %v", err)
		}
		gotFP := groupFingerprints(t, shuffled, got.Groups)

		if len(gotFP) != len(wantFP) {
			t.Fatalf("trial %d: %d groups, want %d", trial, len(gotFP), len(wantFP))
		}
		for i := range wantFP {
			if gotFP[i] != wantFP[i] {
				t.Errorf("trial %d: group %d = %q, want %q", trial, i, gotFP[i], wantFP[i])
			}
		}
	}
}

func TestDOIPrecedenceOverTitle(t *testing.T) {
	// Same DOI, completely different titles: still one group, via DOI.
	records := Records{
		types.SourceOpenAlex: {
			rec(types.SourceOpenAlex, "Foo Bar", "https://doi.org/10.1/X"),
		},
		types.SourceSemanticScholar: {
			rec(types.SourceSemanticScholar, "Unrelated", "10.1/x"),
		},
	}

	result, err := Match(records, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	g := result.Groups[0]
	if g.Method != types.MatchDOI {
		t.Errorf("method = %q, want %q", g.Method, types.MatchDOI)
	}
	if g.Key != "10.1/x" {
		t.Errorf("key = %q, want %q", g.Key, "10.1/x")
	}
	if len(g.Members) != 2 {
		t.Errorf("len(members) = %d, want 2", len(g.Members))
	}
}

func TestSameSourceDOIGroup(t *testing.T) {
	// A DOI shared by two records of the same catalog still forms a DOI
	// group; catalogs do sometimes return the same work twice.
	records := Records{
		types.SourceOpenAlex: {
			rec(types.SourceOpenAlex, "Version One of a Paper", "10.5/dup"),
			rec(types.SourceOpenAlex, "Version Two of a Paper", "10.5/dup"),
		},
	}

	result, err := Match(records, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if result.Groups[0].Method != types.MatchDOI {
		t.Errorf("method = %q, want doi", result.Groups[0].Method)
	}
}

func TestUniqueDOIFallsThroughToTitlePass(t *testing.T) {
	// A DOI seen once does not pin its record: the record can still merge
	// by title with a DOI-less record from another catalog.
	records := Records{
		types.SourceOpenAlex: {
			rec(types.SourceOpenAlex, "The Impact of Policy", "10.9/only-here"),
		},
		types.SourceNBER: {
			rec(types.SourceNBER, "The Impact of Policy", ""),
		},
	}

	result, err := Match(records, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if result.Groups[0].Method != types.MatchTitle {
		t.Errorf("method = %q, want title", result.Groups[0].Method)
	}
}

func TestCrossSourceTitleRule(t *testing.T) {
	records := Records{
		types.SourceOpenAlex: {
			rec(types.SourceOpenAlex, "The Impact of Policy", ""),
			// Same-source title twin: must NOT merge.
			rec(types.SourceOpenAlex, "A Study of State Tax Reform", ""),
			rec(types.SourceOpenAlex, "A Study of State Tax Reform", ""),
		},
		types.SourceSemanticScholar: {
			rec(types.SourceSemanticScholar, "the impact of policy!!", ""),
		},
	}

	result, err := Match(records, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	var titleGroups, singletons int
	for _, g := range result.Groups {
		switch g.Method {
		case types.MatchTitle:
			titleGroups++
			if len(g.Members) != 2 {
				t.Errorf("title group has %d members, want 2", len(g.Members))
			}
		case types.MatchNone:
			singletons++
			if len(g.Members) != 1 {
				t.Errorf("singleton has %d members, want 1", len(g.Members))
			}
		}
	}
	if titleGroups != 1 {
		t.Errorf("title groups = %d, want 1", titleGroups)
	}
	if singletons != 2 {
		t.Errorf("singletons = %d, want 2 (same-source twins stay apart)", singletons)
	}
}

func TestShortTitleGuard(t *testing.T) {
	// "comment" normalizes to a single token; identical across catalogs but
	// below the token minimum, so no title merge.
	records := Records{
		types.SourceOpenAlex: {
			rec(types.SourceOpenAlex, "Comment", ""),
		},
		types.SourceSemanticScholar: {
			rec(types.SourceSemanticScholar, "Comment!", ""),
		},
	}

	result, err := Match(records, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(result.Groups))
	}
	for _, g := range result.Groups {
		if g.Method != types.MatchNone {
			t.Errorf("method = %q, want none", g.Method)
		}
	}
}

func TestSingletonScenario(t *testing.T) {
	records := Records{
		types.SourceNBER: {
			rec(types.SourceNBER, "A Perfectly Unique Working Paper Title", ""),
		},
	}

	result, err := Match(records, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	g := result.Groups[0]
	if g.Method != types.MatchNone {
		t.Errorf("method = %q, want none", g.Method)
	}
	if g.Members[0].Source != types.SourceNBER || g.Members[0].Index != 0 {
		t.Errorf("member = %+v, want nber/0", g.Members[0])
	}
}

func TestEmptyAndMissingCollections(t *testing.T) {
	result, err := Match(Records{}, 0)
	if err != nil {
		t.Fatalf("Match() on empty universe: %v", err)
	}
	if len(result.Groups) != 0 || len(result.Registry) != 0 {
		t.Errorf("empty universe produced %d groups, %d registry entries",
			len(result.Groups), len(result.Registry))
	}

	// One populated catalog, the others absent.
	result, err = Match(Records{
		types.SourceSemanticScholar: {
			rec(types.SourceSemanticScholar, "A Lone Semantic Scholar Record", ""),
		},
	}, 0)
	if err != nil {
		t.Fatalf("Match() with missing collections: %v", err)
	}
	if len(result.Groups) != 1 {
		t.Errorf("got %d groups, want 1", len(result.Groups))
	}
}

func TestRegistryCarriesKeys(t *testing.T) {
	records := Records{
		types.SourceOpenAlex: {
			rec(types.SourceOpenAlex, "The Impact of Policy", "https://doi.org/10.1/a"),
		},
		types.SourceNBER: {
			rec(types.SourceNBER, "The Impact of Policy", "10.1/a"),
		},
	}

	result, err := Match(records, 0)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if len(result.Registry) != 2 {
		t.Fatalf("registry has %d entries, want 2", len(result.Registry))
	}
	for _, e := range result.Registry {
		if e.DOIKey != "10.1/a" {
			t.Errorf("doi key = %q, want 10.1/a", e.DOIKey)
		}
		if e.TitleKey != "the impact of policy" {
			t.Errorf("title key = %q, want %q", e.TitleKey, "the impact of policy")
		}
		if e.Method != types.MatchDOI {
			t.Errorf("method = %q, want doi", e.Method)
		}
	}
}

func TestVerifyPartitionCatchesDuplicates(t *testing.T) {
	records := Records{
		types.SourceOpenAlex: {rec(types.SourceOpenAlex, "One Paper Title Here", "")},
	}
	ref := types.MatchRef{Source: types.SourceOpenAlex, Index: 0}
	groups := []types.MatchGroup{
		{UnifiedID: 0, Method: types.MatchNone, Members: []types.MatchRef{ref}},
		{UnifiedID: 1, Method: types.MatchNone, Members: []types.MatchRef{ref}},
	}

	err := verifyPartition(records, groups)
	if !errors.Is(err, ErrPartitionViolated) {
		t.Errorf("err = %v, want ErrPartitionViolated", err)
	}

	if err := verifyPartition(records, nil); !errors.Is(err, ErrPartitionViolated) {
		t.Errorf("err = %v, want ErrPartitionViolated for unassigned record", err)
	}
}
