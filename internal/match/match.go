// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match partitions the per-catalog record collections into
// equivalence classes of records that denote the same paper. Matching is
// exact-key only: a DOI pass followed by a title pass, no similarity
// scoring. The resulting partition is invariant to the row order of the
// input collections.
//
// See docs/ARCHITECTURE.md § Matching.
package match

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pdiddy/policy-unify/internal/normalize"
	"github.com/pdiddy/policy-unify/pkg/types"
)

// ErrPartitionViolated reports a record mapped to zero or more than one
// group. This is a programming-error condition, not a data condition; the
// run for the affected policy topic must abort rather than produce a wrong
// dataset.
var ErrPartitionViolated = errors.New("match groups do not partition the record universe")

// DefaultMinTitleTokens is the minimum number of normalized title tokens a
// record needs to participate in title-pass grouping. Short generic titles
// ("introduction", "comment") collide across unrelated papers.
const DefaultMinTitleTokens = 3

// Result holds the partition and its flat audit registry.
type Result struct {
	// Groups partition the full record universe. Ordered by unified ID.
	Groups []types.MatchGroup

	// Registry has one entry per source record, ordered by unified ID then
	// member order.
	Registry []types.RegistryEntry
}

// Records makes collections addressable by MatchRef.
type Records map[types.Source][]types.SourceRecord

// At returns the record a ref points to.
func (r Records) At(ref types.MatchRef) types.SourceRecord {
	return r[ref.Source][ref.Index]
}

// Total returns the number of records across all collections.
func (r Records) Total() int {
	n := 0
	for _, recs := range r {
		n += len(recs)
	}
	return n
}

// Match builds the partition. A missing or empty collection is valid and
// simply contributes no records. minTitleTokens <= 0 selects the default.
//
// Construction is two-pass:
//
//  1. DOI pass: all records sharing a non-empty normalized DOI form one
//     group (match_method "doi") when at least two records carry the key,
//     regardless of how many catalogs they come from. A key seen once
//     falls through to the title pass.
//  2. Title pass: among remaining records with at least minTitleTokens
//     normalized title tokens, records sharing a title key across two or
//     more distinct catalogs form one group (match_method "title"). A key
//     confined to a single catalog does not merge its records.
//
// Everything else becomes its own singleton group (match_method "none").
// Unified IDs are assigned from the sorted group keys, so the same record
// universe always yields the same identities whatever the input row order.
func Match(records Records, minTitleTokens int) (Result, error) {
	if minTitleTokens <= 0 {
		minTitleTokens = DefaultMinTitleTokens
	}

	doiKeys := make(map[types.MatchRef]string)
	titleKeys := make(map[types.MatchRef]string)
	doiBuckets := make(map[string][]types.MatchRef)

	forEachRef(records, func(ref types.MatchRef, rec types.SourceRecord) {
		doiKeys[ref] = normalize.DOIKey(rec.DOIRaw)
		titleKeys[ref] = normalize.TitleKey(rec.Title)
		if k := doiKeys[ref]; k != "" {
			doiBuckets[k] = append(doiBuckets[k], ref)
		}
	})

	consumed := make(map[types.MatchRef]bool)
	var doiGroups, titleGroups, singletons []types.MatchGroup

	// DOI pass.
	for _, key := range sortedKeys(doiBuckets) {
		refs := doiBuckets[key]
		if len(refs) < 2 {
			continue
		}
		sortRefs(refs)
		doiGroups = append(doiGroups, types.MatchGroup{
			Method:  types.MatchDOI,
			Key:     key,
			Members: refs,
		})
		for _, ref := range refs {
			consumed[ref] = true
		}
	}

	// Title pass over the remainder.
	titleBuckets := make(map[string][]types.MatchRef)
	forEachRef(records, func(ref types.MatchRef, _ types.SourceRecord) {
		if consumed[ref] {
			return
		}
		key := titleKeys[ref]
		if normalize.TokenCount(key) < minTitleTokens {
			return
		}
		titleBuckets[key] = append(titleBuckets[key], ref)
	})

	for _, key := range sortedKeys(titleBuckets) {
		refs := titleBuckets[key]
		if !spansSources(refs) {
			continue
		}
		sortRefs(refs)
		titleGroups = append(titleGroups, types.MatchGroup{
			Method:  types.MatchTitle,
			Key:     key,
			Members: refs,
		})
		for _, ref := range refs {
			consumed[ref] = true
		}
	}

	// Remainder: singletons, including records with no usable title key.
	forEachRef(records, func(ref types.MatchRef, _ types.SourceRecord) {
		if consumed[ref] {
			return
		}
		singletons = append(singletons, types.MatchGroup{
			Method:  types.MatchNone,
			Key:     titleKeys[ref],
			Members: []types.MatchRef{ref},
		})
		consumed[ref] = true
	})

	groups := append(append(doiGroups, titleGroups...), singletons...)
	for i := range groups {
		groups[i].UnifiedID = i
	}

	if err := verifyPartition(records, groups); err != nil {
		return Result{}, err
	}

	return Result{Groups: groups, Registry: buildRegistry(groups, doiKeys, titleKeys)}, nil
}

// forEachRef visits every record in deterministic order: catalogs in
// priority order, indices ascending.
func forEachRef(records Records, fn func(types.MatchRef, types.SourceRecord)) {
	for _, src := range types.AllSources {
		for i, rec := range records[src] {
			fn(types.MatchRef{Source: src, Index: i}, rec)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortRefs orders group members by source priority, then index.
func sortRefs(refs []types.MatchRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Source != refs[j].Source {
			return refs[i].Source.Priority() < refs[j].Source.Priority()
		}
		return refs[i].Index < refs[j].Index
	})
}

// spansSources reports whether refs cover at least two distinct catalogs.
func spansSources(refs []types.MatchRef) bool {
	for _, ref := range refs[1:] {
		if ref.Source != refs[0].Source {
			return true
		}
	}
	return false
}

// verifyPartition checks the partition invariant: every record in exactly
// one group, no group empty.
func verifyPartition(records Records, groups []types.MatchGroup) error {
	seen := make(map[types.MatchRef]int)
	for _, g := range groups {
		if len(g.Members) == 0 {
			return fmt.Errorf("%w: group %d has no members", ErrPartitionViolated, g.UnifiedID)
		}
		for _, ref := range g.Members {
			seen[ref]++
			if seen[ref] > 1 {
				return fmt.Errorf("%w: record %s/%d assigned to multiple groups",
					ErrPartitionViolated, ref.Source, ref.Index)
			}
		}
	}

	total := records.Total()
	if len(seen) != total {
		return fmt.Errorf("%w: %d of %d records assigned", ErrPartitionViolated, len(seen), total)
	}
	return nil
}

func buildRegistry(groups []types.MatchGroup, doiKeys, titleKeys map[types.MatchRef]string) []types.RegistryEntry {
	var registry []types.RegistryEntry
	for _, g := range groups {
		for _, ref := range g.Members {
			registry = append(registry, types.RegistryEntry{
				UnifiedID:   g.UnifiedID,
				Source:      ref.Source,
				SourceIndex: ref.Index,
				Method:      g.Method,
				DOIKey:      doiKeys[ref],
				TitleKey:    titleKeys[ref],
			})
		}
	}
	return registry
}
