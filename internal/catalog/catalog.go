// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog fetches raw bibliographic records for a policy topic from
// the three catalogs (OpenAlex, Semantic Scholar, NBER). Each catalog
// implements the Catalog interface per the Strategy pattern; FetchAll fans
// out across them and tolerates individual catalog failures.
//
// See docs/ARCHITECTURE.md § Catalog Clients.
package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/policy-unify/pkg/types"
)

// Catalog fetches all records one source reports for a policy topic. Each
// search term of the policy is queried separately; records returned by more
// than one term are deduplicated on the source-local ID, keeping the term
// that first retrieved them.
type Catalog interface {
	Name() types.Source
	Fetch(ctx context.Context, pol types.Policy, cfg types.FetchConfig) ([]types.SourceRecord, error)
}

// FetchOutput holds the collections for one policy topic plus any per-catalog
// failures, which are non-fatal: a failed catalog contributes an empty
// collection and downstream counts for it are zero.
type FetchOutput struct {
	Collections   map[types.Source][]types.SourceRecord
	CatalogErrors []string
}

// FetchAll queries every catalog for one policy topic concurrently and
// reports per-catalog progress and warnings to w.
func FetchAll(ctx context.Context, catalogs []Catalog, pol types.Policy, cfg types.FetchConfig, w io.Writer) FetchOutput {
	type result struct {
		source  types.Source
		records []types.SourceRecord
		err     error
	}

	ch := make(chan result, len(catalogs))
	var wg sync.WaitGroup

	for _, c := range catalogs {
		wg.Add(1)
		go func(c Catalog) {
			defer wg.Done()
			records, err := c.Fetch(ctx, pol, cfg)
			ch <- result{source: c.Name(), records: records, err: err}
		}(c)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	out := FetchOutput{Collections: make(map[types.Source][]types.SourceRecord)}
	for r := range ch {
		if r.err != nil {
			msg := fmt.Sprintf("%s: %v", r.source, r.err)
			out.CatalogErrors = append(out.CatalogErrors, msg)
			fmt.Fprintf(w, "warning: catalog %s failed for %s: %v\n", r.source, pol.Abbreviation, r.err)
			continue
		}
		out.Collections[r.source] = r.records
		fmt.Fprintf(w, "fetched %s: %d records for %s\n", r.source, len(r.records), pol.Abbreviation)
	}
	return out
}

// stampPolicy fills the policy metadata columns on a fetched record.
func stampPolicy(rec *types.SourceRecord, pol types.Policy, term string) {
	rec.SearchTerm = term
	rec.PolicyName = pol.Name
	rec.PolicyAbbreviation = pol.Abbreviation
	rec.PolicyCategory = pol.Category
	if pol.Year > 0 {
		year := pol.Year
		rec.PolicyYear = &year
	}
}

// dedupeByID drops records whose source-local ID was already seen in an
// earlier search term's results. Records without an ID are kept as-is.
func dedupeByID(records []types.SourceRecord) []types.SourceRecord {
	seen := make(map[string]bool)
	var out []types.SourceRecord
	for _, r := range records {
		if r.SourceID != "" {
			if seen[r.SourceID] {
				continue
			}
			seen[r.SourceID] = true
		}
		out = append(out, r)
	}
	return out
}

// joinAuthors renders an author name list in the pipe-joined storage format.
func joinAuthors(names []string) string {
	var kept []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, " | ")
}

func intPtr(n int) *int { return &n }
