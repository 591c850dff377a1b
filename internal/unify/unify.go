// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package unify orchestrates the per-policy pipeline: load source records,
// match them into equivalence classes, merge each class into a unified
// record, analyze coverage, and persist the results.
//
// See docs/ARCHITECTURE.md § Pipeline.
package unify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdiddy/policy-unify/internal/coverage"
	"github.com/pdiddy/policy-unify/internal/match"
	"github.com/pdiddy/policy-unify/internal/merge"
	"github.com/pdiddy/policy-unify/internal/store"
	"github.com/pdiddy/policy-unify/pkg/types"
)

const defaultMaxConcurrent = 4

// Result summarizes one policy topic's unification run.
type Result struct {
	PolicyAbbreviation string
	SourceTotal        int
	UnifiedTotal       int
	CSVPath            string
	RegistryCSVPath    string
	Report             types.CoverageReport
}

// Pipeline runs match, merge, and coverage analysis over stored source
// records. Safe for concurrent use across distinct policy topics.
type Pipeline struct {
	Store *store.Store
	Cfg   types.PipelineConfig
}

// Run unifies one policy topic: it loads the stored source collections,
// partitions them into match groups, merges each group, saves the unified
// dataset and match registry, exports CSV, and returns the coverage report.
func (p *Pipeline) Run(ctx context.Context, abbr string, w io.Writer) (Result, error) {
	collections, err := p.Store.LoadSourceRecords(ctx, abbr)
	if err != nil {
		return Result{}, fmt.Errorf("loading source records for %s: %w", abbr, err)
	}

	records := match.Records(collections)
	fmt.Fprintf(w, "unifying %s: %d source records\n", abbr, records.Total())

	matched, err := match.Match(records, p.Cfg.Unify.MinTitleTokens)
	if err != nil {
		return Result{}, fmt.Errorf("matching %s: %w", abbr, err)
	}

	unified, err := merge.Merge(records, matched.Groups, p.Cfg.Unify.AbstractPriority)
	if err != nil {
		return Result{}, fmt.Errorf("merging %s: %w", abbr, err)
	}

	if err := p.Store.SaveUnified(ctx, abbr, unified, matched.Registry); err != nil {
		return Result{}, fmt.Errorf("saving unified records for %s: %w", abbr, err)
	}

	csvPath, err := p.Store.ExportCSV(ctx, abbr)
	if err != nil {
		return Result{}, fmt.Errorf("exporting CSV for %s: %w", abbr, err)
	}

	registryPath, err := p.Store.ExportRegistryCSV(ctx, abbr)
	if err != nil {
		return Result{}, fmt.Errorf("exporting match registry for %s: %w", abbr, err)
	}

	report := coverage.Analyze(abbr, unified, p.Cfg.Report.SampleTitleCount)
	fmt.Fprintf(w, "unified %s: %d records in %d groups (%d duplicates removed)\n",
		abbr, records.Total(), len(unified), records.Total()-len(unified))

	return Result{
		PolicyAbbreviation: abbr,
		SourceTotal:        records.Total(),
		UnifiedTotal:       len(unified),
		CSVPath:            csvPath,
		RegistryCSVPath:    registryPath,
		Report:             report,
	}, nil
}

// RunAll unifies every listed policy topic with bounded concurrency. A
// failed topic does not abort the others; per-topic failures are reported
// to w and returned in the error map. Results are ordered by abbreviation.
// Progress is written to w from a single goroutine, one topic at a time.
func (p *Pipeline) RunAll(ctx context.Context, abbrs []string, w io.Writer) ([]Result, map[string]error) {
	maxConcurrent := p.Cfg.Unify.MaxConcurrentPolicies
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	type outcome struct {
		result   Result
		err      error
		abbr     string
		progress string
	}

	sem := make(chan struct{}, maxConcurrent)
	ch := make(chan outcome, len(abbrs))
	var wg sync.WaitGroup

	// Workers buffer their progress output; only the collector loop below
	// writes to w, so a non-thread-safe writer is fine.
	for _, abbr := range abbrs {
		wg.Add(1)
		go func(abbr string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			var buf bytes.Buffer
			result, err := p.Run(ctx, abbr, &buf)
			ch <- outcome{result: result, err: err, abbr: abbr, progress: buf.String()}
		}(abbr)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var results []Result
	failures := make(map[string]error)
	for o := range ch {
		io.WriteString(w, o.progress)
		if o.err != nil {
			failures[o.abbr] = o.err
			fmt.Fprintf(w, "warning: %s failed: %v\n", o.abbr, o.err)
			continue
		}
		results = append(results, o.result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].PolicyAbbreviation < results[j].PolicyAbbreviation
	})
	if len(failures) == 0 {
		failures = nil
	}
	return results, failures
}
