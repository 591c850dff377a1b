// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coverage

import (
	"fmt"

	"github.com/pdiddy/policy-unify/pkg/types"
)

// Quality computes per-catalog completeness metrics over the raw source
// collections, one entry per catalog in priority order. Catalogs with no
// records still get an entry with zero counts.
func Quality(collections map[types.Source][]types.SourceRecord) []types.SourceQuality {
	quality := make([]types.SourceQuality, 0, len(types.AllSources))
	for _, src := range types.AllSources {
		quality = append(quality, sourceQuality(src, collections[src]))
	}
	return quality
}

func sourceQuality(src types.Source, records []types.SourceRecord) types.SourceQuality {
	q := types.SourceQuality{Source: src, TotalRecords: len(records)}
	if len(records) == 0 {
		return q
	}

	withAbstract, withDOI, withOA := 0, 0, 0
	var citations []int
	minYear, maxYear := 0, 0

	for _, r := range records {
		if r.Abstract != "" {
			withAbstract++
		}
		if r.DOIRaw != "" {
			withDOI++
		}
		if r.OpenAccessURL != "" {
			withOA++
		}
		if r.CitedByCount != nil {
			citations = append(citations, *r.CitedByCount)
		}
		if r.PublicationYear != nil {
			y := *r.PublicationYear
			if minYear == 0 || y < minYear {
				minYear = y
			}
			if y > maxYear {
				maxYear = y
			}
		}
	}

	q.PctWithAbstract = pct(withAbstract, len(records))
	q.PctWithDOI = pct(withDOI, len(records))
	q.PctWithOAURL = pct(withOA, len(records))
	q.MedianCitations = median(citations)
	if minYear > 0 {
		q.YearRange = fmt.Sprintf("%d-%d", minYear, maxYear)
	}
	return q
}
