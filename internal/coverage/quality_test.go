package coverage

import (
	"testing"

	"github.com/pdiddy/policy-unify/pkg/types"
)

func TestQuality(t *testing.T) {
	collections := map[types.Source][]types.SourceRecord{
		types.SourceOpenAlex: {
			{
				Source: types.SourceOpenAlex, Title: "First",
				Abstract: "text", DOIRaw: "10.1/a", OpenAccessURL: "https://x",
				PublicationYear: intp(2015), CitedByCount: intp(10),
			},
			{
				Source: types.SourceOpenAlex, Title: "Second",
				DOIRaw:          "10.1/b",
				PublicationYear: intp(2020), CitedByCount: intp(30),
			},
		},
		types.SourceNBER: {
			{Source: types.SourceNBER, Title: "Third", Venue: "NBER Working Papers"},
		},
	}

	quality := Quality(collections)
	if len(quality) != 3 {
		t.Fatalf("got %d quality entries, want one per catalog", len(quality))
	}

	oa := quality[0]
	if oa.Source != types.SourceOpenAlex || oa.TotalRecords != 2 {
		t.Errorf("openalex entry = %+v", oa)
	}
	if oa.PctWithAbstract != 50.0 || oa.PctWithDOI != 100.0 || oa.PctWithOAURL != 50.0 {
		t.Errorf("openalex pcts = %v/%v/%v", oa.PctWithAbstract, oa.PctWithDOI, oa.PctWithOAURL)
	}
	if oa.YearRange != "2015-2020" {
		t.Errorf("year range = %q", oa.YearRange)
	}
	if oa.MedianCitations == nil || *oa.MedianCitations != 20.0 {
		t.Errorf("median citations = %v, want 20", oa.MedianCitations)
	}

	// The Semantic Scholar collection is absent: zero counts, no fabricated
	// years or medians.
	s2 := quality[1]
	if s2.Source != types.SourceSemanticScholar || s2.TotalRecords != 0 {
		t.Errorf("semantic_scholar entry = %+v", s2)
	}
	if s2.YearRange != "" || s2.MedianCitations != nil {
		t.Errorf("empty collection fabricated stats: %+v", s2)
	}

	nber := quality[2]
	if nber.TotalRecords != 1 || nber.PctWithDOI != 0.0 || nber.MedianCitations != nil {
		t.Errorf("nber entry = %+v", nber)
	}
}
