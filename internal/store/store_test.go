package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/policy-unify/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intPtr(n int) *int { return &n }

func sampleCollections() map[types.Source][]types.SourceRecord {
	return map[types.Source][]types.SourceRecord{
		types.SourceOpenAlex: {
			{
				Source: types.SourceOpenAlex, SourceID: "W1",
				Title: "Minimum Wages and Employment", DOIRaw: "https://doi.org/10.1257/aer.5",
				Authors: "Alice Smith | Bob Jones", AuthorCount: intPtr(2),
				PublicationYear: intPtr(2019), CitedByCount: intPtr(40),
				Venue: "American Economic Review", SearchTerm: "minimum wage",
				PolicyName: "Fair Labor Standards Act", PolicyYear: intPtr(1938),
			},
			{
				Source: types.SourceOpenAlex, SourceID: "W2",
				Title: "A Paper Without Numbers", SearchTerm: "minimum wage",
			},
		},
		types.SourceNBER: {
			{
				Source: types.SourceNBER, SourceID: "w100",
				Title: "Minimum Wages and Employment", Venue: "NBER Working Papers",
				PublicationYear: intPtr(2018), SearchTerm: "minimum wage effects",
			},
		},
	}
}

func sampleUnified() []types.UnifiedRecord {
	return []types.UnifiedRecord{
		{
			UnifiedID: 0, Title: "Minimum Wages and Employment",
			NormalizedTitle: "minimum wages and employment",
			DOI:             "10.1257/aer.5", Authors: "Alice Smith | Bob Jones",
			AuthorCount: intPtr(2), PublicationYear: intPtr(2018),
			CitedByCount: intPtr(40), Venue: "American Economic Review",
			SearchTerms: "minimum wage | minimum wage effects",
			InOpenAlex:  true, InNBER: true, Method: types.MatchTitle,
			OpenAlexID: "W1", NBERID: "w100",
		},
		{
			UnifiedID: 1, Title: "A Paper Without Numbers",
			NormalizedTitle: "a paper without numbers",
			SearchTerms:     "minimum wage",
			InOpenAlex:      true, Method: types.MatchNone, OpenAlexID: "W2",
		},
	}
}

func sampleRegistry() []types.RegistryEntry {
	return []types.RegistryEntry{
		{UnifiedID: 0, Source: types.SourceOpenAlex, SourceIndex: 0, Method: types.MatchTitle, TitleKey: "minimum wages and employment"},
		{UnifiedID: 0, Source: types.SourceNBER, SourceIndex: 0, Method: types.MatchTitle, TitleKey: "minimum wages and employment"},
		{UnifiedID: 1, Source: types.SourceOpenAlex, SourceIndex: 1, Method: types.MatchNone},
	}
}

// --- tests ---

func TestSourceRecordRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveSourceRecords(ctx, "FLSA", sampleCollections()); err != nil {
		t.Fatalf("SaveSourceRecords() error: %v", err)
	}

	got, err := s.LoadSourceRecords(ctx, "FLSA")
	if err != nil {
		t.Fatalf("LoadSourceRecords() error: %v", err)
	}
	if len(got[types.SourceOpenAlex]) != 2 || len(got[types.SourceNBER]) != 1 {
		t.Fatalf("collection sizes = %d/%d, want 2/1",
			len(got[types.SourceOpenAlex]), len(got[types.SourceNBER]))
	}

	r := got[types.SourceOpenAlex][0]
	if r.Title != "Minimum Wages and Employment" || r.DOIRaw != "https://doi.org/10.1257/aer.5" {
		t.Errorf("record fields = %q/%q", r.Title, r.DOIRaw)
	}
	if r.CitedByCount == nil || *r.CitedByCount != 40 {
		t.Errorf("cited_by_count = %v, want 40", r.CitedByCount)
	}
	if r.PolicyAbbreviation != "FLSA" {
		t.Errorf("policy_abbreviation = %q", r.PolicyAbbreviation)
	}

	// Absent numeric fields come back nil, never zero.
	bare := got[types.SourceOpenAlex][1]
	if bare.AuthorCount != nil || bare.PublicationYear != nil || bare.CitedByCount != nil {
		t.Errorf("absent fields came back non-nil: %+v", bare)
	}
}

func TestSaveSourceRecordsReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveSourceRecords(ctx, "FLSA", sampleCollections()); err != nil {
		t.Fatal(err)
	}
	smaller := map[types.Source][]types.SourceRecord{
		types.SourceNBER: {{Source: types.SourceNBER, SourceID: "w200", Title: "Replacement"}},
	}
	if err := s.SaveSourceRecords(ctx, "FLSA", smaller); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadSourceRecords(ctx, "FLSA")
	if err != nil {
		t.Fatal(err)
	}
	if len(got[types.SourceOpenAlex]) != 0 || len(got[types.SourceNBER]) != 1 {
		t.Errorf("collections after replace = %d/%d, want 0/1",
			len(got[types.SourceOpenAlex]), len(got[types.SourceNBER]))
	}
}

func TestSaveSourceRecordsIsolatesPolicies(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveSourceRecords(ctx, "FLSA", sampleCollections()); err != nil {
		t.Fatal(err)
	}
	other := map[types.Source][]types.SourceRecord{
		types.SourceOpenAlex: {{Source: types.SourceOpenAlex, SourceID: "W9", Title: "Other Topic"}},
	}
	if err := s.SaveSourceRecords(ctx, "ACA", other); err != nil {
		t.Fatal(err)
	}

	flsa, err := s.LoadSourceRecords(ctx, "FLSA")
	if err != nil {
		t.Fatal(err)
	}
	if len(flsa[types.SourceOpenAlex]) != 2 {
		t.Errorf("FLSA openalex records = %d, want 2", len(flsa[types.SourceOpenAlex]))
	}
}

func TestUnifiedRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveUnified(ctx, "FLSA", sampleUnified(), sampleRegistry()); err != nil {
		t.Fatalf("SaveUnified() error: %v", err)
	}

	unified, err := s.LoadUnified(ctx, "FLSA")
	if err != nil {
		t.Fatalf("LoadUnified() error: %v", err)
	}
	if len(unified) != 2 {
		t.Fatalf("got %d unified records, want 2", len(unified))
	}

	u := unified[0]
	if u.UnifiedID != 0 || u.DOI != "10.1257/aer.5" {
		t.Errorf("record = %+v", u)
	}
	if !u.InOpenAlex || u.InSemanticScholar || !u.InNBER {
		t.Errorf("presence flags = %v/%v/%v", u.InOpenAlex, u.InSemanticScholar, u.InNBER)
	}
	if u.Method != types.MatchTitle {
		t.Errorf("method = %q", u.Method)
	}
	if unified[1].CitedByCount != nil {
		t.Errorf("absent cited_by_count came back %v", *unified[1].CitedByCount)
	}

	registry, err := s.LoadRegistry(ctx, "FLSA")
	if err != nil {
		t.Fatalf("LoadRegistry() error: %v", err)
	}
	if len(registry) != 3 {
		t.Fatalf("got %d registry entries, want 3", len(registry))
	}
	if registry[0].TitleKey != "minimum wages and employment" {
		t.Errorf("title_key = %q", registry[0].TitleKey)
	}
}

func TestPolicies(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, abbr := range []string{"TCJA", "ACA", "FLSA"} {
		if err := s.SaveUnified(ctx, abbr, sampleUnified(), nil); err != nil {
			t.Fatal(err)
		}
	}

	abbrs, err := s.Policies(ctx)
	if err != nil {
		t.Fatalf("Policies() error: %v", err)
	}
	want := []string{"ACA", "FLSA", "TCJA"}
	if len(abbrs) != len(want) {
		t.Fatalf("policies = %v, want %v", abbrs, want)
	}
	for i := range want {
		if abbrs[i] != want[i] {
			t.Errorf("policies = %v, want %v", abbrs, want)
			break
		}
	}
}

func TestExportCSV(t *testing.T) {
	dataDir := t.TempDir()
	s, err := NewStore(types.StoreConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	if err := s.SaveUnified(ctx, "FLSA", sampleUnified(), sampleRegistry()); err != nil {
		t.Fatal(err)
	}

	path, err := s.ExportCSV(ctx, "FLSA")
	if err != nil {
		t.Fatalf("ExportCSV() error: %v", err)
	}
	if want := filepath.Join(dataDir, "unified", "flsa_unified.csv"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d CSV rows, want header + 2", len(rows))
	}
	if rows[0][0] != "unified_id" || len(rows[0]) != len(csvHeader) {
		t.Errorf("header = %v", rows[0])
	}

	col := func(name string) int {
		for i, h := range csvHeader {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %q", name)
		return -1
	}
	if got := rows[1][col("cited_by_count")]; got != "40" {
		t.Errorf("cited_by_count cell = %q", got)
	}
	// Absent numbers export as empty cells.
	if got := rows[2][col("cited_by_count")]; got != "" {
		t.Errorf("absent cited_by_count cell = %q, want empty", got)
	}
	if got := rows[1][col("in_nber")]; got != "true" {
		t.Errorf("in_nber cell = %q", got)
	}
}

func TestExportRegistryCSV(t *testing.T) {
	dataDir := t.TempDir()
	s, err := NewStore(types.StoreConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	if err := s.SaveUnified(ctx, "FLSA", sampleUnified(), sampleRegistry()); err != nil {
		t.Fatal(err)
	}

	path, err := s.ExportRegistryCSV(ctx, "FLSA")
	if err != nil {
		t.Fatalf("ExportRegistryCSV() error: %v", err)
	}
	if want := filepath.Join(dataDir, "unified", "flsa_match_registry.csv"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d CSV rows, want header + 3", len(rows))
	}
	if rows[0][0] != "unified_id" || len(rows[0]) != len(registryHeader) {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "nber" || rows[1][3] != "title" {
		t.Errorf("first entry = %v", rows[1])
	}
	if rows[3][3] != "none" || rows[3][5] != "" {
		t.Errorf("singleton entry = %v", rows[3])
	}
}
