// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// csvHeader lists the unified dataset columns in export order.
var csvHeader = []string{
	"unified_id", "title", "normalized_title", "abstract", "abstract_source",
	"doi", "open_access_url", "authors", "author_count",
	"publication_year", "publication_date", "venue", "cited_by_count",
	"search_terms", "in_openalex", "in_semantic_scholar", "in_nber",
	"match_method", "openalex_id", "semantic_scholar_id", "nber_id",
	"policy_name", "policy_year", "policy_abbreviation", "policy_category",
}

// ExportCSV writes the unified dataset for one policy topic to
// dataDir/unified/[abbr]_unified.csv and returns the file path. Absent
// numeric fields export as empty cells, never as zero.
func (s *Store) ExportCSV(ctx context.Context, abbr string) (string, error) {
	unified, err := s.LoadUnified(ctx, abbr)
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(s.dataDir, unifiedDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating unified directory: %w", err)
	}

	path := filepath.Join(outDir, strings.ToLower(abbr)+"_unified.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}

	for _, u := range unified {
		row := []string{
			strconv.Itoa(u.UnifiedID), u.Title, u.NormalizedTitle, u.Abstract, u.AbstractSource,
			u.DOI, u.OpenAccessURL, u.Authors, intCell(u.AuthorCount),
			intCell(u.PublicationYear), u.PublicationDate, u.Venue, intCell(u.CitedByCount),
			u.SearchTerms, boolCell(u.InOpenAlex), boolCell(u.InSemanticScholar), boolCell(u.InNBER),
			string(u.Method), u.OpenAlexID, u.SemanticScholarID, u.NBERID,
			u.PolicyName, intCell(u.PolicyYear), u.PolicyAbbreviation, u.PolicyCategory,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing CSV row %d: %w", u.UnifiedID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	return path, nil
}

// registryHeader lists the match registry columns in export order.
var registryHeader = []string{
	"unified_id", "source", "source_index", "match_method", "doi_key", "title_key",
}

// ExportRegistryCSV writes the match registry for one policy topic to
// dataDir/unified/[abbr]_match_registry.csv and returns the file path.
func (s *Store) ExportRegistryCSV(ctx context.Context, abbr string) (string, error) {
	registry, err := s.LoadRegistry(ctx, abbr)
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(s.dataDir, unifiedDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating unified directory: %w", err)
	}

	path := filepath.Join(outDir, strings.ToLower(abbr)+"_match_registry.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(registryHeader); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}
	for _, e := range registry {
		row := []string{
			strconv.Itoa(e.UnifiedID), string(e.Source), strconv.Itoa(e.SourceIndex),
			string(e.Method), e.DOIKey, e.TitleKey,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	return path, nil
}

func intCell(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func boolCell(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
