// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/policy-unify/internal/httputil"
	"github.com/pdiddy/policy-unify/pkg/types"
)

// semanticBase is the Semantic Scholar paper search endpoint. Declared as a
// var so tests can substitute an httptest server.
var semanticBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,citationCount,venue,openAccessPdf"

// SemanticScholar queries the Semantic Scholar Graph API. The API rate
// limits aggressively without a key, so requests go through the shared
// retry helper.
type SemanticScholar struct {
	Client *http.Client
	APIKey string
}

// Name returns the catalog identifier.
func (c *SemanticScholar) Name() types.Source { return types.SourceSemanticScholar }

// Fetch pages through the paper search results for every search term of the
// policy and returns the deduplicated records.
func (c *SemanticScholar) Fetch(ctx context.Context, pol types.Policy, cfg types.FetchConfig) ([]types.SourceRecord, error) {
	limit := cfg.PerPage
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	maxPerTerm := cfg.MaxResultsPerTerm
	if maxPerTerm <= 0 {
		maxPerTerm = 1000
	}

	var all []types.SourceRecord
	for _, term := range pol.SearchTerms {
		records, err := c.fetchTerm(ctx, term, pol, limit, maxPerTerm, cfg)
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", term, err)
		}
		all = append(all, records...)
		if cfg.InterRequestDelay > 0 {
			time.Sleep(cfg.InterRequestDelay)
		}
	}
	return dedupeByID(all), nil
}

func (c *SemanticScholar) fetchTerm(ctx context.Context, term string, pol types.Policy, limit, maxPerTerm int, cfg types.FetchConfig) ([]types.SourceRecord, error) {
	var records []types.SourceRecord

	for offset := 0; len(records) < maxPerTerm; {
		params := url.Values{
			"query":  {term},
			"offset": {fmt.Sprintf("%d", offset)},
			"limit":  {fmt.Sprintf("%d", limit)},
			"fields": {semanticFields},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticBase+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)
		if c.APIKey != "" {
			req.Header.Set("x-api-key", c.APIKey)
		}

		resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
		if err != nil {
			return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
		}

		var sr semanticResponse
		decodeErr := func() error {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&sr)
		}()
		if decodeErr != nil {
			return nil, decodeErr
		}

		if len(sr.Data) == 0 {
			break
		}
		for _, paper := range sr.Data {
			rec := paperToRecord(paper)
			stampPolicy(&rec, pol, term)
			records = append(records, rec)
		}

		// The API signals the next page with "next"; absent means done.
		if sr.Next == 0 {
			break
		}
		offset = sr.Next
	}

	if len(records) > maxPerTerm {
		records = records[:maxPerTerm]
	}
	return records, nil
}

func paperToRecord(p semanticPaper) types.SourceRecord {
	rec := types.SourceRecord{
		Source:   types.SourceSemanticScholar,
		SourceID: p.PaperID,
		Title:    p.Title,
		Abstract: p.Abstract,
		DOIRaw:   p.ExternalIDs.DOI,
		Venue:    p.Venue,
	}

	var authors []string
	for _, a := range p.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}
	rec.Authors = joinAuthors(authors)
	if len(authors) > 0 {
		rec.AuthorCount = intPtr(len(authors))
	}

	if p.Year != nil && *p.Year > 0 {
		rec.PublicationYear = intPtr(*p.Year)
	}
	rec.PublicationDate = p.PublicationDate
	if p.CitationCount != nil {
		rec.CitedByCount = intPtr(*p.CitationCount)
	}
	if p.OpenAccessPdf != nil {
		rec.OpenAccessURL = p.OpenAccessPdf.URL
	}
	return rec
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Next  int             `json:"next"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Venue           string              `json:"venue"`
	Year            *int                `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	CitationCount   *int                `json:"citationCount"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	Authors         []semanticAuthor    `json:"authors"`
	OpenAccessPdf   *semanticOpenAccess `json:"openAccessPdf"`
}

type semanticExternalIDs struct {
	DOI string `json:"DOI"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticOpenAccess struct {
	URL string `json:"url"`
}
