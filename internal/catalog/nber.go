// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/pdiddy/policy-unify/internal/httputil"
	"github.com/pdiddy/policy-unify/pkg/types"
)

// nberBase is the NBER search endpoint. Declared as a var so tests can
// substitute an httptest server.
var nberBase = "https://www.nber.org/api/v1/search"

// yearPattern extracts a four-digit year from NBER's free-form display
// dates ("November 2019", "2019-11-04").
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// NBER queries the NBER working paper search API. NBER reports no DOIs and
// no citation counts; those fields stay absent.
type NBER struct {
	Client *http.Client
}

// Name returns the catalog identifier.
func (c *NBER) Name() types.Source { return types.SourceNBER }

// Fetch pages through the search results for every search term of the
// policy and returns the deduplicated records.
func (c *NBER) Fetch(ctx context.Context, pol types.Policy, cfg types.FetchConfig) ([]types.SourceRecord, error) {
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	maxPerTerm := cfg.MaxResultsPerTerm
	if maxPerTerm <= 0 {
		maxPerTerm = 1000
	}

	var all []types.SourceRecord
	for _, term := range pol.SearchTerms {
		records, err := c.fetchTerm(ctx, term, pol, perPage, maxPerTerm, cfg)
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

func (c *NBER) fetchTerm(ctx context.Context, term string, pol types.Policy, perPage, maxPerTerm int, cfg types.FetchConfig) ([]types.SourceRecord, error) {
	var records []types.SourceRecord

	for page := 1; len(records) < maxPerTerm; page++ {
		params := url.Values{
			"q":       {term},
			"page":    {fmt.Sprintf("%d", page)},
			"perPage": {fmt.Sprintf("%d", perPage)},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, nberBase+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)

		resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
		if err != nil {
			return nil, fmt.Errorf("NBER API request: %w", err)
		}

		var nr nberResponse
		decodeErr := func() error {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("NBER API returned HTTP %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&nr)
		}()
		if decodeErr != nil {
			return nil, decodeErr
		}

		if len(nr.Results) == 0 {
			break
		}
		for _, paper := range nr.Results {
			rec := nberToRecord(paper)
			stampPolicy(&rec, pol, term)
			records = append(records, rec)
		}
		if page*perPage >= nr.Total {
			break
		}
	}

	if len(records) > maxPerTerm {
		records = records[:maxPerTerm]
	}
	return records, nil
}

func nberToRecord(p nberPaper) types.SourceRecord {
	rec := types.SourceRecord{
		Source:        types.SourceNBER,
		SourceID:      p.ID,
		Title:         p.Title,
		Abstract:      p.Abstract,
		Venue:         "NBER Working Papers",
		OpenAccessURL: p.URL,
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

	rec.PublicationDate = p.DisplayDate
	if m := yearPattern.FindString(p.DisplayDate); m != "" {
		var year int
		fmt.Sscanf(m, "%d", &year)
		rec.PublicationYear = intPtr(year)
	}
	return rec
}

// NBER API JSON structures.
type nberResponse struct {
	Total   int         `json:"total"`
	Results []nberPaper `json:"results"`
}

type nberPaper struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Abstract    string       `json:"abstract"`
	DisplayDate string       `json:"displaydate"`
	URL         string       `json:"url"`
	Type        string       `json:"type"`
	Authors     []nberAuthor `json:"authors"`
}

type nberAuthor struct {
	Name string `json:"name"`
}
