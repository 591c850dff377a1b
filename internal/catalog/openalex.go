// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/policy-unify/pkg/types"
)

// openAlexBase is the OpenAlex Works search endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexBase = "https://api.openalex.org/works"

const openAlexIDPrefix = "https://openalex.org/"

// OpenAlex queries the OpenAlex Works API.
type OpenAlex struct {
	Client *http.Client
	// Email is sent as the mailto parameter for polite pool access.
	Email string
}

// Name returns the catalog identifier.
func (c *OpenAlex) Name() types.Source { return types.SourceOpenAlex }

// Fetch pages through the Works search results for every search term of the
// policy and returns the deduplicated records.
func (c *OpenAlex) Fetch(ctx context.Context, pol types.Policy, cfg types.FetchConfig) ([]types.SourceRecord, error) {
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > 200 {
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

func (c *OpenAlex) fetchTerm(ctx context.Context, term string, pol types.Policy, perPage, maxPerTerm int, cfg types.FetchConfig) ([]types.SourceRecord, error) {
	var records []types.SourceRecord

	for page := 1; len(records) < maxPerTerm; page++ {
		params := url.Values{
			"search":   {term},
			"per-page": {fmt.Sprintf("%d", perPage)},
			"page":     {fmt.Sprintf("%d", page)},
		}
		if c.Email != "" {
			params.Set("mailto", c.Email)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexBase+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)

		resp, err := c.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("OpenAlex API request: %w", err)
		}

		var oar openAlexResponse
		decodeErr := func() error {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&oar)
		}()
		if decodeErr != nil {
			return nil, decodeErr
		}

		if len(oar.Results) == 0 {
			break
		}
		for _, work := range oar.Results {
			rec := workToRecord(work)
			stampPolicy(&rec, pol, term)
			records = append(records, rec)
		}
		if page*perPage >= oar.Meta.Count {
			break
		}
	}

	if len(records) > maxPerTerm {
		records = records[:maxPerTerm]
	}
	return records, nil
}

func workToRecord(work openAlexWork) types.SourceRecord {
	rec := types.SourceRecord{
		Source:   types.SourceOpenAlex,
		SourceID: strings.TrimPrefix(work.ID, openAlexIDPrefix),
		Title:    work.Title,
		Abstract: reconstructAbstract(work.AbstractInvertedIndex),
		DOIRaw:   work.DOI,
		Venue:    work.PrimaryLocation.Source.DisplayName,
	}

	var authors []string
	for _, a := range work.Authorships {
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
	}
	rec.Authors = joinAuthors(authors)
	if len(authors) > 0 {
		rec.AuthorCount = intPtr(len(authors))
	}

	if work.PublicationYear > 0 {
		rec.PublicationYear = intPtr(work.PublicationYear)
	}
	rec.PublicationDate = work.PublicationDate
	if work.CitedByCount != nil {
		rec.CitedByCount = intPtr(*work.CitedByCount)
	}
	if work.OpenAccess.IsOA {
		rec.OpenAccessURL = work.OpenAccess.OAURL
	}
	return rec
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          *int                 `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

type openAlexLocation struct {
	Source openAlexVenue `json:"source"`
}

type openAlexVenue struct {
	DisplayName string `json:"display_name"`
}
