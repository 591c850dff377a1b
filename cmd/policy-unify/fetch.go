package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-unify/internal/catalog"
	"github.com/pdiddy/policy-unify/internal/policy"
	"github.com/pdiddy/policy-unify/internal/store"
	"github.com/pdiddy/policy-unify/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "policy-unify/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [policy abbreviations...]",
	Short: "Fetch raw records from the three catalogs",
	Long: `Fetch queries OpenAlex, Semantic Scholar, and NBER for every search term
of the selected policies and stores the raw per-catalog records. Without
arguments all policies in the policies file are fetched. A catalog failure
is reported but does not abort the other catalogs.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive API calls (default 1s)")
	fetchCmd.Flags().Int("max-results", 1000, "maximum records per search term per catalog")
	fetchCmd.Flags().Int("per-page", 100, "page size for paginated catalog APIs")
	fetchCmd.Flags().String("openalex-email", "", "email for OpenAlex polite pool (default: .secrets/openalex-email)")
	fetchCmd.Flags().String("s2-api-key", "", "Semantic Scholar API key (default: .secrets/semantic-scholar-api-key)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	selected, err := selectPolicies(cmd, args)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	perPage, _ := cmd.Flags().GetInt("per-page")
	email, _ := cmd.Flags().GetString("openalex-email")
	apiKey, _ := cmd.Flags().GetString("s2-api-key")

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxResultsPerTerm:     maxResults,
		PerPage:               perPage,
		InterRequestDelay:     delay,
		OpenAlexEmail:         secretDefault("openalex-email", email),
		SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", apiKey),
	}

	client := &http.Client{Timeout: cfg.Timeout}
	catalogs := []catalog.Catalog{
		&catalog.OpenAlex{Client: client, Email: cfg.OpenAlexEmail},
		&catalog.SemanticScholar{Client: client, APIKey: cfg.SemanticScholarAPIKey},
		&catalog.NBER{Client: client},
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	failed := 0
	for _, pol := range selected {
		fmt.Fprintf(os.Stdout, "fetching %s (%s)\n", pol.Abbreviation, pol.Name)
		out := catalog.FetchAll(ctx, catalogs, pol, cfg, os.Stdout)
		failed += len(out.CatalogErrors)

		if err := s.SaveSourceRecords(ctx, pol.Abbreviation, out.Collections); err != nil {
			return fmt.Errorf("saving records for %s: %w", pol.Abbreviation, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d catalog fetch(es) failed", failed)
	}
	return nil
}

// selectPolicies loads the policies file and narrows it to the requested
// abbreviations, or returns all policies when none are given.
func selectPolicies(cmd *cobra.Command, args []string) ([]types.Policy, error) {
	path, _ := cmd.Flags().GetString("policies")
	policies, err := policy.Load(path)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return policies, nil
	}
	return policy.Select(policies, args)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return store.NewStore(types.StoreConfig{DataDir: dataDir})
}
