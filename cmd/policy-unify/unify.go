// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-unify/internal/unify"
	"github.com/pdiddy/policy-unify/pkg/types"
)

var unifyCmd = &cobra.Command{
	Use:   "unify [policy abbreviations...]",
	Short: "Match and merge fetched records into a unified dataset",
	Long: `Unify deduplicates the fetched records for each policy: records sharing a
DOI are grouped first, then remaining records matching on normalized title
across catalogs, and each group is merged into one canonical record. The
unified dataset and match registry are stored and exported as CSV.

Without arguments all policies in the policies file are unified. Policies
are processed concurrently; one failure does not abort the others.`,
	RunE: runUnify,
}

func init() {
	unifyCmd.Flags().Int("min-title-tokens", 0, "minimum normalized title tokens for title matching (default 3)")
	unifyCmd.Flags().Int("max-concurrent", 0, "maximum policies unified concurrently (default 4)")
	unifyCmd.Flags().Int("sample-titles", 0, "example titles per coverage partition (default 5)")

	rootCmd.AddCommand(unifyCmd)
}

func runUnify(cmd *cobra.Command, args []string) error {
	selected, err := selectPolicies(cmd, args)
	if err != nil {
		return err
	}
	abbrs := make([]string, 0, len(selected))
	for _, pol := range selected {
		abbrs = append(abbrs, pol.Abbreviation)
	}

	minTokens, _ := cmd.Flags().GetInt("min-title-tokens")
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
	sampleTitles, _ := cmd.Flags().GetInt("sample-titles")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline := &unify.Pipeline{
		Store: s,
		Cfg: types.PipelineConfig{
			Unify: types.UnifyConfig{
				MinTitleTokens:        minTokens,
				MaxConcurrentPolicies: maxConcurrent,
			},
			Report: types.ReportConfig{SampleTitleCount: sampleTitles},
		},
	}

	results, failures := pipeline.RunAll(context.Background(), abbrs, os.Stdout)
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "wrote %s\n", r.CSVPath)
		fmt.Fprintf(os.Stdout, "wrote %s\n", r.RegistryCSVPath)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d policy(ies) failed unification", len(failures))
	}
	return nil
}
