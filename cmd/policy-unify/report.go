// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-unify/internal/coverage"
	"github.com/pdiddy/policy-unify/internal/report"
	"github.com/pdiddy/policy-unify/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report [policy abbreviations...]",
	Short: "Render coverage analysis reports from the unified dataset",
	Long: `Report renders Markdown and YAML reports from stored data: one quality
report per catalog, a coverage analysis with evidence-backed hypotheses per
policy, and a cross-policy summary. Without arguments every policy with a
stored unified dataset is reported.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("reports-dir", "reports", "directory report files are written to")
	reportCmd.Flags().Int("sample-titles", 0, "example titles per coverage partition (default 5)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	reportsDir, _ := cmd.Flags().GetString("reports-dir")
	sampleTitles, _ := cmd.Flags().GetInt("sample-titles")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	abbrs := args
	if len(abbrs) == 0 {
		abbrs, err = s.Policies(ctx)
		if err != nil {
			return err
		}
		if len(abbrs) == 0 {
			return fmt.Errorf("no unified datasets in store: run unify first")
		}
	}

	renderer := report.NewRenderer(types.ReportConfig{
		ReportsDir:       reportsDir,
		SampleTitleCount: sampleTitles,
	})

	var reports []types.CoverageReport
	for _, abbr := range abbrs {
		unified, err := s.LoadUnified(ctx, abbr)
		if err != nil {
			return fmt.Errorf("loading unified records for %s: %w", abbr, err)
		}
		collections, err := s.LoadSourceRecords(ctx, abbr)
		if err != nil {
			return fmt.Errorf("loading source records for %s: %w", abbr, err)
		}

		paths, err := renderer.WriteSourceReports(abbr, coverage.Quality(collections))
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(os.Stdout, "wrote %s\n", p)
		}

		rep := coverage.Analyze(abbr, unified, sampleTitles)
		reports = append(reports, rep)

		mdPath, err := renderer.WriteCoverage(rep)
		if err != nil {
			return err
		}
		yamlPath, err := renderer.WriteCoverageYAML(rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote %s\nwrote %s\n", mdPath, yamlPath)
	}

	summaryPath, err := renderer.WriteSummary(reports)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", summaryPath)
	return nil
}
