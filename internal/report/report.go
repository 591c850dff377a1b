// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders coverage analysis output to Markdown and YAML
// files. Rendering is presentation only: every number comes from the
// structured report, nothing is computed here.
//
// See docs/ARCHITECTURE.md § Reports.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/policy-unify/pkg/types"
)

// displayNames maps catalog identifiers to their report headings.
var displayNames = map[types.Source]string{
	types.SourceOpenAlex:        "OpenAlex",
	types.SourceSemanticScholar: "Semantic Scholar",
	types.SourceNBER:            "NBER",
}

func displayName(s types.Source) string {
	if name, ok := displayNames[s]; ok {
		return name
	}
	return string(s)
}

// Renderer writes report files under the configured reports directory.
type Renderer struct {
	Cfg types.ReportConfig

	// now is stubbed in tests.
	now func() time.Time
}

// NewRenderer returns a renderer writing under cfg.ReportsDir.
func NewRenderer(cfg types.ReportConfig) *Renderer {
	return &Renderer{Cfg: cfg, now: time.Now}
}

func (r *Renderer) writeFile(name, content string) (string, error) {
	if err := os.MkdirAll(r.Cfg.ReportsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}
	path := filepath.Join(r.Cfg.ReportsDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

func (r *Renderer) stamp() string {
	return r.now().Format("2006-01-02 15:04:05")
}

// WriteCoverage renders one policy topic's coverage report to
// [abbr]_coverage_analysis.md and returns the file path.
func (r *Renderer) WriteCoverage(report types.CoverageReport) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Coverage Analysis Report: %s\n\n", report.PolicyAbbreviation)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.stamp())
	b.WriteString("This report analyzes why papers appear in some catalogs but not others.\n\n---\n\n")

	b.WriteString("## Overall Statistics\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Total Unified Papers | %d |\n", report.Overall.TotalUnified)
	for _, src := range types.AllSources {
		fmt.Fprintf(&b, "| In %s | %d |\n", displayName(src), report.Overall.PerSource[src])
	}
	fmt.Fprintf(&b, "| In All Three Catalogs | %d |\n", report.Overall.InAllThree)
	fmt.Fprintf(&b, "| In Exactly One Catalog | %d |\n", report.Overall.InExactlyOne)
	fmt.Fprintf(&b, "| In Exactly Two Catalogs | %d |\n\n", report.Overall.InExactlyTwo)

	b.WriteString("## Pairwise Comparisons\n\n")
	for _, cmp := range report.Pairwise {
		nameA, nameB := displayName(cmp.SourceA), displayName(cmp.SourceB)
		fmt.Fprintf(&b, "### %s vs %s\n\n", nameA, nameB)
		fmt.Fprintf(&b, "- Papers in %s only: %d\n", nameA, cmp.OnlyA)
		fmt.Fprintf(&b, "- Papers in %s only: %d\n", nameB, cmp.OnlyB)
		fmt.Fprintf(&b, "- Papers in both: %d\n\n", cmp.Both)
		writeProfile(&b, nameA, cmp.ProfileA)
		writeProfile(&b, nameB, cmp.ProfileB)
	}

	b.WriteString("## Hypotheses: Why Coverage Differs\n\n")
	for i, h := range report.Hypotheses {
		fmt.Fprintf(&b, "### Hypothesis %d: %s\n\n", i+1, h.Statement)
		b.WriteString("**Evidence:**\n")
		for _, key := range sortedEvidenceKeys(h.Evidence) {
			fmt.Fprintf(&b, "- %s: %v\n", key, h.Evidence[key])
		}
		fmt.Fprintf(&b, "\n**Conclusion:** %s\n\n", h.Conclusion)
	}

	return r.writeFile(report.PolicyAbbreviation+"_coverage_analysis.md", b.String())
}

func writeProfile(b *strings.Builder, name string, p types.PartitionProfile) {
	if p.Count == 0 {
		return
	}
	fmt.Fprintf(b, "**Papers in %s only:**\n", name)
	fmt.Fprintf(b, "- %.1f%% have abstracts\n", p.PctWithAbstract)
	fmt.Fprintf(b, "- %.1f%% have DOIs\n", p.PctWithDOI)
	if p.MedianCitations != nil {
		fmt.Fprintf(b, "- Median citations: %g\n", *p.MedianCitations)
	}
	if len(p.TopVenues) > 0 {
		names := make([]string, 0, len(p.TopVenues))
		for _, v := range p.TopVenues {
			names = append(names, v.Venue)
			if len(names) == 3 {
				break
			}
		}
		fmt.Fprintf(b, "- Top venues: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")
}

func sortedEvidenceKeys(evidence map[string]any) []string {
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteCoverageYAML writes the structured coverage report to
// [abbr]_coverage_analysis.yaml for downstream tooling.
func (r *Renderer) WriteCoverageYAML(report types.CoverageReport) (string, error) {
	data, err := yaml.Marshal(&report)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return r.writeFile(report.PolicyAbbreviation+"_coverage_analysis.yaml", string(data))
}

// WriteSourceReports renders one quality report per catalog to
// [abbr]_[source]_report.md and returns the file paths.
func (r *Renderer) WriteSourceReports(abbr string, quality []types.SourceQuality) ([]string, error) {
	var paths []string
	for _, q := range quality {
		var b strings.Builder

		fmt.Fprintf(&b, "# %s Report: %s\n\n", displayName(q.Source), abbr)
		fmt.Fprintf(&b, "**Generated:** %s\n\n---\n\n", r.stamp())

		b.WriteString("## Summary Statistics\n\n")
		b.WriteString("| Metric | Value |\n|--------|-------|\n")
		fmt.Fprintf(&b, "| Total Papers | %d |\n", q.TotalRecords)
		fmt.Fprintf(&b, "| Papers with Abstract | %.1f%% |\n", q.PctWithAbstract)
		fmt.Fprintf(&b, "| Papers with DOI | %.1f%% |\n", q.PctWithDOI)
		fmt.Fprintf(&b, "| Papers with Open Access URL | %.1f%% |\n", q.PctWithOAURL)
		fmt.Fprintf(&b, "| Year Range | %s |\n", orNA(q.YearRange))
		if q.MedianCitations != nil {
			fmt.Fprintf(&b, "| Median Citations | %g |\n", *q.MedianCitations)
		} else {
			b.WriteString("| Median Citations | N/A |\n")
		}
		b.WriteString("\n")

		b.WriteString("## Data Source Notes\n\n")
		for _, note := range sourceNotes[q.Source] {
			fmt.Fprintf(&b, "- %s\n", note)
		}
		b.WriteString("\n")

		path, err := r.writeFile(fmt.Sprintf("%s_%s_report.md", abbr, q.Source), b.String())
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var sourceNotes = map[types.Source][]string{
	types.SourceOpenAlex: {
		"**API:** OpenAlex API (https://api.openalex.org/)",
		"**Coverage:** Comprehensive academic literature index",
		"**Abstracts:** Stored as inverted index, reconstructed at fetch time",
		"**DOIs:** Generally well-covered",
	},
	types.SourceSemanticScholar: {
		"**API:** Semantic Scholar Graph API (https://api.semanticscholar.org/)",
		"**Coverage:** Computer science focus, expanding to other fields",
		"**Abstracts:** Direct text when available",
		"**DOIs:** Coverage varies by field",
	},
	types.SourceNBER: {
		"**API:** NBER search API (https://www.nber.org/api/v1/search)",
		"**Coverage:** NBER working papers only",
		"**DOIs:** Not reported",
		"**Note:** Limited to NBER publications, not general academic literature",
	},
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// WriteSummary renders the cross-policy summary table to
// unified_summary_report.md. Reports should be in policy order.
func (r *Renderer) WriteSummary(reports []types.CoverageReport) (string, error) {
	var b strings.Builder

	b.WriteString("# Unified Dataset Summary Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.stamp())
	b.WriteString("This report summarizes the unified policy papers dataset created from\nOpenAlex, Semantic Scholar, and NBER catalogs.\n\n---\n\n")

	b.WriteString("## Summary by Policy\n\n")
	b.WriteString("| Policy | Total Papers | In OpenAlex | In Semantic Scholar | In NBER | In All Catalogs | With Abstract |\n")
	b.WriteString("|--------|--------------|-------------|---------------------|---------|-----------------|---------------|\n")

	totalPapers, totalAbstracts := 0, 0
	for _, rep := range reports {
		o := rep.Overall
		totalPapers += o.TotalUnified
		totalAbstracts += o.WithAbstract

		abstractCell := "0"
		if o.TotalUnified > 0 {
			abstractCell = fmt.Sprintf("%d (%.1f%%)", o.WithAbstract,
				100*float64(o.WithAbstract)/float64(o.TotalUnified))
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d | %s |\n",
			rep.PolicyAbbreviation, o.TotalUnified,
			o.PerSource[types.SourceOpenAlex],
			o.PerSource[types.SourceSemanticScholar],
			o.PerSource[types.SourceNBER],
			o.InAllThree, abstractCell)
	}
	b.WriteString("\n## Overall Totals\n\n")
	fmt.Fprintf(&b, "- **Total unique papers across all policies:** %d\n", totalPapers)
	if totalPapers > 0 {
		fmt.Fprintf(&b, "- **Total papers with abstracts:** %d (%.1f%%)\n",
			totalAbstracts, 100*float64(totalAbstracts)/float64(totalPapers))
	}
	b.WriteString("\n")

	b.WriteString("## Output Files\n\n")
	b.WriteString("For each policy, the following files are generated:\n\n")
	b.WriteString("- `data/unified/{policy}_unified.csv` - Unified dataset\n")
	b.WriteString("- `{policy}_{source}_report.md` - Per-catalog quality report\n")
	b.WriteString("- `{policy}_coverage_analysis.md` - Coverage analysis with hypotheses\n")
	b.WriteString("- `{policy}_coverage_analysis.yaml` - Structured coverage report\n")

	return r.writeFile("unified_summary_report.md", b.String())
}
