package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/schema"
	dto "github.com/prometheus/client_model/go"
)

// PrintCohort outputs the cohort summary, dispatching based on the output format configured.
func PrintCohort(report schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	c := report.Cohort
	return view{
		title:  "Contributor Cohort",
		data:   c,
		header: []string{"rank", "contributor", "recent_count", "total_count", "recent_share", "cumulative", "repositories"},
		csvRows: func(w *csv.Writer) error {
			for _, r := range c.Ranked {
				rec := []string{
					itoa(r.Rank), r.Name, itoa(r.RecentCount), itoa(r.TotalCount),
					fmtFloat(r.RecentShare), fmtFloat(r.Cumulative), itoa(r.Repositories),
				}
				if err := w.Write(rec); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
			return nil
		},
		markdown: func(w io.Writer) error {
			if err := writeLines(w, "# Contributor Cohort", ""); err != nil {
				return err
			}
			if err := writeCohortMarkdown(w, c, fmtFloat); err != nil {
				return err
			}
			return writeQualityMarkdown(w, report.DataQuality)
		},
		families: func() []*dto.MetricFamily {
			return append(cohortFamilies(report), qualityFamilies(report.DataQuality)...)
		},
		table: func(w io.Writer) error {
			if err := writeCohortText(w, c, cfg, fmtFloat); err != nil {
				return err
			}
			if err := writeQualityFooter(w, report.DataQuality); err != nil {
				return err
			}
			return writeSummaryFooter(w, cfg, duration)
		},
		report: report,
	}.write(cfg)
}

// writeCohortText writes every cohort section as text tables.
func writeCohortText(w io.Writer, c schema.CohortSummary, cfg *contract.Config, fmtFloat func(float64) string) error {
	nameWidth := GetMaxTableNameWidth(cfg, 50)

	ranked := make([][]string, 0, len(c.Ranked))
	for _, r := range c.Ranked {
		ranked = append(ranked, []string{
			itoa(r.Rank), contract.TruncateName(r.Name, nameWidth), itoa(r.RecentCount), itoa(r.TotalCount),
			fmtFloat(r.RecentShare) + "%", fmtFloat(r.Cumulative) + "%", itoa(r.Repositories),
		})
	}
	if err := writeTable(w, []string{"Rank", "Contributor", "Recent", "Total", "Share", "Cumulative", "Repos"}, ranked); err != nil {
		return err
	}

	if err := writeLines(w,
		fmt.Sprintf("🚌 Bus factor: %d (of %d ranked contributors, %d recent PRs)", c.BusFactor, len(c.Ranked), c.TotalRecentCount),
		fmt.Sprintf("👥 Avg monthly contributors: %s", fmtFloat(c.AvgMonthlyContributorCount)),
		"",
	); err != nil {
		return err
	}

	if len(c.SignificantContributors) > 0 {
		if err := writeLines(w, fmt.Sprintf("Significant contributors (>10%% of %d human PRs):", c.TotalHumanPRs)); err != nil {
			return err
		}
		rows := make([][]string, 0, len(c.SignificantContributors))
		for _, s := range c.SignificantContributors {
			rows = append(rows, []string{contract.TruncateName(s.Name, nameWidth), itoa(s.Count), fmtFloat(s.Percentage) + "%"})
		}
		if err := writeTable(w, []string{"Contributor", "PRs", "Share"}, rows); err != nil {
			return err
		}
	}

	if len(c.RecentlyInactive) > 0 {
		if err := writeLines(w, "Recently inactive:"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(c.RecentlyInactive))
		for _, r := range c.RecentlyInactive {
			rows = append(rows, []string{
				contract.TruncateName(r.Name, nameWidth), r.LastActivity.UTC().Format(contract.DateFormat),
				itoa(r.TotalCount), itoa(r.DaysSinceLast), itoa(r.MonthsSinceLast),
			})
		}
		if err := writeTable(w, []string{"Contributor", "Last active", "Total", "Days", "Months"}, rows); err != nil {
			return err
		}
	}

	if len(c.Collaborations) > 0 {
		if err := writeLines(w, "Collaboration (shared active months):"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(c.Collaborations))
		for _, p := range c.Collaborations {
			rows = append(rows, []string{p.Pair, itoa(p.Count)})
		}
		if err := writeTable(w, []string{"Pair", "Months"}, rows); err != nil {
			return err
		}
	}

	if len(c.TopMaintainers) > 0 {
		if err := writeLines(w, "Top maintainers:"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(c.TopMaintainers))
		for i, m := range c.TopMaintainers {
			rows = append(rows, []string{itoa(i + 1), contract.TruncateName(m.Name, nameWidth), itoa(m.TotalCount)})
		}
		if err := writeTable(w, []string{"Rank", "Contributor", "Total"}, rows); err != nil {
			return err
		}
	}
	return nil
}

// writeCohortMarkdown writes every cohort section as Markdown.
func writeCohortMarkdown(w io.Writer, c schema.CohortSummary, fmtFloat func(float64) string) error {
	if err := writeLines(w,
		fmt.Sprintf("- **Bus factor:** %d", c.BusFactor),
		fmt.Sprintf("- **Ranked contributors:** %d", len(c.Ranked)),
		fmt.Sprintf("- **Recent PRs:** %d", c.TotalRecentCount),
		fmt.Sprintf("- **Human PRs:** %d", c.TotalHumanPRs),
		fmt.Sprintf("- **Avg monthly contributors:** %s", fmtFloat(c.AvgMonthlyContributorCount)),
		"",
		"## Ranking",
		"",
	); err != nil {
		return err
	}

	ranked := make([][]string, 0, len(c.Ranked))
	for _, r := range c.Ranked {
		ranked = append(ranked, []string{
			itoa(r.Rank), r.Name, itoa(r.RecentCount), itoa(r.TotalCount),
			fmtFloat(r.RecentShare) + "%", fmtFloat(r.Cumulative) + "%",
		})
	}
	if err := writeMarkdownTable(w, []string{"Rank", "Contributor", "Recent", "Total", "Share", "Cumulative"}, ranked); err != nil {
		return err
	}

	significant := make([][]string, 0, len(c.SignificantContributors))
	for _, s := range c.SignificantContributors {
		significant = append(significant, []string{s.Name, itoa(s.Count), fmtFloat(s.Percentage) + "%"})
	}
	if err := writeLines(w, "## Significant contributors", ""); err != nil {
		return err
	}
	if err := writeMarkdownTable(w, []string{"Contributor", "PRs", "Share"}, significant); err != nil {
		return err
	}

	inactive := make([][]string, 0, len(c.RecentlyInactive))
	for _, r := range c.RecentlyInactive {
		inactive = append(inactive, []string{r.Name, r.LastActivity.UTC().Format(contract.DateFormat), itoa(r.TotalCount), itoa(r.DaysSinceLast)})
	}
	if err := writeLines(w, "## Recently inactive", ""); err != nil {
		return err
	}
	if err := writeMarkdownTable(w, []string{"Contributor", "Last active", "Total", "Days since"}, inactive); err != nil {
		return err
	}

	pairs := make([][]string, 0, len(c.Collaborations))
	for _, p := range c.Collaborations {
		pairs = append(pairs, []string{p.Pair, itoa(p.Count)})
	}
	if err := writeLines(w, "## Collaboration", ""); err != nil {
		return err
	}
	if err := writeMarkdownTable(w, []string{"Pair", "Shared months"}, pairs); err != nil {
		return err
	}

	maintainers := make([][]string, 0, len(c.TopMaintainers))
	for _, m := range c.TopMaintainers {
		maintainers = append(maintainers, []string{m.Name, itoa(m.TotalCount)})
	}
	if err := writeLines(w, "## Top maintainers", ""); err != nil {
		return err
	}
	return writeMarkdownTable(w, []string{"Contributor", "Total PRs"}, maintainers)
}
