package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/schema"
	dto "github.com/prometheus/client_model/go"
	"github.com/samber/lo"
)

// RepoOutput is the JSON shape of the repos view.
type RepoOutput struct {
	Velocity     []schema.RepoVelocity  `json:"velocity"`
	Repositories []schema.RepoSummary   `json:"repositories"`
	Timeline     []schema.TimelinePoint `json:"timeline"`
}

// PrintRepos outputs repository velocity, summaries and the activity timeline.
func PrintRepos(report schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return view{
		title: "Repositories",
		data:  RepoOutput{Velocity: report.Velocity, Repositories: report.Repositories, Timeline: report.Timeline},
		header: []string{
			"repository", "total_prs", "human_prs", "automated_prs", "merged_human_prs",
			"total_contributors", "human_contributors", "avg_monthly_contributors",
			"avg_per_month_last12", "avg_per_month_last3", "velocity_trend", "last_active_month",
		},
		csvRows: func(w *csv.Writer) error {
			velocity := lo.KeyBy(report.Velocity, func(v schema.RepoVelocity) string { return v.Repository })
			for _, s := range report.Repositories {
				v := velocity[s.Repository]
				last := ""
				if !v.LastActiveMonth.IsZero() {
					last = v.LastActiveMonth.String()
				}
				rec := []string{
					s.Repository, itoa(s.TotalPRs), itoa(s.HumanPRs), itoa(s.AutomatedPRs), itoa(s.MergedHumanPRs),
					itoa(s.TotalContributors), itoa(s.HumanContributors), fmtFloat(s.AvgMonthlyContributorCount),
					fmtFloat(v.AvgPerMonthLast12), fmtFloat(v.AvgPerMonthLast3), string(v.Trend), last,
				}
				if err := w.Write(rec); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
			return nil
		},
		markdown: func(w io.Writer) error {
			if err := writeLines(w, "# Repositories", ""); err != nil {
				return err
			}
			if err := writeReposMarkdown(w, report, fmtFloat); err != nil {
				return err
			}
			return writeQualityMarkdown(w, report.DataQuality)
		},
		families: func() []*dto.MetricFamily {
			return append(repoFamilies(report), qualityFamilies(report.DataQuality)...)
		},
		table: func(w io.Writer) error {
			if err := writeReposText(w, report, cfg, fmtFloat); err != nil {
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

var (
	velocityHeader = []string{"Repository", "Avg/mo (12)", "Avg/mo (3)", "Trend", "Last active"}
	summaryHeader  = []string{"Repository", "PRs", "Human", "Bots", "Merged", "Contrib", "Avg/mo", "Top contributors"}
)

func velocityRows(velocity []schema.RepoVelocity, fmtFloat func(float64) string) [][]string {
	rows := make([][]string, 0, len(velocity))
	for _, v := range velocity {
		rows = append(rows, []string{
			v.Repository, fmtFloat(v.AvgPerMonthLast12), fmtFloat(v.AvgPerMonthLast3),
			contract.GetTrendSymbol(v.Trend) + " " + string(v.Trend), v.LastActiveMonth.String(),
		})
	}
	return rows
}

func summaryRows(summaries []schema.RepoSummary, fmtFloat func(float64) string) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		top := lo.Map(s.TopContributors, func(c schema.RepoContributor, _ int) string {
			return fmt.Sprintf("%s (%d)", c.Name, c.Count)
		})
		rows = append(rows, []string{
			s.Repository, itoa(s.TotalPRs), itoa(s.HumanPRs), itoa(s.AutomatedPRs), itoa(s.MergedHumanPRs),
			itoa(s.HumanContributors), fmtFloat(s.AvgMonthlyContributorCount), strings.Join(top, ", "),
		})
	}
	return rows
}

// timelineTable pivots the timeline into one column per repository.
func timelineTable(timeline []schema.TimelinePoint) ([]string, [][]string) {
	var repos []string
	for _, p := range timeline {
		for name := range p.Counts {
			if !slices.Contains(repos, name) {
				repos = append(repos, name)
			}
		}
	}
	slices.Sort(repos)

	headers := append([]string{"Month"}, repos...)
	headers = append(headers, "Total")
	rows := make([][]string, 0, len(timeline))
	for _, p := range timeline {
		row := []string{p.Month.String()}
		for _, name := range repos {
			row = append(row, itoa(p.Counts[name]))
		}
		rows = append(rows, append(row, itoa(p.Total)))
	}
	return headers, rows
}

// writeReposText writes velocity, summaries and the timeline as text tables.
func writeReposText(w io.Writer, report schema.Report, _ *contract.Config, fmtFloat func(float64) string) error {
	if err := writeLines(w, "🚀 Velocity (merged PRs per active month):"); err != nil {
		return err
	}
	if err := writeTable(w, velocityHeader, velocityRows(report.Velocity, fmtFloat)); err != nil {
		return err
	}
	if err := writeLines(w, "📦 Contributors per repository:"); err != nil {
		return err
	}
	if err := writeTable(w, summaryHeader, summaryRows(report.Repositories, fmtFloat)); err != nil {
		return err
	}
	if len(report.Timeline) == 0 {
		return nil
	}
	if err := writeLines(w, "📈 Monthly merged PRs:"); err != nil {
		return err
	}
	headers, rows := timelineTable(report.Timeline)
	return writeTable(w, headers, rows)
}

// writeReposMarkdown writes the repository sections as Markdown.
func writeReposMarkdown(w io.Writer, report schema.Report, fmtFloat func(float64) string) error {
	if err := writeLines(w, "## Velocity", ""); err != nil {
		return err
	}
	if err := writeMarkdownTable(w, velocityHeader, velocityRows(report.Velocity, fmtFloat)); err != nil {
		return err
	}
	if err := writeLines(w, "## Contributors per repository", ""); err != nil {
		return err
	}
	if err := writeMarkdownTable(w, summaryHeader, summaryRows(report.Repositories, fmtFloat)); err != nil {
		return err
	}
	if err := writeLines(w, "## Timeline", ""); err != nil {
		return err
	}
	headers, rows := timelineTable(report.Timeline)
	return writeMarkdownTable(w, headers, rows)
}
