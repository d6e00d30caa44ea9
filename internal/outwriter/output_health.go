package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/schema"
	dto "github.com/prometheus/client_model/go"
)

// healthCSVHeader is shared by the health and report CSV outputs.
var healthCSVHeader = []string{
	"rank",
	"contributor",
	"recent_count",
	"total_count",
	"authored_count",
	"repositories",
	"active_months",
	"longest_gap_months",
	"historical_avg_per_month",
	"recent_avg_per_month",
	"activity",
	"consistency",
	"workload",
	"diversity",
	"sustainability",
	"trend",
	"risk_tier",
	"risk_factors",
	"last_activity",
}

// PrintHealth outputs the per-contributor health rows, dispatching based on the output format configured.
func PrintHealth(report schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return view{
		title:  "Contributor Health",
		data:   schema.EnrichContributors(report.Contributors),
		header: healthCSVHeader,
		csvRows: func(w *csv.Writer) error {
			return writeHealthCSVRows(w, report.Contributors, fmtFloat)
		},
		markdown: func(w io.Writer) error {
			if err := writeLines(w, "# Contributor Health", ""); err != nil {
				return err
			}
			if err := writeHealthMarkdown(w, report.Contributors); err != nil {
				return err
			}
			return writeQualityMarkdown(w, report.DataQuality)
		},
		families: func() []*dto.MetricFamily {
			return append(contributorFamilies(report), qualityFamilies(report.DataQuality)...)
		},
		table: func(w io.Writer) error {
			if err := writeHealthTable(w, report.Contributors, cfg, fmtFloat); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "Showing top %d contributors (window: %d months)\n", len(report.Contributors), cfg.WindowMonths); err != nil {
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

// writeHealthTable generates and writes the human-readable health table.
func writeHealthTable(w io.Writer, rows []schema.ContributorHealth, cfg *contract.Config, fmtFloat func(float64) string) error {
	headers := []string{"Rank", "Contributor", "Recent", "Total", "Repos", "Gap", "Trend", "Act", "Cons", "Work", "Div", "Sust", "Tier"}
	nameWidth := GetMaxTableNameWidth(cfg, 75)

	data := make([][]string, 0, len(rows))
	for i, c := range rows {
		h := c.Health
		data = append(data, []string{
			itoa(i + 1),
			contract.TruncateName(c.Profile.Name, nameWidth),
			itoa(c.Profile.RecentCount),
			itoa(c.Profile.TotalCount),
			itoa(len(c.Profile.Repositories)),
			itoa(c.Trend.LongestGapMonths),
			contract.GetTrendSymbol(h.Trend) + " " + fmtFloat(c.Trend.RecentAvgPerMonth),
			itoa(h.Activity),
			itoa(h.Consistency),
			itoa(h.Workload),
			itoa(h.Diversity),
			itoa(h.Sustainability),
			tierLabel(h.RiskTier, cfg),
		})
	}
	return writeTable(w, headers, data)
}

// writeHealthCSVRows writes one CSV record per contributor.
func writeHealthCSVRows(w *csv.Writer, rows []schema.ContributorHealth, fmtFloat func(float64) string) error {
	for i, c := range rows {
		last := ""
		if !c.Profile.LastActivity.IsZero() {
			last = c.Profile.LastActivity.UTC().Format(contract.DateTimeFormat)
		}
		rec := []string{
			itoa(i + 1),
			c.Profile.Name,
			itoa(c.Profile.RecentCount),
			itoa(c.Profile.TotalCount),
			itoa(c.Profile.AuthoredCount),
			strings.Join(c.Profile.Repositories, "|"),
			itoa(len(c.Profile.MonthlyActivity)),
			itoa(c.Trend.LongestGapMonths),
			fmtFloat(c.Trend.HistoricalAvgPerMonth),
			fmtFloat(c.Trend.RecentAvgPerMonth),
			itoa(c.Health.Activity),
			itoa(c.Health.Consistency),
			itoa(c.Health.Workload),
			itoa(c.Health.Diversity),
			itoa(c.Health.Sustainability),
			string(c.Health.Trend),
			contract.GetPlainLabel(c.Health.Sustainability),
			strings.Join(c.Health.RiskFactors, "|"),
			last,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	return nil
}

// writeHealthMarkdown writes the health rows as a Markdown table.
func writeHealthMarkdown(w io.Writer, rows []schema.ContributorHealth) error {
	headers := []string{"Rank", "Contributor", "Recent", "Total", "Trend", "Sustainability", "Tier", "Risk factors"}
	data := make([][]string, 0, len(rows))
	for i, c := range rows {
		data = append(data, []string{
			itoa(i + 1),
			c.Profile.Name,
			itoa(c.Profile.RecentCount),
			itoa(c.Profile.TotalCount),
			string(c.Health.Trend),
			itoa(c.Health.Sustainability),
			string(c.Health.RiskTier),
			strings.Join(c.Health.RiskFactors, "; "),
		})
	}
	return writeMarkdownTable(w, headers, data)
}

// writeQualityFooter reports how records were classified and which were excluded.
func writeQualityFooter(w io.Writer, q schema.DataQuality) error {
	if _, err := fmt.Fprintf(w, "Records: %d total, %d automated, %d unmerged, %d eligible\n",
		q.TotalRecords, q.AutomatedRecords, q.UnmergedRecords, q.EligibleRecords); err != nil {
		return err
	}
	if q.Excluded() == 0 && q.NegativeFirstInteraction == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "⚠️  Excluded from latency: %d missing createdAt, %d negative latency, %d out of range; %d negative first interaction\n",
		q.MissingCreatedAt, q.NegativeLatency, q.OutOfRangeTimestamps, q.NegativeFirstInteraction)
	return err
}

// writeQualityMarkdown writes the data-quality section of a Markdown document.
func writeQualityMarkdown(w io.Writer, q schema.DataQuality) error {
	if err := writeLines(w, "## Data quality", ""); err != nil {
		return err
	}
	return writeMarkdownTable(w, []string{"Counter", "Records"}, [][]string{
		{"Total", itoa(q.TotalRecords)},
		{"Automated", itoa(q.AutomatedRecords)},
		{"Unmerged", itoa(q.UnmergedRecords)},
		{"Eligible", itoa(q.EligibleRecords)},
		{"Missing createdAt", itoa(q.MissingCreatedAt)},
		{"Negative latency", itoa(q.NegativeLatency)},
		{"Out of range timestamps", itoa(q.OutOfRangeTimestamps)},
		{"Negative first interaction", itoa(q.NegativeFirstInteraction)},
	})
}
