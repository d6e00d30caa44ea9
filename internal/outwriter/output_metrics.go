package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/schema"
	dto "github.com/prometheus/client_model/go"
)

// PrintMetricsDefinitions displays the formal definitions of all scores, trends and tiers.
// This is a static display that does not read any input.
func PrintMetricsDefinitions(params schema.Params, cfg *contract.Config) error {
	renderModel := buildMetricsRenderModel(params)

	return view{
		title:  renderModel.Title,
		data:   renderModel,
		header: []string{"kind", "name", "purpose", "formula"},
		csvRows: func(w *csv.Writer) error {
			return writeCSVMetrics(w, renderModel)
		},
		markdown: func(w io.Writer) error {
			return writeMetricsMarkdown(w, renderModel)
		},
		families: func() []*dto.MetricFamily {
			return metricsFamilies(params)
		},
		table: func(w io.Writer) error {
			return printMetricsText(w, renderModel)
		},
	}.write(cfg)
}

// buildMetricsRenderModel constructs the complete render model with all processed data.
func buildMetricsRenderModel(params schema.Params) *schema.MetricsRenderModel {
	w := params.RecencyWindowMonths
	return &schema.MetricsRenderModel{
		Title:       "Contributor Health Scores",
		Description: "All scores are integers in [0,100], rounded half away from zero",
		Scores: []schema.MetricsScore{
			{Name: "activity", Purpose: "Recent pace relative to the historical pace", Formula: "min(100, recent / max(1, historical) * 100)"},
			{Name: "consistency", Purpose: "Penalizes long inactive stretches", Formula: "max(0, 100 - longestGap * 10)"},
			{Name: "workload", Purpose: "Historical volume, saturating at 10 PRs per month", Formula: "min(100, historical / 10 * 100)"},
			{Name: "diversity", Purpose: "Breadth across repositories", Formula: "0 repos: 0, 1: 30, 2: 70, 3+: 100"},
			{Name: "sustainability", Purpose: "Overall capacity risk", Formula: "100 - 40 (decreasing-significantly) or 20 (decreasing) - 20 (gap > 3) - 20 (recent < 1), floored at 0"},
		},
		Trends: []schema.MetricsRule{
			{Name: string(schema.TrendIncreasing), Condition: "recent > historical"},
			{Name: string(schema.TrendDecreasingSignificantly), Condition: "recent < 0.5 * historical"},
			{Name: string(schema.TrendDecreasing), Condition: "recent < historical"},
			{Name: string(schema.TrendStable), Condition: "otherwise"},
		},
		Tiers: []schema.MetricsRule{
			{Name: string(schema.TierHealthy), Condition: "sustainability >= 80"},
			{Name: string(schema.TierMonitor), Condition: "sustainability >= 60"},
			{Name: string(schema.TierAtRisk), Condition: "sustainability >= 40"},
			{Name: string(schema.TierCritical), Condition: "sustainability < 40"},
		},
		Cohort: []schema.MetricsRule{
			{Name: "recent", Condition: fmt.Sprintf("merged PRs in months starting within the last %d months, divided by %d", w, w)},
			{Name: "historical", Condition: "all merged PRs divided by distinct active months"},
			{Name: "ranking", Condition: fmt.Sprintf("authored >= %d PRs, active only: %t, top %d", params.MinimumPRThreshold, params.ActiveOnlyMode, params.CohortTopN)},
			{Name: "bus factor", Condition: "fewest top-ranked contributors reaching 50% of recent PRs"},
			{Name: "significant", Condition: "more than 10% of all merged human PRs"},
			{Name: "recently inactive", Condition: "no recent PRs and last activity after the inactive floor"},
		},
		Params: params,
	}
}

// writeCSVMetrics writes the metrics definitions in CSV format.
func writeCSVMetrics(w *csv.Writer, renderModel *schema.MetricsRenderModel) error {
	records := make([][]string, 0, len(renderModel.Scores)+len(renderModel.Trends)+len(renderModel.Tiers)+len(renderModel.Cohort))
	for _, s := range renderModel.Scores {
		records = append(records, []string{"score", s.Name, s.Purpose, s.Formula})
	}
	for _, group := range []struct {
		kind  string
		rules []schema.MetricsRule
	}{
		{"trend", renderModel.Trends},
		{"tier", renderModel.Tiers},
		{"cohort", renderModel.Cohort},
	} {
		for _, r := range group.rules {
			records = append(records, []string{group.kind, r.Name, "", r.Condition})
		}
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	return nil
}

// printMetricsText displays metrics in human-readable text format.
func printMetricsText(w io.Writer, renderModel *schema.MetricsRenderModel) error {
	if err := writeLines(w, "🩺 "+renderModel.Title, "==========================", "", renderModel.Description, ""); err != nil {
		return err
	}
	for _, s := range renderModel.Scores {
		if _, err := fmt.Fprintf(w, "%s: %s\n   Formula: %s\n\n", s.Name, s.Purpose, s.Formula); err != nil {
			return err
		}
	}
	for _, group := range []struct {
		title string
		rules []schema.MetricsRule
	}{
		{"📈 Trends (first match wins)", renderModel.Trends},
		{"🚦 Risk tiers", renderModel.Tiers},
		{"👥 Cohort rules", renderModel.Cohort},
	} {
		if err := writeLines(w, group.title); err != nil {
			return err
		}
		for _, r := range group.rules {
			if _, err := fmt.Fprintf(w, "   %-26s %s\n", r.Name, r.Condition); err != nil {
				return err
			}
		}
		if err := writeLines(w, ""); err != nil {
			return err
		}
	}
	return nil
}

// writeMetricsMarkdown writes the metrics definitions as Markdown.
func writeMetricsMarkdown(w io.Writer, renderModel *schema.MetricsRenderModel) error {
	if err := writeLines(w, "# "+renderModel.Title, "", renderModel.Description, "", "## Scores", ""); err != nil {
		return err
	}
	scores := make([][]string, 0, len(renderModel.Scores))
	for _, s := range renderModel.Scores {
		scores = append(scores, []string{s.Name, s.Purpose, s.Formula})
	}
	if err := writeMarkdownTable(w, []string{"Score", "Purpose", "Formula"}, scores); err != nil {
		return err
	}
	for _, group := range []struct {
		title string
		rules []schema.MetricsRule
	}{
		{"## Trends", renderModel.Trends},
		{"## Risk tiers", renderModel.Tiers},
		{"## Cohort rules", renderModel.Cohort},
	} {
		if err := writeLines(w, group.title, ""); err != nil {
			return err
		}
		rows := make([][]string, 0, len(group.rules))
		for _, r := range group.rules {
			rows = append(rows, []string{r.Name, r.Condition})
		}
		if err := writeMarkdownTable(w, []string{"Name", "Condition"}, rows); err != nil {
			return err
		}
	}
	return nil
}
