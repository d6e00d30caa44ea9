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

// PrintLifecycle outputs the PR lifecycle metrics, dispatching based on the output format configured.
func PrintLifecycle(report schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	l := report.Lifecycle
	return view{
		title:  "PR Lifecycle",
		data:   l,
		header: []string{"month", "count", "avg_merge_days", "median_merge_days", "avg_first_interaction_hours", "interaction_count"},
		csvRows: func(w *csv.Writer) error {
			for _, m := range l.Monthly {
				rec := []string{
					m.Month.String(), itoa(m.Count), fmtFloat(m.AvgMergeDays), fmtFloat(m.MedianMergeDays),
					formatOptional(m.AvgFirstInteractionHours, fmtFloat, ""), itoa(m.InteractionCount),
				}
				if err := w.Write(rec); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
			return nil
		},
		markdown: func(w io.Writer) error {
			if err := writeLines(w, "# PR Lifecycle", ""); err != nil {
				return err
			}
			if err := writeLifecycleMarkdown(w, l, fmtFloat); err != nil {
				return err
			}
			return writeQualityMarkdown(w, report.DataQuality)
		},
		families: func() []*dto.MetricFamily {
			return append(lifecycleFamilies(report), qualityFamilies(report.DataQuality)...)
		},
		table: func(w io.Writer) error {
			if err := writeLifecycleText(w, l, fmtFloat); err != nil {
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

// formatOptional formats a nullable value, using fallback when it is absent.
func formatOptional(v *float64, fmtFloat func(float64) string, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmtFloat(*v)
}

func lifecycleMonthRows(l schema.LifecycleResult, fmtFloat func(float64) string) [][]string {
	rows := make([][]string, 0, len(l.Monthly))
	for _, m := range l.Monthly {
		rows = append(rows, []string{
			m.Month.String(), itoa(m.Count), fmtFloat(m.AvgMergeDays), fmtFloat(m.MedianMergeDays),
			formatOptional(m.AvgFirstInteractionHours, fmtFloat, "-"), itoa(m.InteractionCount),
		})
	}
	return rows
}

func lifecycleBucketRows(l schema.LifecycleResult, fmtFloat func(float64) string) [][]string {
	rows := make([][]string, 0, len(l.Distribution))
	for _, b := range l.Distribution {
		rows = append(rows, []string{b.Name, itoa(b.Count), fmtFloat(b.Percentage) + "%"})
	}
	return rows
}

var (
	lifecycleMonthHeader  = []string{"Month", "PRs", "Avg days", "Median days", "First response h", "Responses"}
	lifecycleBucketHeader = []string{"Time to merge", "PRs", "Share"}
)

// writeLifecycleText writes the monthly table, the latency distribution and the overall line.
func writeLifecycleText(w io.Writer, l schema.LifecycleResult, fmtFloat func(float64) string) error {
	if err := writeTable(w, lifecycleMonthHeader, lifecycleMonthRows(l, fmtFloat)); err != nil {
		return err
	}
	if err := writeTable(w, lifecycleBucketHeader, lifecycleBucketRows(l, fmtFloat)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "⏱️  Overall: %d PRs, avg %s days, median %s days\n",
		l.Overall.Count, fmtFloat(l.Overall.AvgMergeDays), fmtFloat(l.Overall.MedianMergeDays))
	return err
}

// writeLifecycleMarkdown writes the lifecycle sections as Markdown.
func writeLifecycleMarkdown(w io.Writer, l schema.LifecycleResult, fmtFloat func(float64) string) error {
	if err := writeLines(w,
		fmt.Sprintf("- **Merged PRs measured:** %d", l.Overall.Count),
		fmt.Sprintf("- **Average time to merge:** %s days", fmtFloat(l.Overall.AvgMergeDays)),
		fmt.Sprintf("- **Median time to merge:** %s days", fmtFloat(l.Overall.MedianMergeDays)),
		"",
		"## Monthly",
		"",
	); err != nil {
		return err
	}
	if err := writeMarkdownTable(w, lifecycleMonthHeader, lifecycleMonthRows(l, fmtFloat)); err != nil {
		return err
	}
	if err := writeLines(w, "## Distribution", ""); err != nil {
		return err
	}
	return writeMarkdownTable(w, lifecycleBucketHeader, lifecycleBucketRows(l, fmtFloat))
}
