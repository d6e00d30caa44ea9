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

// PrintReport outputs the combined report. CSV carries the contributor rows only.
func PrintReport(report schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return view{
		title:  "Contributor Activity Report",
		data:   report,
		header: healthCSVHeader,
		csvRows: func(w *csv.Writer) error {
			return writeHealthCSVRows(w, report.Contributors, fmtFloat)
		},
		markdown: func(w io.Writer) error {
			return writeReportMarkdown(w, report, fmtFloat)
		},
		families: func() []*dto.MetricFamily {
			var families []*dto.MetricFamily
			families = append(families, contributorFamilies(report)...)
			families = append(families, cohortFamilies(report)...)
			families = append(families, lifecycleFamilies(report)...)
			families = append(families, repoFamilies(report)...)
			return append(families, qualityFamilies(report.DataQuality)...)
		},
		table: func(w io.Writer) error {
			return writeReportText(w, report, cfg, fmtFloat, duration)
		},
		report: report,
	}.write(cfg)
}

// writeReportMarkdown writes every section of the report as one Markdown document.
func writeReportMarkdown(w io.Writer, report schema.Report, fmtFloat func(float64) string) error {
	p := report.Params
	if err := writeLines(w,
		"# Contributor Activity Report",
		"",
		fmt.Sprintf("Generated %s with a %d-month window, minimum %d PRs, active only: %t.",
			report.GeneratedAt.UTC().Format(contract.DateTimeFormat), p.RecencyWindowMonths, p.MinimumPRThreshold, p.ActiveOnlyMode),
		"",
		"## Contributor health",
		"",
	); err != nil {
		return err
	}
	if err := writeHealthMarkdown(w, report.Contributors); err != nil {
		return err
	}
	if err := writeLines(w, "## Cohort", ""); err != nil {
		return err
	}
	if err := writeCohortMarkdown(w, report.Cohort, fmtFloat); err != nil {
		return err
	}
	if err := writeLines(w, "## PR lifecycle", ""); err != nil {
		return err
	}
	if err := writeLifecycleMarkdown(w, report.Lifecycle, fmtFloat); err != nil {
		return err
	}
	if err := writeReposMarkdown(w, report, fmtFloat); err != nil {
		return err
	}
	return writeQualityMarkdown(w, report.DataQuality)
}

// writeReportText writes every section of the report as text tables.
func writeReportText(w io.Writer, report schema.Report, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	sections := []struct {
		title string
		write func() error
	}{
		{"🩺 Contributor health", func() error { return writeHealthTable(w, report.Contributors, cfg, fmtFloat) }},
		{"👥 Cohort", func() error { return writeCohortText(w, report.Cohort, cfg, fmtFloat) }},
		{"⏱️  PR lifecycle", func() error { return writeLifecycleText(w, report.Lifecycle, fmtFloat) }},
		{"📦 Repositories", func() error { return writeReposText(w, report, cfg, fmtFloat) }},
	}
	for _, s := range sections {
		if err := writeLines(w, s.title, ""); err != nil {
			return err
		}
		if err := s.write(); err != nil {
			return err
		}
		if err := writeLines(w, ""); err != nil {
			return err
		}
	}
	if err := writeQualityFooter(w, report.DataQuality); err != nil {
		return err
	}
	return writeSummaryFooter(w, cfg, duration)
}
