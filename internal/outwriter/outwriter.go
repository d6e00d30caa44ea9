// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/parquet"
	"github.com/huangsam/prpulse/schema"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/term"
)

// view bundles the renderers of one command for every output format.
// A nil renderer means the format falls back to the contributor rows.
type view struct {
	title    string
	data     any
	header   []string
	csvRows  func(*csv.Writer) error
	markdown func(io.Writer) error
	families func() []*dto.MetricFamily
	table    func(io.Writer) error
	report   schema.Report
}

// write dispatches a view based on the output format configured.
func (v view) write(cfg *contract.Config) error {
	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, v.data)
		}, "Wrote JSON")
	case schema.YAMLOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, v.data)
		}, "Wrote YAML")
	case schema.CSVOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, v.header, v.csvRows)
		}, "Wrote CSV")
	case schema.MarkdownOut:
		err = writeWithFile(cfg.OutputFile, v.markdown, "Wrote Markdown")
	case schema.HTMLOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHTML(w, v.title, v.markdown)
		}, "Wrote HTML")
	case schema.PromOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFamilies(w, v.families())
		}, "Wrote metrics")
	case schema.ParquetOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteRows(w, parquet.FromReport(v.report))
		}, "Wrote Parquet")
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, v.table, "Wrote table")
	}
	if err != nil {
		return fmt.Errorf("error writing %s output: %w", cfg.Output, err)
	}
	return nil
}

// LogAnalysisHeader prints a concise, 2-line header for each analysis run to stderr.
func LogAnalysisHeader(cfg *contract.Config) {
	repos := make([]string, 0, len(cfg.Inputs))
	for _, in := range cfg.Inputs {
		repos = append(repos, in.Repository)
	}
	if len(repos) == 0 {
		repos = append(repos, "none")
	}

	// Line 1: The analysis summary (Repositories and window)
	_, _ = fmt.Fprintf(os.Stderr, "🔎 Repos: %s (Window: %d months)\n", strings.Join(repos, ", "), cfg.WindowMonths)

	// Line 2: The reference time being analyzed
	_, _ = fmt.Fprintf(os.Stderr, "📅 Now: %s (min PRs: %d, active only: %t)\n",
		cfg.Now.UTC().Format(contract.DateTimeFormat), cfg.MinPRs, cfg.ActiveOnly)
}

// GetMaxTableNameWidth calculates the maximum width for contributor names in table output
// based on terminal width and the width used by the other columns.
func GetMaxTableNameWidth(cfg *contract.Config, fixedColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for table borders, separators, and padding
	available := termWidth - fixedColumns - 20
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}

// tierLabel returns the risk tier with or without console colors.
func tierLabel(tier schema.RiskTier, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorLabel(tier)
	}
	return string(tier)
}

// writeSummaryFooter writes the timing line shared by every text view.
func writeSummaryFooter(w io.Writer, cfg *contract.Config, duration time.Duration) error {
	_, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}
