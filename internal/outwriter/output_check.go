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

// maxViolationsShown caps the violations listed in text output.
const maxViolationsShown = 5

// PrintCheck prints the check result in a concise format suitable for CI/CD.
func PrintCheck(result schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	return view{
		title:  "Health Check",
		data:   result,
		header: []string{"contributor", "risk_tier", "sustainability", "trend", "recent_count"},
		csvRows: func(w *csv.Writer) error {
			for _, v := range result.Violations {
				rec := []string{
					v.Profile.Name, string(v.Health.RiskTier), itoa(v.Health.Sustainability),
					string(v.Health.Trend), itoa(v.Profile.RecentCount),
				}
				if err := w.Write(rec); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
			return nil
		},
		markdown: func(w io.Writer) error {
			return writeCheckMarkdown(w, result)
		},
		families: func() []*dto.MetricFamily {
			return checkFamilies(result)
		},
		table: func(w io.Writer) error {
			return writeCheckText(w, result, cfg, duration)
		},
	}.write(cfg)
}

func failedTierNames(result schema.CheckResult) string {
	if len(result.FailedTiers) == 0 {
		return "none"
	}
	names := make([]string, len(result.FailedTiers))
	for i, t := range result.FailedTiers {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// writeCheckText prints the header, then the success or failure details.
func writeCheckText(w io.Writer, result schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	labels := []string{"Bus factor:", "Minimum:", "Fail tiers:"}
	values := []any{result.BusFactor, result.MinBusFactor, failedTierNames(result)}

	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}

	if err := writeLines(w, "Health Check Results:"); err != nil {
		return err
	}
	for i, label := range labels {
		if _, err := fmt.Fprintf(w, "  %-*s %v\n", maxLabelLen+1, label, values[i]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nChecked in %v\n\n", duration); err != nil {
		return err
	}

	if result.Passed {
		return writeLines(w, "✅ All health checks passed")
	}

	if result.BusFactor < result.MinBusFactor {
		if _, err := fmt.Fprintf(w, "❌ Bus factor %d is below the minimum of %d\n", result.BusFactor, result.MinBusFactor); err != nil {
			return err
		}
	}
	if len(result.Violations) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "❌ %d ranked contributor(s) in a failing tier\n", len(result.Violations)); err != nil {
		return err
	}
	for i, v := range result.Violations {
		if i >= maxViolationsShown {
			if _, err := fmt.Fprintf(w, "  ... and %d more\n", len(result.Violations)-i); err != nil {
				return err
			}
			break
		}
		if _, err := fmt.Fprintf(w, "  - %s (%s, sustainability %d, %s)\n",
			v.Profile.Name, tierLabel(v.Health.RiskTier, cfg), v.Health.Sustainability, v.Health.Trend); err != nil {
			return err
		}
	}
	return nil
}

// writeCheckMarkdown writes the check result as Markdown.
func writeCheckMarkdown(w io.Writer, result schema.CheckResult) error {
	status := "✅ Passed"
	if !result.Passed {
		status = "❌ Failed"
	}
	if err := writeLines(w,
		"# Health Check",
		"",
		fmt.Sprintf("- **Status:** %s", status),
		fmt.Sprintf("- **Bus factor:** %d (minimum %d)", result.BusFactor, result.MinBusFactor),
		fmt.Sprintf("- **Fail tiers:** %s", failedTierNames(result)),
		"",
	); err != nil {
		return err
	}
	rows := make([][]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		rows = append(rows, []string{v.Profile.Name, string(v.Health.RiskTier), itoa(v.Health.Sustainability)})
	}
	return writeMarkdownTable(w, []string{"Contributor", "Tier", "Sustainability"}, rows)
}
