package cmd

import (
	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/spf13/cobra"
)

// reportCmd produces the complete report.
var reportCmd = &cobra.Command{
	Use:   "report [inputs...]",
	Short: "Produce the complete contributor activity report.",
	Long: `Run every analysis and emit a single report.

The report bundles contributor health, the cohort summary, lifecycle metrics,
repository summaries and data quality counts. Structured formats (json, yaml,
markdown, html, prom) are best suited for dashboards and archives.

Examples:
  # Full JSON report
  prpulse report --output json api-prs.json web-prs.json

  # Publish an HTML page
  prpulse report --output html --output-file pulse.html api-prs.json

  # Expose as Prometheus text for a node_exporter textfile collector
  prpulse report --output prom --output-file /var/lib/node_exporter/prpulse.prom api-prs.json`,
	PreRunE: inputSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReport(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build report", err)
		}
	},
}
