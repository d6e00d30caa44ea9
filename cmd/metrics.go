package cmd

import (
	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/spf13/cobra"
)

// metricsCmd displays the formal definitions of all health scores.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display formulas, thresholds and tiers for all health scores",
	Long: `Show how each contributor score is computed and how it maps to a risk tier.

Provides complete transparency into the analysis, including:
- Score names and their formulas
- Trend thresholds that drive sustainability
- Risk tier boundaries
- The thresholds used for the current window

No input files are read - this is purely informational.

Examples:
  # Show default definitions
  prpulse metrics

  # Show definitions for a three month window as JSON
  prpulse metrics --window 3 --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetrics(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
