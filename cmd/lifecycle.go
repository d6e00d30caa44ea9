package cmd

import (
	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/spf13/cobra"
)

// lifecycleCmd reports merge latency per month.
var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle [inputs...]",
	Short: "Show monthly time-to-merge and first interaction latency.",
	Long: `Measure how long pull requests wait before their first interaction and before merge.

Months are bucketed by merge date. Each month reports average and median
time to merge in hours, plus first interaction times when reviews or comments
are present. A latency distribution groups merged PRs from under a day
up to more than four weeks.

Examples:
  prpulse lifecycle api-prs.json
  prpulse lifecycle --output json api-prs.json web-prs.json`,
	PreRunE: inputSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteLifecycle(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run lifecycle analysis", err)
		}
	},
}
