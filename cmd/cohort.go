package cmd

import (
	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/spf13/cobra"
)

// cohortCmd ranks the active cohort and computes the bus factor.
var cohortCmd = &cobra.Command{
	Use:   "cohort [inputs...]",
	Short: "Rank the contributor cohort and compute the bus factor.",
	Long: `Rank contributors by recent activity and summarize who the project depends on.

Shows:
- Ranked contributors with their share of recent activity
- Bus factor: fewest top contributors covering half of recent activity
- Significant contributors (more than 10% of PRs)
- Recently inactive contributors still above the inactive floor
- Top repositories, collaborations and maintainers

Examples:
  # Rank only contributors active in the last six months
  prpulse cohort api-prs.json web-prs.json

  # Include inactive contributors with at least three PRs
  prpulse cohort --active-only no --min-prs 3 api-prs.json`,
	PreRunE: inputSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCohort(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run cohort analysis", err)
		}
	},
}
