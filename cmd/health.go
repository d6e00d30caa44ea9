package cmd

import (
	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/spf13/cobra"
)

// healthCmd scores every contributor and ranks them by risk.
var healthCmd = &cobra.Command{
	Use:   "health [inputs...]",
	Short: "Show contributor health scores ranked by risk.",
	Long: `Score each contributor found in the PR exports on five dimensions and rank them by risk.

Each input is a JSON file produced by 'gh pr list --json ...'. Prefix a file with
'name=' to set its repository name; otherwise the name is derived from the file name
(api-prs.json becomes "api").

Scores (0-100):
- Activity       - recent monthly PR rate against the historical rate
- Consistency    - penalizes the longest stretch of inactive months
- Workload       - historical volume, saturating at 10 PRs per month
- Diversity      - number of repositories touched
- Sustainability - trend-driven health that decides the risk tier

Run 'prpulse metrics' for the exact formulas.

Examples:
  # Score contributors across two repositories
  prpulse health api-prs.json web-prs.json

  # Use a three month window and a fixed reference date
  prpulse health --window 3 --now 2025-11-01 api-prs.json

  # Export to CSV for a spreadsheet
  prpulse health --output csv --output-file health.csv core=api-prs.json`,
	PreRunE: inputSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteHealth(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run health analysis", err)
		}
	},
}
