package cmd

import (
	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/spf13/cobra"
)

// reposCmd summarizes each repository.
var reposCmd = &cobra.Command{
	Use:   "repos [inputs...]",
	Short: "Show merge velocity and a monthly timeline per repository.",
	Long: `Summarize every repository found in the inputs.

Shows merged PR velocity over the window, contributor counts, and a
monthly timeline of merged PRs.

Examples:
  prpulse repos api=api-prs.json web=web-prs.json
  prpulse repos --output markdown --output-file repos.md api-prs.json`,
	PreRunE: inputSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRepos(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run repository analysis", err)
		}
	},
}
