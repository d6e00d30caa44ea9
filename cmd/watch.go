package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/watch"
	"github.com/spf13/cobra"
)

// watchCmd re-runs the report whenever an input changes.
var watchCmd = &cobra.Command{
	Use:   "watch [inputs...]",
	Short: "Re-run the report whenever an input file changes",
	Long: `Run the report once, then again each time one of the input files is written.

Changes are debounced so a burst of writes (for example a fresh
'gh pr list' export) triggers a single run. Stop with Ctrl+C.

Examples:
  prpulse watch api-prs.json web-prs.json

  # Keep an HTML page up to date
  prpulse watch --output html --output-file pulse.html --debounce 5s api-prs.json`,
	PreRunE: inputSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		paths := make([]string, 0, len(cfg.Inputs))
		for _, spec := range cfg.Inputs {
			paths = append(paths, spec.Path)
		}
		// Only the first run prints the analysis header
		first := true
		run := func(ctx context.Context) error {
			if !first {
				ctx = core.WithSuppressHeader(ctx)
			}
			first = false
			return core.ExecuteReport(ctx, cfg, cacheManager)
		}
		if err := watch.Watch(ctx, paths, cfg.Debounce, run); err != nil {
			contract.LogFatal("Cannot watch inputs", err)
		}
	},
}
