package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/httpapi"
	"github.com/spf13/cobra"
)

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PR Pulse HTTP API",
	Long: `Serve the analysis over HTTP.

Endpoints:
  GET  /healthz     - liveness probe
  POST /v1/analyze  - analyze {"params": {...}, "records": [...]} and return the report

Request parameters fall back to the configured flags (window, min-prs,
active-only, limit, inactive-limit, inactive-floor).

Examples:
  prpulse serve --addr :9090
  prpulse serve --log-level debug --log-format console`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := httpapi.Serve(ctx, cfg); err != nil {
			contract.LogFatal("HTTP server failed", err)
		}
	},
}
