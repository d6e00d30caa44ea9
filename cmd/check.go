package cmd

import (
	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check [inputs...]",
	Short: "Enforce contributor health thresholds for CI/CD pipelines (fails build on violations)",
	Long: `Analyze the PR exports and enforce a contributor health policy.

Designed for scheduled CI jobs - exits with a non-zero code when:
- The bus factor falls below --min-bus-factor (default: 2)
- Any ranked contributor sits in one of the --fail-tiers (default: Critical)

Use cases:
- Weekly health gate on a team's repositories
- Alerting when knowledge concentrates on too few people
- Tracking recovery after onboarding new maintainers

Examples:
  # Default policy
  prpulse check api-prs.json web-prs.json

  # Stricter gate that also fails on At-Risk contributors
  prpulse check --min-bus-factor 3 --fail-tiers "Critical,At-Risk" api-prs.json

  # Emit the result as Prometheus metrics
  prpulse check --output prom --output-file check.prom api-prs.json`,
	PreRunE: inputSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCheck(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Policy check failed", err)
		}
	},
}
