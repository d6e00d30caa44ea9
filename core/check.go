package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/outwriter"
	"github.com/huangsam/prpulse/schema"
)

// ErrCheckFailed is returned by ExecuteCheck when the gate does not pass.
var ErrCheckFailed = errors.New("health check failed")

// ExecuteCheck runs the check command for CI/CD gating.
// It fails when the bus factor is below the minimum or when a ranked
// contributor sits in one of the failing risk tiers.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	report, err := runAnalysisCore(ctx, cfg, mgr)
	if err != nil {
		return err
	}

	result := BuildCheckResult(report, cfg.MinBusFactor, cfg.FailTiers)
	if err := outwriter.PrintCheck(result, cfg, time.Since(start)); err != nil {
		return err
	}
	if !result.Passed {
		return fmt.Errorf("%w: %d violation(s), bus factor %d (min %d)",
			ErrCheckFailed, len(result.Violations), result.BusFactor, result.MinBusFactor)
	}
	return nil
}

// BuildCheckResult evaluates the gate against a report.
// Violations keep the cohort ranking order.
func BuildCheckResult(report schema.Report, minBusFactor int, failTiers []schema.RiskTier) schema.CheckResult {
	byName := make(map[string]schema.ContributorHealth, len(report.Contributors))
	for _, c := range report.Contributors {
		byName[c.Profile.Name] = c
	}

	violations := []schema.ContributorHealth{}
	for _, r := range report.Cohort.Ranked {
		c, ok := byName[r.Name]
		if ok && slices.Contains(failTiers, c.Health.RiskTier) {
			violations = append(violations, c)
		}
	}

	tiers := slices.Clone(failTiers)
	if tiers == nil {
		tiers = []schema.RiskTier{}
	}

	busFactor := report.Cohort.BusFactor
	return schema.CheckResult{
		Passed:       busFactor >= minBusFactor && len(violations) == 0,
		BusFactor:    busFactor,
		MinBusFactor: minBusFactor,
		FailedTiers:  tiers,
		Violations:   violations,
	}
}
