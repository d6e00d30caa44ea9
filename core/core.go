// Package core has core logic for loading, analysis orchestration and reporting.
package core

import (
	"context"
	"time"

	"github.com/huangsam/prpulse/core/algo"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/outwriter"
	"github.com/huangsam/prpulse/schema"
)

// ExecutorFunc defines the function signature for executing different analysis views.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// BuildReport loads the configured inputs and returns the full report without printing.
// It serves the MCP server, whose stdout carries the protocol.
func BuildReport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.Report, error) {
	return runAnalysisCore(withSuppressHeader(ctx), cfg, mgr)
}

// ExecuteHealth runs the per-contributor analysis and prints the health table.
// It serves as the main entry point for the 'health' command.
func ExecuteHealth(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	report, err := runAnalysisCore(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	report.Contributors = algo.RankHealth(report.Contributors, cfg.ResultLimit)
	return outwriter.PrintHealth(report, cfg, time.Since(start))
}

// ExecuteCohort runs the cohort analysis and prints ranking and bus factor.
func ExecuteCohort(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	report, err := runAnalysisCore(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintCohort(report, cfg, time.Since(start))
}

// ExecuteLifecycle runs the lifecycle analysis and prints merge latency metrics.
func ExecuteLifecycle(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	report, err := runAnalysisCore(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintLifecycle(report, cfg, time.Since(start))
}

// ExecuteRepos runs the repository analysis and prints velocity, summaries and timeline.
func ExecuteRepos(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	report, err := runAnalysisCore(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintRepos(report, cfg, time.Since(start))
}

// ExecuteReport runs every view and prints the combined report.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	report, err := runAnalysisCore(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintReport(report, cfg, time.Since(start))
}

// ExecuteMetrics displays the scoring formulas and thresholds.
// This is a static display that does not read any input.
func ExecuteMetrics(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return outwriter.PrintMetricsDefinitions(analysisParams(cfg), cfg)
}
