package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/prpulse/core/agg"
	"github.com/huangsam/prpulse/core/algo"
	"github.com/huangsam/prpulse/core/cohort"
	"github.com/huangsam/prpulse/core/lifecycle"
	"github.com/huangsam/prpulse/core/norm"
	"github.com/huangsam/prpulse/core/repo"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/outwriter"
	"github.com/huangsam/prpulse/internal/source"
	"github.com/huangsam/prpulse/schema"
)

// Analyze runs the full engine over one set of records.
// The only source of time is params.Now, so equal inputs give equal reports.
// An error is returned only when ctx is cancelled before the worker pool drains.
func Analyze(ctx context.Context, records []schema.PullRequestRecord, params schema.Params) (schema.Report, error) {
	now := params.Now

	// --- 1. Normalization ---
	normalized := norm.Normalize(records)

	// --- 2. Aggregation ---
	profiles := agg.Aggregate(normalized, params.RecencyWindowMonths, now)

	// --- 3. Trend and score per contributor ---
	rows, err := evaluateProfiles(ctx, profiles, params)
	if err != nil {
		return schema.Report{}, err
	}

	// --- 4. Cohort, lifecycle and repository views ---
	opts := cohort.DefaultOptions(now)
	opts.MinPRs = params.MinimumPRThreshold
	opts.ActiveOnly = params.ActiveOnlyMode
	if params.CohortTopN > 0 {
		opts.TopN = params.CohortTopN
	}
	if params.InactiveTopN > 0 {
		opts.InactiveTopN = params.InactiveTopN
	}
	if !params.InactiveFloor.IsZero() {
		opts.InactiveFloor = params.InactiveFloor
	}
	summary := cohort.Analyze(profiles, normalized, opts)
	life := lifecycle.Compute(normalized, lifecycle.DefaultOptions(now))

	quality := norm.Quality(normalized)
	quality.MissingCreatedAt = life.Anomalies.MissingCreatedAt
	quality.NegativeLatency = life.Anomalies.NegativeLatency
	quality.OutOfRangeTimestamps = life.Anomalies.OutOfRangeTimestamps
	quality.NegativeFirstInteraction = life.Anomalies.NegativeFirstInteraction

	return schema.Report{
		GeneratedAt:  now,
		Params:       params,
		DataQuality:  quality,
		Contributors: algo.RankHealth(rows, 0),
		Cohort:       summary,
		Lifecycle:    life,
		Repositories: repo.Summaries(normalized, repo.DefaultTopContributors),
		Velocity:     repo.Velocity(normalized),
		Timeline:     repo.Timeline(normalized, repo.DefaultTimelineMonths),
	}, nil
}

// evaluateProfiles scores every profile in parallel using a worker pool.
// It spawns params.Workers goroutines and returns the rows in author order.
func evaluateProfiles(ctx context.Context, profiles map[string]*schema.ContributorProfile, params schema.Params) ([]schema.ContributorHealth, error) {
	names := agg.SortedNames(profiles)
	workers := max(1, params.Workers)

	nameCh := make(chan int, len(names))
	rows := make([]schema.ContributorHealth, len(names))
	var wg sync.WaitGroup

	for range workers {
		wg.Go(func() {
			for idx := range nameCh {
				if ctx.Err() != nil {
					continue // drain without work
				}
				// Each goroutine writes to a unique index, which is safe.
				rows[idx] = algo.Evaluate(profiles[names[idx]], params.RecencyWindowMonths)
			}
		})
	}

	for i := range names {
		nameCh <- i
	}
	close(nameCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("contributor analysis interrupted: %w", err)
	}
	return rows, nil
}

// runAnalysisCore performs the common Load, Cache and Analysis steps.
func runAnalysisCore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.Report, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogAnalysisHeader(cfg)
	}

	ctx = contextWithCacheManager(ctx, mgr)

	// --- 0. Begin Analysis Tracking (if configured) ---
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore != nil {
		configParams := map[string]any{
			"inputs":         inputNames(cfg.Inputs),
			"window":         cfg.WindowMonths,
			"min_prs":        cfg.MinPRs,
			"active_only":    cfg.ActiveOnly,
			"result_limit":   cfg.ResultLimit,
			"inactive_limit": cfg.InactiveLimit,
			"workers":        cfg.Workers,
			"now":            cfg.Now.UTC().Format(contract.DateTimeFormat),
		}
		analysisID, err := analysisStore.BeginAnalysis(time.Now(), configParams)
		if err != nil {
			contract.LogWarn("Analysis tracking initialization failed", err)
		} else if analysisID > 0 {
			ctx = withAnalysisID(ctx, analysisID)
		}
	}

	// --- 1. Load and Analyze (with caching) ---
	report, err := cachedAnalyze(ctx, cfg, mgr)
	if err != nil {
		return schema.Report{}, err
	}

	// --- 2. Record Contributor Rows and End Tracking ---
	if analysisID, ok := getAnalysisID(ctx); ok && analysisID > 0 {
		recordContributorHealth(ctx, analysisID, report)
		if err := analysisStore.EndAnalysis(analysisID, time.Now(), len(report.Contributors)); err != nil {
			contract.LogWarn("Failed to finalize analysis tracking", err)
		}
	}

	return report, nil
}

// loadAndAnalyze reads every input and runs the engine.
func loadAndAnalyze(ctx context.Context, cfg *contract.Config) (schema.Report, error) {
	records, err := source.LoadRecords(ctx, cfg.Inputs)
	if err != nil {
		return schema.Report{}, err
	}
	return Analyze(ctx, records, analysisParams(cfg))
}

// analysisParams returns the engine parameters for a config. Unpinned clocks
// are truncated to the cache granularity so a cached report matches a fresh one.
func analysisParams(cfg *contract.Config) schema.Params {
	params := cfg.Params()
	if !cfg.NowPinned {
		params.Now = cfg.GetAnalysisNow()
	}
	params.Now = params.Now.UTC()
	return params
}

// recordContributorHealth records every contributor row to the analysis store.
func recordContributorHealth(ctx context.Context, analysisID int64, report schema.Report) {
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return
	}

	now := time.Now()
	for _, c := range report.Contributors {
		record := schema.NewContributorHealthRecord(analysisID, now, c)
		if err := analysisStore.RecordContributorHealth(record); err != nil {
			logTrackingError("RecordContributorHealth", c.Profile.Name, err)
		}
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting analysis.
func logTrackingError(operation, name string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, name), err)
}

// inputNames joins the input specs for tracking metadata.
func inputNames(specs []schema.InputSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}
