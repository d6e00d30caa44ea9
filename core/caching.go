package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/source"
	"github.com/huangsam/prpulse/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL bounds how long a stored report is served.
const cacheTTL = 7 * 24 * time.Hour

// cachedAnalyze returns a stored report for the same inputs and parameters,
// or computes and stores a new one.
func cachedAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.Report, error) {
	activity := mgr.GetActivityStore()
	if activity == nil {
		// Fallback to direct computation
		return loadAndAnalyze(ctx, cfg)
	}

	key, err := generateCacheKey(cfg)
	if err != nil {
		return schema.Report{}, err
	}

	// Check for cache hit
	if result, ok := checkCacheHit(activity, key); ok {
		return result, nil
	}

	// Cache miss: compute and store
	return computeAndStore(ctx, cfg, activity, key)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(activity contract.CacheStore, key string) (schema.Report, bool) {
	data, version, ts, err := activity.Get(key)
	if err != nil || data == nil {
		return schema.Report{}, false
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return schema.Report{}, false
	}

	var result schema.Report
	if err := json.Unmarshal(data, &result); err != nil {
		return schema.Report{}, false
	}
	return result, true
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, activity contract.CacheStore, key string) (schema.Report, error) {
	result, err := loadAndAnalyze(ctx, cfg)
	if err != nil {
		return schema.Report{}, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := activity.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store report in cache", err)
		}
	}

	return result, nil
}

// generateCacheKey creates a unique key from the input contents and engine parameters.
func generateCacheKey(cfg *contract.Config) (string, error) {
	digest, err := source.Digest(cfg.Inputs)
	if err != nil {
		return "", err
	}
	params, err := json.Marshal(analysisParams(cfg))
	if err != nil {
		return "", fmt.Errorf("failed to encode parameters: %w", err)
	}
	key := fmt.Sprintf("%s:%s", digest, params)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}
