package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/huangsam/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthRow(name string, tier schema.RiskTier) schema.ContributorHealth {
	return schema.ContributorHealth{
		Profile: schema.ContributorProfile{Name: name},
		Health:  schema.HealthIndicator{RiskTier: tier},
	}
}

func TestBuildCheckResult(t *testing.T) {
	report := schema.Report{
		Contributors: []schema.ContributorHealth{
			healthRow("alice", schema.TierHealthy),
			healthRow("bob", schema.TierAtRisk),
			healthRow("carol", schema.TierCritical),
			healthRow("dave", schema.TierCritical),
		},
		Cohort: schema.CohortSummary{
			BusFactor: 2,
			// dave is inactive and unranked, so that row never fails the gate.
			Ranked: []schema.RankedContributor{{Name: "carol"}, {Name: "alice"}, {Name: "bob"}},
		},
	}

	tests := []struct {
		name       string
		minBF      int
		tiers      []schema.RiskTier
		passed     bool
		violations []string
	}{
		{"no tiers passes", 2, nil, true, []string{}},
		{"bus factor too low", 3, nil, false, []string{}},
		{"critical fails", 1, []schema.RiskTier{schema.TierCritical}, false, []string{"carol"}},
		{"ranked order kept", 1, []schema.RiskTier{schema.TierAtRisk, schema.TierCritical}, false, []string{"carol", "bob"}},
		{"monitor only passes", 1, []schema.RiskTier{schema.TierMonitor}, true, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildCheckResult(report, tt.minBF, tt.tiers)
			assert.Equal(t, tt.passed, result.Passed)
			assert.Equal(t, 2, result.BusFactor)
			assert.Equal(t, tt.minBF, result.MinBusFactor)
			assert.NotNil(t, result.FailedTiers)

			names := make([]string, len(result.Violations))
			for i, v := range result.Violations {
				names[i] = v.Profile.Name
			}
			assert.Equal(t, tt.violations, names)
		})
	}
}

func TestExecuteCheck(t *testing.T) {
	t.Run("passes", func(t *testing.T) {
		ctx := withSuppressHeader(context.Background())
		cfg := testConfig(t, schema.JSONOut)
		cfg.MinBusFactor = 1

		require.NoError(t, ExecuteCheck(ctx, cfg, nilStores()))

		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		var result schema.CheckResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.True(t, result.Passed)
		assert.Equal(t, 1, result.BusFactor)
	})

	t.Run("fails on bus factor", func(t *testing.T) {
		ctx := withSuppressHeader(context.Background())
		cfg := testConfig(t, schema.JSONOut)
		cfg.MinBusFactor = 3

		err := ExecuteCheck(ctx, cfg, nilStores())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCheckFailed))

		data, readErr := os.ReadFile(cfg.OutputFile)
		require.NoError(t, readErr)
		var result schema.CheckResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.False(t, result.Passed)
		assert.Equal(t, 3, result.MinBusFactor)
	})
}
