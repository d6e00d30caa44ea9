package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input with every required field set to its default.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Window:        DefaultWindowMonths,
		MinPRs:        DefaultMinPRs,
		ActiveOnly:    "yes",
		Limit:         DefaultResultLimit,
		InactiveLimit: DefaultInactiveLimit,
		Workers:       4,
		Precision:     1,
		Output:        "text",
		Color:         "no",
		CacheBackend:  string(schema.NoneBackend),
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{"valid minimal config", func(*ConfigRawInput) {}, false},
		{"window zero", func(in *ConfigRawInput) { in.Window = 0 }, true},
		{"window too large", func(in *ConfigRawInput) { in.Window = MaxWindowMonths + 1 }, true},
		{"negative min prs", func(in *ConfigRawInput) { in.MinPRs = -1 }, true},
		{"limit zero", func(in *ConfigRawInput) { in.Limit = 0 }, true},
		{"limit above max", func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 }, true},
		{"inactive limit zero", func(in *ConfigRawInput) { in.InactiveLimit = 0 }, true},
		{"workers zero", func(in *ConfigRawInput) { in.Workers = 0 }, true},
		{"precision three", func(in *ConfigRawInput) { in.Precision = 3 }, true},
		{"unknown output", func(in *ConfigRawInput) { in.Output = "xml" }, true},
		{"uppercase output", func(in *ConfigRawInput) { in.Output = "JSON" }, false},
		{"parquet without file", func(in *ConfigRawInput) { in.Output = "parquet" }, true},
		{"bad active only", func(in *ConfigRawInput) { in.ActiveOnly = "maybe" }, true},
		{"bad color", func(in *ConfigRawInput) { in.Color = "sometimes" }, true},
		{"absolute now", func(in *ConfigRawInput) { in.Now = "2025-11-03T10:00:00Z" }, false},
		{"relative now", func(in *ConfigRawInput) { in.Now = "2 months ago" }, false},
		{"bad now", func(in *ConfigRawInput) { in.Now = "yesterday" }, true},
		{"floor after now", func(in *ConfigRawInput) { in.Now = "2022-01-01"; in.InactiveFloor = "2022-06-01" }, true},
		{"default floor after now", func(in *ConfigRawInput) { in.Now = "2022-01-01"; in.InactiveFloor = DefaultInactiveFloor }, false},
		{"negative min bus factor", func(in *ConfigRawInput) { in.MinBusFactor = -1 }, true},
		{"bad fail tier", func(in *ConfigRawInput) { in.FailTiers = "Doomed" }, true},
		{"bad log level", func(in *ConfigRawInput) { in.LogLevel = "trace" }, true},
		{"bad log format", func(in *ConfigRawInput) { in.LogFormat = "xml" }, true},
		{"bad debounce", func(in *ConfigRawInput) { in.Debounce = "soon" }, true},
		{"invalid backend", func(in *ConfigRawInput) { in.CacheBackend = "redis" }, true},
		{"missing input file", func(in *ConfigRawInput) { in.Inputs = []string{"does-not-exist.json"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateResolvesValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "witness-prs.json")
	require.NoError(t, os.WriteFile(file, []byte("[]"), 0o644))

	input := validInput()
	input.Inputs = []string{file, "app=" + file + "," + file}
	input.Now = "2025-11-03T10:30:00Z"
	input.FailTiers = "critical, At-Risk"
	input.Debounce = "500ms"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, []schema.InputSpec{{Repository: "witness", Path: file}}, cfg.Inputs)
	assert.True(t, cfg.NowPinned)
	assert.Equal(t, time.Date(2025, time.November, 3, 10, 30, 0, 0, time.UTC), cfg.Now)
	assert.Equal(t, time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC), cfg.GetAnalysisNow())
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), cfg.InactiveFloor)
	assert.Equal(t, []schema.RiskTier{schema.TierAtRisk, schema.TierCritical}, cfg.FailTiers)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, DefaultServeAddr, cfg.Addr)
	assert.True(t, cfg.ActiveOnly)

	params := cfg.Params()
	assert.Equal(t, DefaultWindowMonths, params.RecencyWindowMonths)
	assert.Equal(t, DefaultResultLimit, params.CohortTopN)
	assert.Equal(t, cfg.Now, params.Now)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		conn        string
		expectError bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/prpulse", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/prpulse", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=prpulse", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=prpulse", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBackendConfigsSQLiteConflict(t *testing.T) {
	input := validInput()
	input.CacheBackend = "sqlite"
	input.AnalysisBackend = "sqlite"
	input.CacheDBConnect = "/tmp/same.db"
	input.AnalysisDBConnect = "/tmp/same.db"

	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different SQLite database files")

	input.AnalysisDBConnect = "/tmp/other.db"
	assert.NoError(t, ProcessAndValidate(&Config{}, input))
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Inputs:    []schema.InputSpec{{Repository: "a", Path: "a.json"}},
		FailTiers: []schema.RiskTier{schema.TierCritical},
	}
	clone := cfg.Clone()
	clone.Inputs[0].Repository = "changed"
	clone.FailTiers[0] = schema.TierHealthy

	assert.Equal(t, "a", cfg.Inputs[0].Repository)
	assert.Equal(t, schema.TierCritical, cfg.FailTiers[0])

	pinned := cfg.CloneWithNow(time.Unix(0, 0))
	assert.True(t, pinned.NowPinned)
	assert.False(t, cfg.NowPinned)
}

func TestParseRiskTiersString(t *testing.T) {
	tiers, err := ParseRiskTiersString("")
	require.NoError(t, err)
	assert.Empty(t, tiers)

	tiers, err = ParseRiskTiersString("monitor,MONITOR,healthy")
	require.NoError(t, err)
	assert.Equal(t, []schema.RiskTier{schema.TierHealthy, schema.TierMonitor}, tiers)

	_, err = ParseRiskTiersString("critical,fine")
	assert.Error(t, err)
}

func TestApplyToolArgs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "api-prs.json")
	require.NoError(t, os.WriteFile(file, []byte("[]"), 0o644))

	zero := 0
	negative := -1
	base := &Config{WindowMonths: 6, MinPRs: 1, ActiveOnly: true, ResultLimit: 15,
		InactiveFloor: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), FloorPinned: true}

	tests := []struct {
		name        string
		args        ToolArgs
		expectError string
	}{
		{"missing inputs", ToolArgs{}, "inputs is required"},
		{"blank inputs", ToolArgs{Inputs: " , "}, "inputs is required"},
		{"unreadable input", ToolArgs{Inputs: filepath.Join(dir, "missing.json")}, "not readable"},
		{"window too large", ToolArgs{Inputs: file, Window: MaxWindowMonths + 1}, "window must be"},
		{"negative min prs", ToolArgs{Inputs: file, MinPRs: &negative}, "min_prs cannot be negative"},
		{"bad active only", ToolArgs{Inputs: file, ActiveOnly: "maybe"}, "invalid active_only"},
		{"negative limit", ToolArgs{Inputs: file, Limit: -3}, "limit must be"},
		{"bad now", ToolArgs{Inputs: file, Now: "soonish"}, "invalid now"},
		{"now before explicit floor", ToolArgs{Inputs: file, Now: "2022-06-01"}, "inactive floor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ApplyToolArgs(base.Clone(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}

	t.Run("overrides applied", func(t *testing.T) {
		cfg := base.Clone()
		require.NoError(t, ApplyToolArgs(cfg, ToolArgs{
			Inputs: "web=" + file, Window: 3, MinPRs: &zero, ActiveOnly: "no", Limit: 5, Now: "2025-11-03T10:30:00Z",
		}))
		assert.Equal(t, []schema.InputSpec{{Repository: "web", Path: file}}, cfg.Inputs)
		assert.Equal(t, 3, cfg.WindowMonths)
		assert.Equal(t, 0, cfg.MinPRs)
		assert.False(t, cfg.ActiveOnly)
		assert.Equal(t, 5, cfg.ResultLimit)
		assert.True(t, cfg.NowPinned)
		assert.Equal(t, time.Date(2025, time.November, 3, 10, 30, 0, 0, time.UTC), cfg.Now)
		assert.Equal(t, 6, base.WindowMonths, "base config is untouched")
	})

	t.Run("default floor clamps to an earlier now", func(t *testing.T) {
		cfg := base.Clone()
		cfg.FloorPinned = false
		require.NoError(t, ApplyToolArgs(cfg, ToolArgs{Inputs: file, Now: "2022-06-01"}))
		want := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, cfg.Now)
		assert.Equal(t, want, cfg.InactiveFloor)
	})
}

func TestProcessAndValidateInactiveFloor(t *testing.T) {
	t.Run("default floor clamps to a historical now", func(t *testing.T) {
		input := validInput()
		input.Now = "2022-06-01"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input))
		assert.False(t, cfg.FloorPinned)
		assert.Equal(t, time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC), cfg.InactiveFloor)
	})

	t.Run("explicit floor is kept", func(t *testing.T) {
		input := validInput()
		input.Now = "2022-06-01"
		input.InactiveFloor = "2021-03-01"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input))
		assert.True(t, cfg.FloorPinned)
		assert.Equal(t, time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC), cfg.InactiveFloor)
	})
}
