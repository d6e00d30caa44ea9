package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/iocache"
	"github.com/huangsam/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

const sampleInput = `[
  {"number": 1, "author": {"login": "alice"}, "createdAt": "2025-09-01T10:00:00Z", "mergedAt": "2025-09-02T10:00:00Z", "state": "MERGED"},
  {"number": 2, "author": {"login": "alice"}, "createdAt": "2025-10-01T10:00:00Z", "mergedAt": "2025-10-01T12:00:00Z", "state": "MERGED"},
  {"number": 3, "author": {"login": "bob"}, "createdAt": "2024-01-10T10:00:00Z", "mergedAt": "2024-01-12T10:00:00Z", "state": "MERGED"},
  {"number": 4, "author": {"login": "dependabot[bot]"}, "createdAt": "2025-10-05T10:00:00Z", "mergedAt": "2025-10-05T11:00:00Z", "state": "MERGED"},
  {"number": 5, "author": {"login": "carol"}, "createdAt": "2025-10-07T10:00:00Z", "mergedAt": null, "state": "CLOSED"}
]`

// writeInput writes the sample input into a temp dir and returns its spec.
func writeInput(t *testing.T) schema.InputSpec {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api-prs.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleInput), 0o644))
	return schema.ParseInputSpec(path)
}

func testConfig(t *testing.T, output schema.OutputMode) *contract.Config {
	t.Helper()
	return &contract.Config{
		Inputs:        []schema.InputSpec{writeInput(t)},
		WindowMonths:  6,
		MinPRs:        1,
		ActiveOnly:    true,
		ResultLimit:   15,
		InactiveLimit: 10,
		InactiveFloor: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:           fixedNow,
		NowPinned:     true,
		Workers:       2,
		Precision:     1,
		Output:        output,
		OutputFile:    filepath.Join(t.TempDir(), "out"),
		MinBusFactor:  1,
	}
}

func nilStores() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil) // No caching for test
	mgr.On("GetAnalysisStore").Return(nil) // No analysis tracking for test
	return mgr
}

func ptrTime(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func ptrString(s string) *string {
	return &s
}

func sampleRecords() []schema.PullRequestRecord {
	return []schema.PullRequestRecord{
		{Author: ptrString("alice"), Repository: "api", CreatedAt: ptrTime("2025-09-01T10:00:00Z"), MergedAt: ptrTime("2025-09-02T10:00:00Z")},
		{Author: ptrString("alice"), Repository: "web", CreatedAt: ptrTime("2025-10-01T10:00:00Z"), MergedAt: ptrTime("2025-10-01T12:00:00Z")},
		{Author: ptrString("bob"), Repository: "api", CreatedAt: ptrTime("2024-01-10T10:00:00Z"), MergedAt: ptrTime("2024-01-12T10:00:00Z")},
		{Author: ptrString("dependabot[bot]"), Repository: "api", CreatedAt: ptrTime("2025-10-05T10:00:00Z"), MergedAt: ptrTime("2025-10-05T11:00:00Z")},
		{Author: ptrString("carol"), Repository: "web", CreatedAt: ptrTime("2025-10-07T10:00:00Z")},
		{Author: ptrString("dave"), Repository: "web", MergedAt: ptrTime("2025-08-07T10:00:00Z")},
		{Author: ptrString("erin"), Repository: "web", CreatedAt: ptrTime("2025-08-09T10:00:00Z"), MergedAt: ptrTime("2025-08-08T10:00:00Z")},
	}
}

func sampleParams(workers int) schema.Params {
	return schema.Params{
		RecencyWindowMonths: 6,
		MinimumPRThreshold:  1,
		ActiveOnlyMode:      true,
		CohortTopN:          15,
		InactiveTopN:        10,
		InactiveFloor:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:                 fixedNow,
		Workers:             workers,
	}
}

func TestAnalyze(t *testing.T) {
	report, err := Analyze(context.Background(), sampleRecords(), sampleParams(4))
	require.NoError(t, err)

	assert.Equal(t, fixedNow, report.GeneratedAt)

	names := make([]string, len(report.Contributors))
	for i, c := range report.Contributors {
		names[i] = c.Profile.Name
	}
	// dave and erin have merged records and count as active contributors.
	assert.Equal(t, []string{"alice", "dave", "erin", "bob"}, names)

	alice := report.Contributors[0]
	assert.Equal(t, 2, alice.Profile.TotalCount)
	assert.Equal(t, 2, alice.Profile.RecentCount)
	assert.Equal(t, []string{"api", "web"}, alice.Profile.Repositories)
	assert.Equal(t, 70, alice.Health.Diversity)

	bob := report.Contributors[3]
	assert.Equal(t, 0, bob.Profile.RecentCount)
	assert.Equal(t, schema.TrendDecreasingSignificantly, bob.Health.Trend)

	assert.Equal(t, schema.DataQuality{
		TotalRecords:     7,
		AutomatedRecords: 1,
		UnmergedRecords:  1,
		EligibleRecords:  5,
		MissingCreatedAt: 1,
		NegativeLatency:  1,
	}, report.DataQuality)
	assert.Equal(t, 2, report.DataQuality.Excluded())

	assert.Len(t, report.Cohort.Ranked, 3)
	assert.Equal(t, "alice", report.Cohort.Ranked[0].Name)
	assert.Equal(t, 1, report.Cohort.BusFactor) // alice holds half of recent activity
	require.Len(t, report.Cohort.RecentlyInactive, 1)
	assert.Equal(t, "bob", report.Cohort.RecentlyInactive[0].Name)

	assert.Equal(t, 3, report.Lifecycle.Overall.Count)
	assert.Len(t, report.Repositories, 2)
	assert.Len(t, report.Velocity, 2)
	assert.NotEmpty(t, report.Timeline)
}

func TestAnalyzeDeterministic(t *testing.T) {
	first, err := Analyze(context.Background(), sampleRecords(), sampleParams(1))
	require.NoError(t, err)
	second, err := Analyze(context.Background(), sampleRecords(), sampleParams(8))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAnalyzeEmpty(t *testing.T) {
	report, err := Analyze(context.Background(), nil, sampleParams(2))
	require.NoError(t, err)

	assert.Empty(t, report.Contributors)
	assert.Equal(t, 0, report.Cohort.BusFactor)
	assert.Empty(t, report.Cohort.Ranked)
	assert.Equal(t, 0, report.Lifecycle.Overall.Count)
	assert.Equal(t, schema.DataQuality{}, report.DataQuality)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Analyze(ctx, sampleRecords(), sampleParams(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeZeroWorkers(t *testing.T) {
	report, err := Analyze(context.Background(), sampleRecords(), sampleParams(0))
	require.NoError(t, err)
	assert.Len(t, report.Contributors, 4)
}

func TestExecuteReportJSON(t *testing.T) {
	ctx := withSuppressHeader(context.Background())
	mgr := nilStores()
	cfg := testConfig(t, schema.JSONOut)

	require.NoError(t, ExecuteReport(ctx, cfg, mgr))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var report schema.Report
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, fixedNow, report.GeneratedAt)
	assert.Len(t, report.Contributors, 2)
	assert.Equal(t, 5, report.DataQuality.TotalRecords)
	assert.Equal(t, "api", report.Repositories[0].Repository)

	mgr.AssertExpectations(t)
}

func TestExecuteViews(t *testing.T) {
	tests := []struct {
		name string
		exec ExecutorFunc
	}{
		{"health", ExecuteHealth},
		{"cohort", ExecuteCohort},
		{"lifecycle", ExecuteLifecycle},
		{"repos", ExecuteRepos},
		{"report", ExecuteReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := withSuppressHeader(context.Background())
			cfg := testConfig(t, schema.JSONOut)
			require.NoError(t, tt.exec(ctx, cfg, nilStores()))

			data, err := os.ReadFile(cfg.OutputFile)
			require.NoError(t, err)
			assert.True(t, json.Valid(data), "output should be valid JSON")
		})
	}
}

func TestExecuteMissingInput(t *testing.T) {
	ctx := withSuppressHeader(context.Background())
	cfg := testConfig(t, schema.JSONOut)
	cfg.Inputs = []schema.InputSpec{{Repository: "ghost", Path: "/nonexistent/ghost.json"}}

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(nil)

	err := ExecuteHealth(ctx, cfg, mgr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.json")
}

func TestExecuteMetrics(t *testing.T) {
	cfg := testConfig(t, schema.JSONOut)
	require.NoError(t, ExecuteMetrics(context.Background(), cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var model schema.MetricsRenderModel
	require.NoError(t, json.Unmarshal(data, &model))
	assert.Len(t, model.Scores, 5)
	assert.Len(t, model.Tiers, 4)
	assert.Equal(t, 6, model.Params.RecencyWindowMonths)
}

func TestBuildReport(t *testing.T) {
	cfg := testConfig(t, schema.TextOut)
	report, err := BuildReport(context.Background(), cfg, nilStores())
	require.NoError(t, err)
	assert.Len(t, report.Contributors, 2)
}

func TestRunAnalysisCoreTracking(t *testing.T) {
	ctx := withSuppressHeader(context.Background())
	cfg := testConfig(t, schema.JSONOut)

	store := &iocache.MockAnalysisStore{}
	store.On("BeginAnalysis", mock.AnythingOfType("time.Time"), mock.MatchedBy(func(p map[string]any) bool {
		return p["window"] == 6 && p["active_only"] == true
	})).Return(int64(7), nil)
	store.On("RecordContributorHealth", mock.MatchedBy(func(r schema.ContributorHealthRecord) bool {
		return r.AnalysisID == 7
	})).Return(nil).Times(2)
	store.On("EndAnalysis", int64(7), mock.AnythingOfType("time.Time"), 2).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(store)

	report, err := runAnalysisCore(ctx, cfg, mgr)
	require.NoError(t, err)
	assert.Len(t, report.Contributors, 2)

	store.AssertExpectations(t)
	mgr.AssertExpectations(t)
}

func TestRunAnalysisCoreTrackingBeginFails(t *testing.T) {
	ctx := withSuppressHeader(context.Background())
	cfg := testConfig(t, schema.JSONOut)

	store := &iocache.MockAnalysisStore{}
	store.On("BeginAnalysis", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(store)

	_, err := runAnalysisCore(ctx, cfg, mgr)
	require.NoError(t, err)

	store.AssertNotCalled(t, "RecordContributorHealth", mock.Anything)
	store.AssertNotCalled(t, "EndAnalysis", mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedAnalyzeMissStores(t *testing.T) {
	ctx := withSuppressHeader(context.Background())
	cfg := testConfig(t, schema.JSONOut)
	key, err := generateCacheKey(cfg)
	require.NoError(t, err)

	cache := &iocache.MockCacheStore{}
	cache.On("Get", key).Return(nil, 0, int64(0), assert.AnError)
	cache.On("Set", key, mock.AnythingOfType("[]uint8"), currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(cache)
	mgr.On("GetAnalysisStore").Return(nil)

	report, err := runAnalysisCore(ctx, cfg, mgr)
	require.NoError(t, err)
	assert.Len(t, report.Contributors, 2)

	cache.AssertExpectations(t)
}

func TestCachedAnalyzeHit(t *testing.T) {
	ctx := withSuppressHeader(context.Background())
	cfg := testConfig(t, schema.JSONOut)
	key, err := generateCacheKey(cfg)
	require.NoError(t, err)

	cached := schema.Report{GeneratedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	cache := &iocache.MockCacheStore{}
	cache.On("Get", key).Return(data, currentCacheVersion, time.Now().Unix(), nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(cache)
	mgr.On("GetAnalysisStore").Return(nil)

	report, err := runAnalysisCore(ctx, cfg, mgr)
	require.NoError(t, err)
	assert.Equal(t, cached.GeneratedAt, report.GeneratedAt)

	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckCacheHit(t *testing.T) {
	data, err := json.Marshal(schema.Report{GeneratedAt: fixedNow})
	require.NoError(t, err)
	fresh := time.Now().Unix()
	stale := time.Now().Add(-8 * 24 * time.Hour).Unix()

	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
		hit     bool
	}{
		{"fresh", data, currentCacheVersion, fresh, nil, true},
		{"stale", data, currentCacheVersion, stale, nil, false},
		{"old version", data, currentCacheVersion + 1, fresh, nil, false},
		{"corrupt", []byte("{"), currentCacheVersion, fresh, nil, false},
		{"missing", nil, 0, 0, assert.AnError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &iocache.MockCacheStore{}
			cache.On("Get", "k").Return(tt.data, tt.version, tt.ts, tt.err)

			report, ok := checkCacheHit(cache, "k")
			assert.Equal(t, tt.hit, ok)
			if tt.hit {
				assert.Equal(t, fixedNow, report.GeneratedAt)
			}
		})
	}
}

func TestGenerateCacheKey(t *testing.T) {
	cfg := testConfig(t, schema.JSONOut)

	key1, err := generateCacheKey(cfg)
	require.NoError(t, err)
	assert.Len(t, key1, 64)

	same, err := generateCacheKey(cfg.Clone())
	require.NoError(t, err)
	assert.Equal(t, key1, same)

	otherWindow := cfg.Clone()
	otherWindow.WindowMonths = 3
	key2, err := generateCacheKey(otherWindow)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2)

	otherNow := cfg.CloneWithNow(fixedNow.Add(time.Minute))
	key3, err := generateCacheKey(otherNow)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3)

	// Worker count does not change results, so it does not change the key.
	moreWorkers := cfg.Clone()
	moreWorkers.Workers = 32
	key4, err := generateCacheKey(moreWorkers)
	require.NoError(t, err)
	assert.Equal(t, key1, key4)
}

func TestAnalysisParamsTruncatesUnpinnedNow(t *testing.T) {
	cfg := testConfig(t, schema.JSONOut)
	cfg.Now = time.Date(2025, 11, 3, 10, 42, 7, 0, time.UTC)

	cfg.NowPinned = false
	assert.Equal(t, time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC), analysisParams(cfg).Now)

	cfg.NowPinned = true
	assert.Equal(t, cfg.Now, analysisParams(cfg).Now)
}

func BenchmarkAnalyze(b *testing.B) {
	records := make([]schema.PullRequestRecord, 0, 5000)
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5000 {
		author := string(rune('a'+i%26)) + "-dev"
		created := base.Add(time.Duration(i) * 3 * time.Hour)
		merged := created.Add(time.Duration(i%96) * time.Hour)
		records = append(records, schema.PullRequestRecord{
			Author: &author, Repository: []string{"api", "web", "cli"}[i%3],
			CreatedAt: &created, MergedAt: &merged,
		})
	}
	params := sampleParams(4)
	ctx := context.Background()

	for b.Loop() {
		_, _ = Analyze(ctx, records, params)
	}
}
