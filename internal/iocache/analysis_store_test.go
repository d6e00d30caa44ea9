package iocache

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/prpulse/internal/parquet"
	"github.com/huangsam/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

func healthRecord(id int64, name string, last *time.Time) schema.ContributorHealthRecord {
	return schema.ContributorHealthRecord{
		AnalysisID:            id,
		Contributor:           name,
		AnalysisTime:          fixedNow,
		TotalCount:            12,
		RecentCount:           4,
		RepositoryCount:       2,
		ActiveMonths:          7,
		LongestGapMonths:      3,
		HistoricalAvgPerMonth: 1.5,
		RecentAvgPerMonth:     0.67,
		ScoreActivity:         45,
		ScoreConsistency:      50,
		ScoreWorkload:         10,
		ScoreDiversity:        30,
		ScoreSustainability:   64,
		Trend:                 string(schema.TrendDecreasing),
		RiskTier:              string(schema.TierMonitor),
		LastActivity:          last,
	}
}

func TestAnalysisStoreNoneBackend(t *testing.T) {
	store, err := NewAnalysisStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	analysisID, err := store.BeginAnalysis(fixedNow, map[string]any{"window": 6})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), analysisID)

	assert.NoError(t, store.EndAnalysis(1, fixedNow, 10))
	assert.NoError(t, store.RecordContributorHealth(healthRecord(1, "alice", nil)))

	runs, err := store.GetAllAnalysisRuns()
	assert.NoError(t, err)
	assert.Nil(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestAnalysisStoreSQLite(t *testing.T) {
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	params := map[string]any{"window": 6, "inputs": []string{"api=api.json"}}
	analysisID, err := store.BeginAnalysis(fixedNow, params)
	require.NoError(t, err)
	assert.Greater(t, analysisID, int64(0))

	last := fixedNow.AddDate(0, -1, 0)
	require.NoError(t, store.RecordContributorHealth(healthRecord(analysisID, "bob", &last)))
	require.NoError(t, store.RecordContributorHealth(healthRecord(analysisID, "alice", nil)))

	// Duplicate contributor in the same run violates the primary key
	assert.Error(t, store.RecordContributorHealth(healthRecord(analysisID, "alice", nil)))

	require.NoError(t, store.EndAnalysis(analysisID, fixedNow.Add(1500*time.Millisecond), 2))

	runs, err := store.GetAllAnalysisRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, analysisID, run.AnalysisID)
	assert.True(t, fixedNow.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	assert.Equal(t, int32(2), run.TotalContributorsAnalyzed)
	require.NotNil(t, run.ConfigParams)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(*run.ConfigParams), &decoded))
	assert.Equal(t, float64(6), decoded["window"])

	rows, err := store.GetAllContributorHealth()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].Contributor)
	assert.Nil(t, rows[0].LastActivity)
	assert.Equal(t, "bob", rows[1].Contributor)
	require.NotNil(t, rows[1].LastActivity)
	assert.True(t, last.Equal(*rows[1].LastActivity))
	assert.Equal(t, healthRecord(analysisID, "bob", rows[1].LastActivity), rows[1])

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, analysisID, status.LastRunID)
	assert.Equal(t, 2, status.TotalContributorsAnalyzed)
	assert.Equal(t, int64(1), status.TableSizes[analysisRunsTable])
	assert.Equal(t, int64(2), status.TableSizes[contributorHealthTable])
}

func TestAnalysisStoreEndUnknownRun(t *testing.T) {
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndAnalysis(999, fixedNow, 0))
}

func TestExportAnalysis(t *testing.T) {
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	out := filepath.Join(t.TempDir(), "export")
	err = ExportAnalysis(store, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analysis data")

	id, err := store.BeginAnalysis(fixedNow, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordContributorHealth(healthRecord(id, "carol", nil)))
	require.NoError(t, store.EndAnalysis(id, fixedNow.Add(time.Second), 1))

	require.NoError(t, ExportAnalysis(store, out))

	runs, err := parquet.ReadAnalysisRunsParquet(out + ".analysis_runs.parquet")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].AnalysisID)

	health, err := parquet.ReadContributorHealthParquet(out + ".contributor_health.parquet")
	require.NoError(t, err)
	require.Len(t, health, 1)
	assert.Equal(t, "carol", health[0].Contributor)

	assert.Error(t, ExportAnalysis(store, ""))
	assert.Error(t, ExportAnalysis(nil, out))
}

func TestExportAnalysisWithMock(t *testing.T) {
	store := &MockAnalysisStore{}
	store.On("GetStatus").Return(schema.AnalysisStatus{TotalRuns: 1, TableSizes: map[string]int64{}}, nil)
	store.On("GetAllAnalysisRuns").Return(nil, assert.AnError)

	err := ExportAnalysis(store, filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertExpectations(t)
}
