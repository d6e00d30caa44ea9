package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable      = "prpulse_analysis_runs"
	contributorHealthTable = "prpulse_contributor_health"
)

// analysisTables lists the tracking tables in creation order.
var analysisTables = []string{analysisRunsTable, contributorHealthTable}

// contributorHealthColumns is the column order used for inserts and selects.
const contributorHealthColumns = `analysis_id, contributor, analysis_time, total_count, recent_count,
	repository_count, active_months, longest_gap_months, historical_avg_per_month, recent_avg_per_month,
	score_activity, score_consistency, score_workload, score_diversity, score_sustainability,
	trend, risk_tier, last_activity`

// contributorHealthColumnCount must match contributorHealthColumns.
const contributorHealthColumnCount = 18

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables creates the analysis tracking tables.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{analysisRunsTable, getCreateAnalysisRunsQuery(backend)},
		{contributorHealthTable, getCreateContributorHealthQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateAnalysisRunsQuery returns the CREATE TABLE query for prpulse_analysis_runs.
func getCreateAnalysisRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(analysisRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_contributors_analyzed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_contributors_analyzed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_contributors_analyzed INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateContributorHealthQuery returns the CREATE TABLE query for prpulse_contributor_health.
func getCreateContributorHealthQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(contributorHealthTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				contributor VARCHAR(255) NOT NULL,
				analysis_time DATETIME(6) NOT NULL,
				total_count INT NOT NULL,
				recent_count INT NOT NULL,
				repository_count INT NOT NULL,
				active_months INT NOT NULL,
				longest_gap_months INT NOT NULL,
				historical_avg_per_month DOUBLE NOT NULL,
				recent_avg_per_month DOUBLE NOT NULL,
				score_activity INT NOT NULL,
				score_consistency INT NOT NULL,
				score_workload INT NOT NULL,
				score_diversity INT NOT NULL,
				score_sustainability INT NOT NULL,
				trend VARCHAR(32) NOT NULL,
				risk_tier VARCHAR(16) NOT NULL,
				last_activity DATETIME(6),
				PRIMARY KEY (analysis_id, contributor)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				contributor TEXT NOT NULL,
				analysis_time TIMESTAMPTZ NOT NULL,
				total_count INT NOT NULL,
				recent_count INT NOT NULL,
				repository_count INT NOT NULL,
				active_months INT NOT NULL,
				longest_gap_months INT NOT NULL,
				historical_avg_per_month DOUBLE PRECISION NOT NULL,
				recent_avg_per_month DOUBLE PRECISION NOT NULL,
				score_activity INT NOT NULL,
				score_consistency INT NOT NULL,
				score_workload INT NOT NULL,
				score_diversity INT NOT NULL,
				score_sustainability INT NOT NULL,
				trend TEXT NOT NULL,
				risk_tier TEXT NOT NULL,
				last_activity TIMESTAMPTZ,
				PRIMARY KEY (analysis_id, contributor)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER NOT NULL,
				contributor TEXT NOT NULL,
				analysis_time TEXT NOT NULL,
				total_count INTEGER NOT NULL,
				recent_count INTEGER NOT NULL,
				repository_count INTEGER NOT NULL,
				active_months INTEGER NOT NULL,
				longest_gap_months INTEGER NOT NULL,
				historical_avg_per_month REAL NOT NULL,
				recent_avg_per_month REAL NOT NULL,
				score_activity INTEGER NOT NULL,
				score_consistency INTEGER NOT NULL,
				score_workload INTEGER NOT NULL,
				score_diversity INTEGER NOT NULL,
				score_sustainability INTEGER NOT NULL,
				trend TEXT NOT NULL,
				risk_tier TEXT NOT NULL,
				last_activity TEXT,
				PRIMARY KEY (analysis_id, contributor)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is a no-op.
func (as *AnalysisStoreImpl) disabled() bool {
	return as.backend == schema.NoneBackend || as.db == nil
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error) {
	if as.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING analysis_id`, quotedTableName)
		err = as.db.QueryRow(query, formatTime(startTime, as.backend), string(configJSON)).Scan(&analysisID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, quotedTableName)
		var result sql.Result
		result, err = as.db.Exec(query, formatTime(startTime, as.backend), string(configJSON))
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis updates the analysis run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalContributors int) error {
	if as.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)

	var startTime sqlTime
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quotedTableName, placeholder(as.backend, 1))
	if err := as.db.QueryRow(query, analysisID).Scan(&startTime); err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	durationMs := endTime.Sub(startTime.Time).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_contributors_analyzed = %s WHERE analysis_id = %s`,
		quotedTableName,
		placeholder(as.backend, 1), placeholder(as.backend, 2), placeholder(as.backend, 3), placeholder(as.backend, 4))
	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, totalContributors, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordContributorHealth stores the flattened health row of one contributor.
func (as *AnalysisStoreImpl) RecordContributorHealth(r schema.ContributorHealthRecord) error {
	if as.disabled() {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(contributorHealthTable, as.backend),
		contributorHealthColumns,
		placeholders(as.backend, contributorHealthColumnCount))

	var lastActivity any
	if r.LastActivity != nil {
		lastActivity = formatTime(*r.LastActivity, as.backend)
	}

	_, err := as.db.Exec(query,
		r.AnalysisID, r.Contributor, formatTime(r.AnalysisTime, as.backend),
		r.TotalCount, r.RecentCount, r.RepositoryCount, r.ActiveMonths, r.LongestGapMonths,
		r.HistoricalAvgPerMonth, r.RecentAvgPerMonth,
		r.ScoreActivity, r.ScoreConsistency, r.ScoreWorkload, r.ScoreDiversity, r.ScoreSustainability,
		r.Trend, r.RiskTier, lastActivity,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contributor health for %s: %w", r.Contributor, err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.disabled() {
		return status, nil
	}

	runs := quoteTableName(analysisRunsTable, as.backend)

	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest sqlTime
		lastRunQuery := fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs)
		if err := as.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = last.Time

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs)
		if err := as.db.QueryRow(oldestRunQuery).Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest.Time

		totalQuery := fmt.Sprintf("SELECT COALESCE(SUM(total_contributors_analyzed), 0) FROM %s", runs)
		if err := as.db.QueryRow(totalQuery).Scan(&status.TotalContributorsAnalyzed); err != nil {
			return status, fmt.Errorf("failed to get total contributors analyzed: %w", err)
		}
	}

	for _, table := range analysisTables {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))
		if err := as.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, start_time, end_time, run_duration_ms, total_contributors_analyzed, config_params
		FROM %s ORDER BY analysis_id`, quoteTableName(analysisRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		var start, end sqlTime
		if err := rows.Scan(&record.AnalysisID, &start, &end, &record.RunDurationMs, &record.TotalContributorsAnalyzed, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.ptr()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllContributorHealth retrieves every recorded contributor row from the store.
func (as *AnalysisStoreImpl) GetAllContributorHealth() ([]schema.ContributorHealthRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY analysis_id, contributor`,
		contributorHealthColumns, quoteTableName(contributorHealthTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributor health: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ContributorHealthRecord
	for rows.Next() {
		var r schema.ContributorHealthRecord
		var analysisTime, lastActivity sqlTime
		if err := rows.Scan(
			&r.AnalysisID, &r.Contributor, &analysisTime,
			&r.TotalCount, &r.RecentCount, &r.RepositoryCount, &r.ActiveMonths, &r.LongestGapMonths,
			&r.HistoricalAvgPerMonth, &r.RecentAvgPerMonth,
			&r.ScoreActivity, &r.ScoreConsistency, &r.ScoreWorkload, &r.ScoreDiversity, &r.ScoreSustainability,
			&r.Trend, &r.RiskTier, &lastActivity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contributor health: %w", err)
		}
		r.AnalysisTime = analysisTime.Time
		r.LastActivity = lastActivity.ptr()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contributor health: %w", err)
	}
	return results, nil
}
