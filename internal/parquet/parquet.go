// Package parquet provides data structures and functions for exporting prpulse
// analysis data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/prpulse/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single prpulse analysis run with metadata.
// This struct maps to the prpulse_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the analysis run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalContributorsAnalyzed is the number of contributors scored in this run
	TotalContributorsAnalyzed int32 `parquet:"total_contributors_analyzed,snappy"`

	// ConfigParams contains the JSON-encoded analysis parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ContributorHealth is the flattened health row of one contributor in one run.
// This struct maps to the prpulse_contributor_health database table.
type ContributorHealth struct {
	AnalysisID            int64      `parquet:"analysis_id,snappy"`
	Contributor           string     `parquet:"contributor,snappy,dict"`
	AnalysisTime          time.Time  `parquet:"analysis_time,snappy"`
	TotalCount            int32      `parquet:"total_count,snappy"`
	RecentCount           int32      `parquet:"recent_count,snappy"`
	RepositoryCount       int32      `parquet:"repository_count,snappy"`
	ActiveMonths          int32      `parquet:"active_months,snappy"`
	LongestGapMonths      int32      `parquet:"longest_gap_months,snappy"`
	HistoricalAvgPerMonth float64    `parquet:"historical_avg_per_month,snappy"`
	RecentAvgPerMonth     float64    `parquet:"recent_avg_per_month,snappy"`
	ScoreActivity         int32      `parquet:"score_activity,snappy"`
	ScoreConsistency      int32      `parquet:"score_consistency,snappy"`
	ScoreWorkload         int32      `parquet:"score_workload,snappy"`
	ScoreDiversity        int32      `parquet:"score_diversity,snappy"`
	ScoreSustainability   int32      `parquet:"score_sustainability,snappy"`
	Trend                 string     `parquet:"trend,snappy,dict"`
	RiskTier              string     `parquet:"risk_tier,snappy,dict"`
	LastActivity          *time.Time `parquet:"last_activity,optional,snappy"`
}

// WriteRows writes rows of any tagged struct type as a single Parquet file to w.
func WriteRows[T any](w io.Writer, rows []T) error {
	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeFile creates outputPath and writes rows to it.
func writeFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteRows(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteContributorHealthParquet writes a slice of ContributorHealth structs to a Parquet file.
func WriteContributorHealthParquet(data []ContributorHealth, outputPath string) error {
	return writeFile(data, outputPath)
}

// ReadContributorHealthParquet reads back a file written by WriteContributorHealthParquet.
func ReadContributorHealthParquet(path string) ([]ContributorHealth, error) {
	rows, err := parquet.ReadFile[ContributorHealth](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows, nil
}

// ReadAnalysisRunsParquet reads back a file written by WriteAnalysisRunsParquet.
func ReadAnalysisRunsParquet(path string) ([]AnalysisRun, error) {
	rows, err := parquet.ReadFile[AnalysisRun](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows, nil
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:                record.AnalysisID,
			StartTime:                 record.StartTime,
			EndTime:                   record.EndTime,
			RunDurationMs:             record.RunDurationMs,
			TotalContributorsAnalyzed: record.TotalContributorsAnalyzed,
			ConfigParams:              record.ConfigParams,
		}
	}
	return result
}

// ConvertContributorHealthRecords converts schema.ContributorHealthRecord to ContributorHealth for Parquet export.
func ConvertContributorHealthRecords(records []schema.ContributorHealthRecord) []ContributorHealth {
	result := make([]ContributorHealth, len(records))
	for i, r := range records {
		result[i] = ContributorHealth{
			AnalysisID:            r.AnalysisID,
			Contributor:           r.Contributor,
			AnalysisTime:          r.AnalysisTime,
			TotalCount:            r.TotalCount,
			RecentCount:           r.RecentCount,
			RepositoryCount:       r.RepositoryCount,
			ActiveMonths:          r.ActiveMonths,
			LongestGapMonths:      r.LongestGapMonths,
			HistoricalAvgPerMonth: r.HistoricalAvgPerMonth,
			RecentAvgPerMonth:     r.RecentAvgPerMonth,
			ScoreActivity:         r.ScoreActivity,
			ScoreConsistency:      r.ScoreConsistency,
			ScoreWorkload:         r.ScoreWorkload,
			ScoreDiversity:        r.ScoreDiversity,
			ScoreSustainability:   r.ScoreSustainability,
			Trend:                 r.Trend,
			RiskTier:              r.RiskTier,
			LastActivity:          r.LastActivity,
		}
	}
	return result
}

// FromReport flattens the contributor rows of a report. Rows carry analysis id 0
// because a report written directly was never tracked.
func FromReport(report schema.Report) []ContributorHealth {
	records := make([]schema.ContributorHealthRecord, len(report.Contributors))
	for i, c := range report.Contributors {
		records[i] = schema.NewContributorHealthRecord(0, report.GeneratedAt, c)
	}
	return ConvertContributorHealthRecords(records)
}
