package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/parquet"
)

// ExecuteAnalysisExport exports the global analysis store to Parquet files.
func ExecuteAnalysisExport(outputFile string) error {
	return ExportAnalysis(Manager.GetAnalysisStore(), outputFile)
}

// ExportAnalysis writes every run and contributor row of store to two Parquet files
// named after outputFile.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is not configured. Set --analysis-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analysis runs: %d\n", status.TotalRuns)
	fmt.Printf("Total contributor records: %d\n", status.TableSizes[contributorHealthTable])

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	health, err := store.GetAllContributorHealth()
	if err != nil {
		return fmt.Errorf("failed to retrieve contributor health: %w", err)
	}

	parquetRuns := parquet.ConvertAnalysisRunRecords(analysisRuns)
	parquetHealth := parquet.ConvertContributorHealthRecords(health)

	analysisRunsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(parquetRuns, analysisRunsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Printf("Exported %d analysis runs to: %s\n", len(parquetRuns), analysisRunsFile)

	healthFile := outputFile + ".contributor_health.parquet"
	if err := parquet.WriteContributorHealthParquet(parquetHealth, healthFile); err != nil {
		return fmt.Errorf("failed to write contributor health: %w", err)
	}
	fmt.Printf("Exported %d contributor records to: %s\n", len(parquetHealth), healthFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Any other Parquet-compatible tool")
	return nil
}
