package cmd

import (
	"fmt"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/iocache"
	"github.com/huangsam/prpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSettings reads "<kind>-backend" and "<kind>-db-connect" after loading the config file.
// An empty backend means none.
func storeSettings(kind string) (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}
	backend := schema.DatabaseBackend(viper.GetString(kind + "-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString(kind + "-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// analysisSetup opens only the analysis store for status, clear and export.
func analysisSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeSettings("analysis")
	if err != nil {
		return err
	}
	if err := iocache.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize analysis store: %w", err)
	}
	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// analysisMigrateSetup resolves the store without opening it, since opening creates the tables
// that the migrations are meant to manage.
func analysisMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeSettings("analysis")
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetAnalysisDBFilePath()
	}
	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	return nil
}

// analysisCmd groups the run history subcommands.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage the history of analysis runs and contributor scores",
	Long: `Manage the stored history of analysis runs.

With an analysis backend configured, every health, cohort, lifecycle, repos,
report and check run records:
- the run itself: start and end time, parameters, contributor count, bus factor
- one row per contributor: the five health scores, trend, risk tier and
  authored, recent and total PR counts

Comparing runs over time shows whether the bus factor or a contributor's
sustainability is drifting, which a single report cannot.

Backends: sqlite (~/.prpulse_analysis.db), mysql, postgresql, none (default).

Examples:
  PRPULSE_ANALYSIS_BACKEND=sqlite prpulse report api-prs.json
  prpulse analysis status --analysis-backend sqlite
  prpulse analysis export --analysis-backend sqlite --output-file history.parquet`,
}

// analysisClearCmd deletes every recorded run.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded run and contributor score",
	Long: `Delete every recorded analysis run and its contributor scores.

This cannot be undone. Export first if the history matters:
  prpulse analysis export --output-file backup.parquet
  prpulse analysis clear`,
	PreRunE: analysisSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, contract.GetAnalysisDBFilePath(), cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Analysis data cleared successfully.")
	},
}

// analysisStatusCmd reports how much history is stored.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded run counts and backend details",
	Long: `Show the backend, connection, number of recorded runs, the newest and
oldest run, the number of contributor score rows and the table sizes.

Example:
  prpulse analysis status --analysis-backend sqlite`,
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetAnalysisStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(status)
	},
}

// analysisExportCmd writes the history as two Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs and contributor scores to Parquet",
	Long: `Export the recorded history to two Parquet files next to --output-file:
  <output-file>.analysis_runs.parquet         one row per run
  <output-file>.contributor_health.parquet    one row per contributor per run

Requires --output-file.

Example: chart one contributor's sustainability across runs
  prpulse analysis export --output-file pulse
  duckdb -c "SELECT analysis_time, score_sustainability FROM read_parquet('pulse.contributor_health.parquet') WHERE contributor = 'alice' ORDER BY 1"`,
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteAnalysisExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd moves the analysis store schema to a target version.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the analysis store schema",
	Long: `Apply the embedded schema migrations to the analysis store.

Migrates to the latest version unless --target-version is given. Version 0
rolls every migration back.

Examples:
  prpulse analysis migrate --analysis-backend postgresql --analysis-db-connect "postgres://..."
  prpulse analysis migrate --target-version 0`,
	PreRunE: analysisMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
