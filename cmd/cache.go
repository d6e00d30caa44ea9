package cmd

import (
	"fmt"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/iocache"
	"github.com/spf13/cobra"
)

// cacheSetup opens only the report cache. Inputs are not resolved.
func cacheSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeSettings("cache")
	if err != nil {
		return err
	}
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheCmd groups the report cache subcommands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the report cache",
	Long: `Inspect or clear the cache of computed reports.

A report is cached under a digest of the input exports, their repository tags
and every analysis parameter. Without --now the reference time is rounded to the
hour, so re-running a view on unchanged exports within the hour reuses the report.
Editing an export changes its digest, so stale reports are never served.

Backends: sqlite (default, ~/.prpulse_cache.db), mysql, postgresql, none.

Examples:
  prpulse cache status
  prpulse cache clear`,
}

// cacheClearCmd drops every cached report.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached report",
	Long: `Drop every cached report from the configured backend.

Clear the cache after upgrading to a release that changes the scoring
constants. Reports computed by the old release would otherwise be reused
until the hour rolls over.

SQLite removes the database file. MySQL and PostgreSQL drop the cache table.

Examples:
  prpulse cache clear
  PRPULSE_CACHE_BACKEND=postgresql PRPULSE_CACHE_DB_CONNECT="postgres://..." prpulse cache clear`,
	PreRunE: cacheSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared successfully.")
	},
}

// cacheStatusCmd reports how many reports are cached and how old they are.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached report counts and backend details",
	Long: `Show the backend, connection, number of cached reports, the newest and
oldest entries and the table size.

Example:
  prpulse cache status --cache-backend mysql --cache-db-connect "user:pass@tcp(localhost:3306)/prpulse?parseTime=true"`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetActivityStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}
