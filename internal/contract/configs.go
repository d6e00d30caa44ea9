package contract

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/prpulse/schema"
)

// Default values for configuration.
const (
	DefaultWindowMonths  = 6
	DefaultMinPRs        = 1
	DefaultResultLimit   = 15
	DefaultInactiveLimit = 10
	MaxResultLimit       = 1000
	MaxWindowMonths      = 120
	DefaultPrecision     = 1
	DefaultMinBusFactor  = 2
	DefaultServeAddr     = ":8080"
	DefaultDebounce      = "2s"
)

// CacheGranularity defines the time granularity for caching analysis results.
// Reports computed within the same hour share a cache key.
const CacheGranularity = time.Hour

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// DateFormat is the short date representation accepted for date flags.
const DateFormat = "2006-01-02"

// DefaultInactiveFloor is the default earliest last-activity date for lapsed contributors.
const DefaultInactiveFloor = "2023-01-01"

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Inputs []schema.InputSpec

	WindowMonths  int
	MinPRs        int
	ActiveOnly    bool
	ResultLimit   int
	InactiveLimit int
	InactiveFloor time.Time
	FloorPinned   bool // InactiveFloor came from --inactive-floor rather than the default
	Now           time.Time
	NowPinned     bool // Now came from --now rather than the clock
	Workers       int
	Precision     int
	Output        schema.OutputMode
	OutputFile    string
	Width         int // Terminal width override (0 = auto-detect)
	UseColors     bool

	MinBusFactor int
	FailTiers    []schema.RiskTier

	Addr      string
	LogLevel  string
	LogFormat string
	Debounce  time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// Positional args take precedence over the config file list
	Inputs []string `mapstructure:"inputs"`

	// --- Fields from rootCmd.PersistentFlags() ---
	Window            int    `mapstructure:"window"`
	MinPRs            int    `mapstructure:"min-prs"`
	ActiveOnly        string `mapstructure:"active-only"`
	Limit             int    `mapstructure:"limit"`
	InactiveLimit     int    `mapstructure:"inactive-limit"`
	InactiveFloor     string `mapstructure:"inactive-floor"`
	Now               string `mapstructure:"now"`
	Workers           int    `mapstructure:"workers"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Fields from checkCmd.Flags() ---
	MinBusFactor int    `mapstructure:"min-bus-factor"`
	FailTiers    string `mapstructure:"fail-tiers"`

	// --- Fields from serveCmd.Flags() ---
	Addr      string `mapstructure:"addr"`
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// --- Fields from watchCmd.Flags() ---
	Debounce string `mapstructure:"debounce"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Inputs != nil {
		clone.Inputs = slices.Clone(c.Inputs)
	}
	if c.FailTiers != nil {
		clone.FailTiers = slices.Clone(c.FailTiers)
	}
	return &clone
}

// CloneWithNow creates a copy of the Config pinned to the given analysis time.
func (c *Config) CloneWithNow(now time.Time) *Config {
	clone := c.Clone()
	clone.Now = now
	clone.NowPinned = true
	return clone
}

// GetAnalysisNow returns the analysis time truncated to the caching granularity.
// This ensures runs within the same hour resolve to the same cache entry.
func (c *Config) GetAnalysisNow() time.Time {
	return c.Now.Truncate(CacheGranularity)
}

// Params returns the explicit parameters consumed by the analysis engine.
func (c *Config) Params() schema.Params {
	return schema.Params{
		RecencyWindowMonths: c.WindowMonths,
		MinimumPRThreshold:  c.MinPRs,
		ActiveOnlyMode:      c.ActiveOnly,
		CohortTopN:          c.ResultLimit,
		InactiveTopN:        c.InactiveLimit,
		InactiveFloor:       c.InactiveFloor,
		Now:                 c.Now,
		Workers:             c.Workers,
	}
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeInputs(cfg, input); err != nil {
		return err
	}
	if err := processCheckInputs(cfg, input); err != nil {
		return err
	}
	if err := processServeInputs(cfg, input); err != nil {
		return err
	}
	return resolveInputs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// SQLite paths are resolved so the default files are compared too
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	activeOnly, err := ParseBoolString(input.ActiveOnly)
	if err != nil {
		return fmt.Errorf("invalid --active-only value: %w", err)
	}
	cfg.ActiveOnly = activeOnly

	if input.Window <= 0 || input.Window > MaxWindowMonths {
		return fmt.Errorf("window must be greater than 0 and cannot exceed %d months (received %d)", MaxWindowMonths, input.Window)
	}
	cfg.WindowMonths = input.Window

	if input.MinPRs < 0 {
		return fmt.Errorf("min-prs cannot be negative (received %d)", input.MinPRs)
	}
	cfg.MinPRs = input.MinPRs

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.InactiveLimit <= 0 || input.InactiveLimit > MaxResultLimit {
		return fmt.Errorf("inactive-limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.InactiveLimit)
	}
	cfg.InactiveLimit = input.InactiveLimit

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, yaml, markdown, html, prom, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return validateBackendConfigs(cfg, input)
}

// processTimeInputs resolves the analysis time and the inactivity floor.
func processTimeInputs(cfg *Config, input *ConfigRawInput) error {
	now := time.Now().UTC()
	cfg.Now = now
	cfg.NowPinned = false
	if input.Now != "" {
		t, err := ParseTimeValue(input.Now, now)
		if err != nil {
			return fmt.Errorf("invalid --now value '%s'. Expected RFC3339, YYYY-MM-DD or 'N [units] ago': %w", input.Now, err)
		}
		cfg.Now = t.UTC()
		cfg.NowPinned = true
	}

	floor := input.InactiveFloor
	if floor == "" {
		floor = DefaultInactiveFloor
	}
	t, err := ParseTimeValue(floor, cfg.Now)
	if err != nil {
		return fmt.Errorf("invalid --inactive-floor value '%s': %w", floor, err)
	}
	cfg.InactiveFloor = t.UTC()
	cfg.FloorPinned = floor != DefaultInactiveFloor
	return cfg.settleInactiveFloor()
}

// settleInactiveFloor keeps the floor at or before now. A default floor is clamped
// to now so historical replays work; an explicit one after now is an error.
func (c *Config) settleInactiveFloor() error {
	if !c.InactiveFloor.After(c.Now) {
		return nil
	}
	if c.FloorPinned {
		return fmt.Errorf("inactive floor (%s) cannot be after now (%s)", c.InactiveFloor.Format(DateTimeFormat), c.Now.Format(DateTimeFormat))
	}
	c.InactiveFloor = c.Now
	return nil
}

// processCheckInputs handles the CI gate parameters.
func processCheckInputs(cfg *Config, input *ConfigRawInput) error {
	if input.MinBusFactor < 0 {
		return fmt.Errorf("min-bus-factor cannot be negative (received %d)", input.MinBusFactor)
	}
	cfg.MinBusFactor = input.MinBusFactor

	tiers, err := ParseRiskTiersString(input.FailTiers)
	if err != nil {
		return fmt.Errorf("invalid --fail-tiers format: %w", err)
	}
	cfg.FailTiers = tiers
	return nil
}

// processServeInputs handles the server and watcher parameters.
func processServeInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Addr = input.Addr
	if cfg.Addr == "" {
		cfg.Addr = DefaultServeAddr
	}

	cfg.LogLevel = strings.ToLower(input.LogLevel)
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}
	cfg.LogFormat = strings.ToLower(input.LogFormat)
	switch cfg.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format '%s'. must be json, console", input.LogFormat)
	}

	debounce := input.Debounce
	if debounce == "" {
		debounce = DefaultDebounce
	}
	d, err := ParseLookbackDuration(debounce)
	if err != nil {
		return fmt.Errorf("invalid --debounce: %w", err)
	}
	cfg.Debounce = d
	return nil
}

// resolveInputs turns input specs into absolute paths and checks that they exist.
func resolveInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Inputs = nil
	seen := make(map[string]struct{})
	for _, raw := range input.Inputs {
		for part := range strings.SplitSeq(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			spec := schema.ParseInputSpec(part)
			abs, err := filepath.Abs(spec.Path)
			if err != nil {
				return err
			}
			info, err := os.Stat(abs)
			if err != nil {
				return fmt.Errorf("input %q is not readable: %w", spec.Path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("input %q is a directory, expected a JSON file", spec.Path)
			}
			spec.Path = filepath.Clean(abs)
			if _, dup := seen[spec.Path]; dup {
				continue
			}
			seen[spec.Path] = struct{}{}
			cfg.Inputs = append(cfg.Inputs, spec)
		}
	}
	return nil
}

// ToolArgs holds the per-call overrides accepted by the MCP tools.
// Zero values keep the base configuration, except MinPRs which is nil when absent.
type ToolArgs struct {
	Inputs     string
	Window     int
	MinPRs     *int
	ActiveOnly string
	Limit      int
	Now        string
}

// ApplyToolArgs validates per-call overrides and applies them to cfg,
// which should be a clone of the base configuration.
func ApplyToolArgs(cfg *Config, args ToolArgs) error {
	if strings.TrimSpace(args.Inputs) == "" {
		return fmt.Errorf("inputs is required")
	}
	if err := resolveInputs(cfg, &ConfigRawInput{Inputs: []string{args.Inputs}}); err != nil {
		return err
	}
	if len(cfg.Inputs) == 0 {
		return fmt.Errorf("inputs is required")
	}

	if args.Window != 0 {
		if args.Window < 0 || args.Window > MaxWindowMonths {
			return fmt.Errorf("window must be greater than 0 and cannot exceed %d months (received %d)", MaxWindowMonths, args.Window)
		}
		cfg.WindowMonths = args.Window
	}
	if args.MinPRs != nil {
		if *args.MinPRs < 0 {
			return fmt.Errorf("min_prs cannot be negative (received %d)", *args.MinPRs)
		}
		cfg.MinPRs = *args.MinPRs
	}
	if args.ActiveOnly != "" {
		activeOnly, err := ParseBoolString(args.ActiveOnly)
		if err != nil {
			return fmt.Errorf("invalid active_only value: %w", err)
		}
		cfg.ActiveOnly = activeOnly
	}
	if args.Limit != 0 {
		if args.Limit < 0 || args.Limit > MaxResultLimit {
			return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, args.Limit)
		}
		cfg.ResultLimit = args.Limit
	}
	if args.Now != "" {
		t, err := ParseTimeValue(args.Now, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("invalid now value '%s': %w", args.Now, err)
		}
		cfg.Now = t.UTC()
		cfg.NowPinned = true
		if err := cfg.settleInactiveFloor(); err != nil {
			return err
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ParseRiskTiersString parses a string like "Critical,At-Risk" into a list of risk tiers.
// Matching is case-insensitive and the result follows the canonical tier order.
func ParseRiskTiersString(s string) ([]schema.RiskTier, error) {
	lookup := make(map[string]schema.RiskTier, len(schema.ValidRiskTiers))
	for tier := range maps.Keys(schema.ValidRiskTiers) {
		lookup[strings.ToLower(string(tier))] = tier
	}

	selected := make(map[schema.RiskTier]struct{})
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tier, ok := lookup[strings.ToLower(part)]
		if !ok {
			return nil, fmt.Errorf("invalid tier '%s', must be Healthy, Monitor, At-Risk, or Critical", part)
		}
		selected[tier] = struct{}{}
	}

	tiers := []schema.RiskTier{}
	for _, tier := range schema.AllRiskTiers {
		if _, ok := selected[tier]; ok {
			tiers = append(tiers, tier)
		}
	}
	return tiers, nil
}
