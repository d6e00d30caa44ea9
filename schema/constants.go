package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// Trend is the qualitative classification of recent vs. historical activity.
	Trend string

	// RiskTier is the discretized sustainability band of a contributor.
	RiskTier string
)

// All output modes supported.
const (
	TextOut     OutputMode = "text" // default
	CSVOut      OutputMode = "csv"
	JSONOut     OutputMode = "json"
	YAMLOut     OutputMode = "yaml"
	MarkdownOut OutputMode = "markdown"
	HTMLOut     OutputMode = "html"
	PromOut     OutputMode = "prom"
	ParquetOut  OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All trend classifications, in rule evaluation order.
const (
	TrendIncreasing              Trend = "increasing"
	TrendDecreasingSignificantly Trend = "decreasing-significantly"
	TrendDecreasing              Trend = "decreasing"
	TrendStable                  Trend = "stable"
)

// All risk tiers, from best to worst.
const (
	TierHealthy  RiskTier = "Healthy"
	TierMonitor  RiskTier = "Monitor"
	TierAtRisk   RiskTier = "At-Risk"
	TierCritical RiskTier = "Critical"
)

// UnknownAuthor is the sentinel identifier for records without an author.
const UnknownAuthor = "unknown"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:     {},
	CSVOut:      {},
	JSONOut:     {},
	YAMLOut:     {},
	MarkdownOut: {},
	HTMLOut:     {},
	PromOut:     {},
	ParquetOut:  {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidRiskTiers lists all valid risk tiers.
var ValidRiskTiers = map[RiskTier]struct{}{
	TierHealthy:  {},
	TierMonitor:  {},
	TierAtRisk:   {},
	TierCritical: {},
}

// AllRiskTiers returns the risk tiers in descending health order.
var AllRiskTiers = []RiskTier{TierHealthy, TierMonitor, TierAtRisk, TierCritical}

// AllTrends returns the trend classifications in rule evaluation order.
var AllTrends = []Trend{TrendIncreasing, TrendDecreasingSignificantly, TrendDecreasing, TrendStable}
