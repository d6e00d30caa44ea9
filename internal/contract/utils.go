package contract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/prpulse/schema"
	"github.com/joho/godotenv"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // CriticalColor represents standard danger.
	AtRiskColor   = color.New(color.FgMagenta, color.Bold) // AtRiskColor represents strong, distinct warning.
	MonitorColor  = color.New(color.FgYellow)              // MonitorColor represents standard caution, not bold.
	HealthyColor  = color.New(color.FgGreen)               // HealthyColor represents a sustainable contributor.
)

// GetPlainLabel returns the risk tier label for a sustainability score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(sustainability int) string {
	return string(schema.TierForScore(sustainability))
}

// GetColorLabel returns a colored risk tier label for console output (table).
func GetColorLabel(tier schema.RiskTier) string {
	text := string(tier)
	switch tier {
	case schema.TierCritical:
		return CriticalColor.Sprint(text)
	case schema.TierAtRisk:
		return AtRiskColor.Sprint(text)
	case schema.TierMonitor:
		return MonitorColor.Sprint(text)
	default:
		return HealthyColor.Sprint(text)
	}
}

// GetTrendSymbol returns a compact arrow for a trend classification.
func GetTrendSymbol(t schema.Trend) string {
	switch t {
	case schema.TrendIncreasing:
		return "↑"
	case schema.TrendDecreasingSignificantly:
		return "↓↓"
	case schema.TrendDecreasing:
		return "↓"
	default:
		return "→"
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LoadDotEnv loads environment variables from the given .env files, or ./.env
// when none are given. Missing files are ignored and existing variables win.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".prpulse_cache.db"
	}
	return filepath.Join(homeDir, ".prpulse_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".prpulse_analysis.db"
	}
	return filepath.Join(homeDir, ".prpulse_analysis.db")
}

// TruncateName truncates a name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
