// Package schema has the data structures shared by the analysis engine and its consumers.
package schema

import "time"

// PullRequestRecord is a single pull request as read from the input boundary.
// Absent fields are nil. Records are never mutated after loading.
type PullRequestRecord struct {
	Author             *string    `json:"author,omitempty"`
	Repository         string     `json:"repository"`
	Number             int        `json:"number,omitempty"`
	Title              string     `json:"title,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	MergedAt           *time.Time `json:"mergedAt,omitempty"`
	FirstInteractionAt *time.Time `json:"firstInteractionAt,omitempty"`
}

// NormalizedRecord is a PullRequestRecord after authorship and eligibility resolution.
type NormalizedRecord struct {
	Author             string
	Repository         string
	CreatedAt          *time.Time
	MergedAt           *time.Time
	FirstInteractionAt *time.Time
	Human              bool // author is not automated
	Merged             bool // MergedAt is present
	Eligible           bool // Human && Merged
}

// ContributorProfile is the per-author activity summary built by the aggregator.
type ContributorProfile struct {
	Name            string           `json:"name"`
	MonthlyActivity map[MonthKey]int `json:"monthlyActivity"`
	Repositories    []string         `json:"repositories"`
	FirstActivity   time.Time        `json:"firstActivity"`
	LastActivity    time.Time        `json:"lastActivity"`
	TotalCount      int              `json:"totalCount"`
	RecentCount     int              `json:"recentCount"`
	AuthoredCount   int              `json:"authoredCount"` // all PRs, merged or not
}

// GapInterval is a run of fully inactive months between two active months.
type GapInterval struct {
	StartMonth     MonthKey `json:"startMonth"`
	EndMonth       MonthKey `json:"endMonth"`
	DurationMonths int      `json:"durationMonths"`
}

// TrendResult is the output of the gap and trend analysis for one contributor.
type TrendResult struct {
	Gaps                  []GapInterval `json:"gaps"`
	LongestGapMonths      int           `json:"longestGapMonths"`
	HistoricalAvgPerMonth float64       `json:"historicalAvgPerMonth"`
	RecentAvgPerMonth     float64       `json:"recentAvgPerMonth"`
	PeakMonthlyCount      int           `json:"peakMonthlyCount"`
	Trend                 Trend         `json:"trend"`
}

// HealthIndicator holds the five bounded scores and the derived risk tier.
type HealthIndicator struct {
	Activity       int      `json:"activity"`
	Consistency    int      `json:"consistency"`
	Workload       int      `json:"workload"`
	Diversity      int      `json:"diversity"`
	Sustainability int      `json:"sustainability"`
	Trend          Trend    `json:"trend"`
	RiskTier       RiskTier `json:"riskTier"`
	RiskFactors    []string `json:"riskFactors"`
}

// ContributorHealth is the combined per-contributor output row.
type ContributorHealth struct {
	Profile ContributorProfile `json:"profile"`
	Trend   TrendResult        `json:"trend"`
	Health  HealthIndicator    `json:"health"`
}
