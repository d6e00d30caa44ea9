package schema

import "time"

// RankedContributor is one row of the cohort ranking.
type RankedContributor struct {
	Rank         int     `json:"rank"`
	Name         string  `json:"name"`
	RecentCount  int     `json:"recentCount"`
	TotalCount   int     `json:"totalCount"`
	RecentShare  float64 `json:"recentShare"`  // percent of the ranked recent total
	Cumulative   float64 `json:"cumulative"`   // running percent including this row
	Repositories int     `json:"repositories"` // distinct repositories merged into
}

// SignificantContributor is a contributor holding more than 10% of all human PRs.
type SignificantContributor struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// InactiveContributor is a former contributor with no activity in the recency window.
type InactiveContributor struct {
	Name            string    `json:"name"`
	LastActivity    time.Time `json:"lastActivity"`
	TotalCount      int       `json:"totalCount"`
	DaysSinceLast   int       `json:"daysSinceLast"`
	MonthsSinceLast int       `json:"monthsSinceLast"`
}

// CollaborationPair counts the months in which two authors were both active.
type CollaborationPair struct {
	Pair   string `json:"pair"`
	First  string `json:"first"`
	Second string `json:"second"`
	Count  int    `json:"count"`
}

// MaintainerCount is a contributor ordered by all-time merged volume.
type MaintainerCount struct {
	Name       string `json:"name"`
	TotalCount int    `json:"totalCount"`
}

// CohortSummary is the cross-contributor analysis result.
type CohortSummary struct {
	Ranked                     []RankedContributor      `json:"ranked"`
	BusFactor                  int                      `json:"busFactor"`
	SignificantContributors    []SignificantContributor `json:"significantContributors"`
	AvgMonthlyContributorCount float64                  `json:"avgMonthlyContributorCount"`
	RecentlyInactive           []InactiveContributor    `json:"recentlyInactive"`
	Collaborations             []CollaborationPair      `json:"collaborations"`
	TopMaintainers             []MaintainerCount        `json:"topMaintainers"`
	TotalHumanPRs              int                      `json:"totalHumanPRs"`
	TotalRecentCount           int                      `json:"totalRecentCount"`
}
