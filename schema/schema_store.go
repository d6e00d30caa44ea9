package schema

import "time"

// AnalysisRunRecord represents a row from the prpulse_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID                int64
	StartTime                 time.Time
	EndTime                   *time.Time
	RunDurationMs             *int32
	TotalContributorsAnalyzed int32
	ConfigParams              *string
}

// ContributorHealthRecord represents a row from the prpulse_contributor_health table.
type ContributorHealthRecord struct {
	AnalysisID            int64
	Contributor           string
	AnalysisTime          time.Time
	TotalCount            int32
	RecentCount           int32
	RepositoryCount       int32
	ActiveMonths          int32
	LongestGapMonths      int32
	HistoricalAvgPerMonth float64
	RecentAvgPerMonth     float64
	ScoreActivity         int32
	ScoreConsistency      int32
	ScoreWorkload         int32
	ScoreDiversity        int32
	ScoreSustainability   int32
	Trend                 string
	RiskTier              string
	LastActivity          *time.Time
}

// NewContributorHealthRecord flattens a ContributorHealth row for persistence.
func NewContributorHealthRecord(analysisID int64, at time.Time, c ContributorHealth) ContributorHealthRecord {
	rec := ContributorHealthRecord{
		AnalysisID:            analysisID,
		Contributor:           c.Profile.Name,
		AnalysisTime:          at,
		TotalCount:            int32(c.Profile.TotalCount),
		RecentCount:           int32(c.Profile.RecentCount),
		RepositoryCount:       int32(len(c.Profile.Repositories)),
		ActiveMonths:          int32(len(c.Profile.MonthlyActivity)),
		LongestGapMonths:      int32(c.Trend.LongestGapMonths),
		HistoricalAvgPerMonth: c.Trend.HistoricalAvgPerMonth,
		RecentAvgPerMonth:     c.Trend.RecentAvgPerMonth,
		ScoreActivity:         int32(c.Health.Activity),
		ScoreConsistency:      int32(c.Health.Consistency),
		ScoreWorkload:         int32(c.Health.Workload),
		ScoreDiversity:        int32(c.Health.Diversity),
		ScoreSustainability:   int32(c.Health.Sustainability),
		Trend:                 string(c.Health.Trend),
		RiskTier:              string(c.Health.RiskTier),
	}
	if !c.Profile.LastActivity.IsZero() {
		last := c.Profile.LastActivity
		rec.LastActivity = &last
	}
	return rec
}
