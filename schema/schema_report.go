package schema

import "time"

// Params is the explicit configuration consumed by the analysis engine.
type Params struct {
	RecencyWindowMonths int       `json:"recencyWindowMonths"`
	MinimumPRThreshold  int       `json:"minimumPRThreshold"`
	ActiveOnlyMode      bool      `json:"activeOnlyMode"`
	CohortTopN          int       `json:"cohortTopN"`
	InactiveTopN        int       `json:"inactiveTopN"`
	InactiveFloor       time.Time `json:"inactiveFloor"`
	Now                 time.Time `json:"now"`
	Workers             int       `json:"-"`
}

// DataQuality counts how records were classified and which were excluded.
type DataQuality struct {
	TotalRecords             int `json:"totalRecords"`
	AutomatedRecords         int `json:"automatedRecords"`
	UnmergedRecords          int `json:"unmergedRecords"`
	EligibleRecords          int `json:"eligibleRecords"`
	MissingCreatedAt         int `json:"missingCreatedAt"`
	NegativeLatency          int `json:"negativeLatency"`
	OutOfRangeTimestamps     int `json:"outOfRangeTimestamps"`
	NegativeFirstInteraction int `json:"negativeFirstInteraction"`
}

// Excluded returns the number of eligible records dropped from latency metrics.
func (q DataQuality) Excluded() int {
	return q.MissingCreatedAt + q.NegativeLatency + q.OutOfRangeTimestamps
}

// Report is the full output of one analysis invocation.
type Report struct {
	GeneratedAt  time.Time           `json:"generatedAt"`
	Params       Params              `json:"params"`
	DataQuality  DataQuality         `json:"dataQuality"`
	Contributors []ContributorHealth `json:"contributors"`
	Cohort       CohortSummary       `json:"cohort"`
	Lifecycle    LifecycleResult     `json:"lifecycle"`
	Repositories []RepoSummary       `json:"repositories"`
	Velocity     []RepoVelocity      `json:"velocity"`
	Timeline     []TimelinePoint     `json:"timeline"`
}

// CheckResult is the outcome of the health gate used in CI pipelines.
type CheckResult struct {
	Passed       bool                `json:"passed"`
	BusFactor    int                 `json:"busFactor"`
	MinBusFactor int                 `json:"minBusFactor"`
	FailedTiers  []RiskTier          `json:"failedTiers"`
	Violations   []ContributorHealth `json:"violations"`
}
