package schema

// RepoVelocity compares a repository's long-run and short-run merge rates.
type RepoVelocity struct {
	Repository        string   `json:"repository"`
	AvgPerMonthLast12 float64  `json:"avgPerMonthLast12"`
	AvgPerMonthLast3  float64  `json:"avgPerMonthLast3"`
	Trend             Trend    `json:"trend"`
	LastActiveMonth   MonthKey `json:"lastActiveMonth"`
	ActiveMonths      int      `json:"activeMonths"`
}

// RepoContributor is a contributor's authored count within a single repository.
type RepoContributor struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RepoSummary is the per-repository contributor breakdown.
type RepoSummary struct {
	Repository                 string                   `json:"repository"`
	TotalPRs                   int                      `json:"totalPRs"`
	HumanPRs                   int                      `json:"humanPRs"`
	AutomatedPRs               int                      `json:"automatedPRs"`
	MergedHumanPRs             int                      `json:"mergedHumanPRs"`
	TotalContributors          int                      `json:"totalContributors"`
	HumanContributors          int                      `json:"humanContributors"`
	TopContributors            []RepoContributor        `json:"topContributors"`
	SignificantContributors    []SignificantContributor `json:"significantContributors"`
	AvgMonthlyContributorCount float64                  `json:"avgMonthlyContributorCount"`
}

// TimelinePoint is one month of the dense merged-PR timeline, split by repository.
type TimelinePoint struct {
	Month  MonthKey       `json:"month"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}
