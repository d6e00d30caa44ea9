package schema

// LifecycleBucket is a merge latency range [MinHours, MaxHours) with its share of samples.
// MaxHours is nil for the open-ended final bucket.
type LifecycleBucket struct {
	Name       string  `json:"name"`
	MinHours   int     `json:"minHours"`
	MaxHours   *int    `json:"maxHours"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// LifecycleMonth aggregates merge latency for one merge month.
type LifecycleMonth struct {
	Month                    MonthKey `json:"month"`
	Count                    int      `json:"count"`
	AvgMergeDays             float64  `json:"avgMergeDays"`
	MedianMergeDays          float64  `json:"medianMergeDays"`
	AvgFirstInteractionHours *float64 `json:"avgFirstInteractionHours"`
	InteractionCount         int      `json:"interactionCount"`
}

// LifecycleOverall summarizes merge latency across every valid sample.
type LifecycleOverall struct {
	Count           int     `json:"count"`
	AvgMergeDays    float64 `json:"avgMergeDays"`
	MedianMergeDays float64 `json:"medianMergeDays"`
}

// LifecycleAnomalies counts records excluded from latency computations.
type LifecycleAnomalies struct {
	MissingCreatedAt         int `json:"missingCreatedAt"`
	NegativeLatency          int `json:"negativeLatency"`
	OutOfRangeTimestamps     int `json:"outOfRangeTimestamps"`
	NegativeFirstInteraction int `json:"negativeFirstInteraction"`
}

// Total returns the number of records excluded from merge latency.
func (a LifecycleAnomalies) Total() int {
	return a.MissingCreatedAt + a.NegativeLatency + a.OutOfRangeTimestamps
}

// LifecycleResult is the output of the PR lifecycle metrics calculator.
type LifecycleResult struct {
	Monthly      []LifecycleMonth   `json:"monthly"`
	Distribution []LifecycleBucket  `json:"distribution"`
	Overall      LifecycleOverall   `json:"overall"`
	Anomalies    LifecycleAnomalies `json:"anomalies"`
}
