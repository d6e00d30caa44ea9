package schema

// MetricsScore describes one health indicator for display purposes.
type MetricsScore struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	Formula string `json:"formula"`
}

// MetricsRule is a single threshold rule such as a trend or tier band.
type MetricsRule struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
}

// MetricsRenderModel contains all processed data needed for displaying metrics definitions.
type MetricsRenderModel struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Scores      []MetricsScore `json:"scores"`
	Trends      []MetricsRule  `json:"trends"`
	Tiers       []MetricsRule  `json:"tiers"`
	Cohort      []MetricsRule  `json:"cohort"`
	Params      Params         `json:"params"`
}
