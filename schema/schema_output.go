package schema

// EnrichedContributor adds presentation data to a ContributorHealth row.
type EnrichedContributor struct {
	Rank int `json:"rank"`
	ContributorHealth
}

// EnrichContributors adds a 1-based rank to a list of contributor rows.
func EnrichContributors(rows []ContributorHealth) []EnrichedContributor {
	output := make([]EnrichedContributor, len(rows))
	for i, r := range rows {
		output[i] = EnrichedContributor{
			Rank:              i + 1,
			ContributorHealth: r,
		}
	}
	return output
}

// TierForScore discretizes a sustainability score into a risk tier.
func TierForScore(sustainability int) RiskTier {
	switch {
	case sustainability >= 80:
		return TierHealthy
	case sustainability >= 60:
		return TierMonitor
	case sustainability >= 40:
		return TierAtRisk
	default:
		return TierCritical
	}
}
