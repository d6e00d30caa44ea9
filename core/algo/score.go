package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/prpulse/schema"
)

// Sustainability penalties.
const (
	penaltySignificantDecline = 40
	penaltyDecline            = 20
	penaltyLongGap            = 20
	penaltyLowActivity        = 20
)

const (
	longGapPenaltyMonths = 3 // gaps longer than this are penalized
	gapRiskMonths        = 3 // gaps at least this long are reported as a risk factor
	gapScorePerMonth     = 10
	workloadFullAverage  = 10.0
)

// clampScore rounds a raw score and bounds it to [0, 100].
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(v))))
}

// diversityScore is a step function of the number of repositories.
func diversityScore(repos int) int {
	switch {
	case repos <= 0:
		return 0
	case repos == 1:
		return 30
	case repos == 2:
		return 70
	default:
		return 100
	}
}

// sustainabilityScore starts at 100 and applies independent penalties.
func sustainabilityScore(t schema.TrendResult) int {
	score := 100
	switch t.Trend {
	case schema.TrendDecreasingSignificantly:
		score -= penaltySignificantDecline
	case schema.TrendDecreasing:
		score -= penaltyDecline
	}
	if t.LongestGapMonths > longGapPenaltyMonths {
		score -= penaltyLongGap
	}
	if t.RecentAvgPerMonth < 1 {
		score -= penaltyLowActivity
	}
	return max(0, score)
}

// RiskFactors lists the capacity-risk messages for a trend result.
func RiskFactors(t schema.TrendResult) []string {
	factors := []string{}
	if t.Trend == schema.TrendDecreasing || t.Trend == schema.TrendDecreasingSignificantly {
		factors = append(factors, fmt.Sprintf("activity %s", t.Trend))
	}
	if t.LongestGapMonths >= gapRiskMonths {
		factors = append(factors, fmt.Sprintf("had %d-month gap", t.LongestGapMonths))
	}
	if t.RecentAvgPerMonth < 1 {
		factors = append(factors, "low recent activity")
	}
	return factors
}

// Score combines a profile and its trend into the five bounded health scores.
func Score(p *schema.ContributorProfile, t schema.TrendResult) schema.HealthIndicator {
	activity := t.RecentAvgPerMonth / math.Max(1, t.HistoricalAvgPerMonth) * 100
	consistency := 100 - float64(t.LongestGapMonths*gapScorePerMonth)
	workload := t.HistoricalAvgPerMonth / workloadFullAverage * 100
	sustainability := sustainabilityScore(t)

	return schema.HealthIndicator{
		Activity:       clampScore(activity),
		Consistency:    clampScore(consistency),
		Workload:       clampScore(workload),
		Diversity:      diversityScore(len(p.Repositories)),
		Sustainability: clampScore(float64(sustainability)),
		Trend:          t.Trend,
		RiskTier:       schema.TierForScore(sustainability),
		RiskFactors:    RiskFactors(t),
	}
}

// Evaluate runs trend analysis and scoring for one profile.
func Evaluate(p *schema.ContributorProfile, window int) schema.ContributorHealth {
	t := AnalyzeTrend(p, window)
	return schema.ContributorHealth{
		Profile: *p,
		Trend:   t,
		Health:  Score(p, t),
	}
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Percent returns part/total as a percentage, or 0 when total is not positive.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
