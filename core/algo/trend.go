// Package algo has the per-contributor gap, trend, scoring and ranking algorithms.
package algo

import (
	"github.com/huangsam/prpulse/core/agg"
	"github.com/huangsam/prpulse/schema"
)

// significantDropRatio is the fraction of the historical average below which
// a decline is classified as significant.
const significantDropRatio = 0.5

// ClassifyTrend maps the recent and historical averages to a trend.
// The rules are evaluated in order and the first match wins.
func ClassifyTrend(recent, historical float64) schema.Trend {
	switch {
	case recent > historical:
		return schema.TrendIncreasing
	case recent < historical*significantDropRatio:
		return schema.TrendDecreasingSignificantly
	case recent < historical:
		return schema.TrendDecreasing
	default:
		return schema.TrendStable
	}
}

// FindGaps returns the inactive runs strictly between consecutive active months.
// months must be sorted chronologically and distinct.
func FindGaps(months []schema.MonthKey) []schema.GapInterval {
	gaps := []schema.GapInterval{}
	for i := 1; i < len(months); i++ {
		diff := months[i-1].MonthsUntil(months[i])
		if diff > 1 {
			gaps = append(gaps, schema.GapInterval{
				StartMonth:     months[i-1].Next(),
				EndMonth:       months[i].AddMonths(-1),
				DurationMonths: diff - 1,
			})
		}
	}
	return gaps
}

// AnalyzeTrend computes gaps, averages and the trend classification for one profile.
// The historical average divides by distinct active months, not calendar span.
// The recent average divides by the full window length.
func AnalyzeTrend(p *schema.ContributorProfile, window int) schema.TrendResult {
	months := agg.ActiveMonths(p)
	gaps := FindGaps(months)

	longest := 0
	for _, g := range gaps {
		longest = max(longest, g.DurationMonths)
	}

	peak := 0
	for _, c := range p.MonthlyActivity {
		peak = max(peak, c)
	}

	var historical, recent float64
	if len(months) > 0 {
		historical = float64(p.TotalCount) / float64(len(months))
	}
	if window > 0 {
		recent = float64(p.RecentCount) / float64(window)
	}

	return schema.TrendResult{
		Gaps:                  gaps,
		LongestGapMonths:      longest,
		HistoricalAvgPerMonth: historical,
		RecentAvgPerMonth:     recent,
		PeakMonthlyCount:      peak,
		Trend:                 ClassifyTrend(recent, historical),
	}
}
