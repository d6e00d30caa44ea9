// Package repo computes per-repository velocity, contributor summaries and
// the monthly activity timeline.
package repo

import (
	"cmp"
	"slices"

	"github.com/huangsam/prpulse/core/algo"
	"github.com/huangsam/prpulse/schema"
	"github.com/samber/lo"
)

// Defaults for the repository analyzer.
const (
	DefaultTopContributors = 5
	DefaultTimelineMonths  = 24
	velocityLongMonths     = 12
	velocityShortMonths    = 3
	significantShare       = 0.10
)

// sortedRepos returns the distinct repositories of the records in ascending order.
func sortedRepos(records []schema.NormalizedRecord) []string {
	repos := lo.Uniq(lo.Map(records, func(r schema.NormalizedRecord, _ int) string { return r.Repository }))
	slices.Sort(repos)
	return repos
}

// trailingAverage averages the counts of the last n keys (sorted chronologically).
func trailingAverage(counts map[schema.MonthKey]int, months []schema.MonthKey, n int) float64 {
	if len(months) == 0 {
		return 0
	}
	if len(months) > n {
		months = months[len(months)-n:]
	}
	sum := lo.SumBy(months, func(m schema.MonthKey) int { return counts[m] })
	return algo.Round1(float64(sum) / float64(len(months)))
}

// Velocity compares the last 12 and last 3 active months of merged PRs per repository.
// Automated authors are included.
func Velocity(records []schema.NormalizedRecord) []schema.RepoVelocity {
	byRepo := lo.GroupBy(lo.Filter(records, func(r schema.NormalizedRecord, _ int) bool { return r.Merged }),
		func(r schema.NormalizedRecord) string { return r.Repository })

	out := make([]schema.RepoVelocity, 0, len(byRepo))
	for _, name := range sortedRepos(records) {
		merged, ok := byRepo[name]
		if !ok {
			continue
		}
		counts := make(map[schema.MonthKey]int)
		for _, r := range merged {
			counts[schema.MonthOf(*r.MergedAt)]++
		}
		months := lo.Keys(counts)
		slices.SortFunc(months, schema.MonthKey.Compare)

		long := trailingAverage(counts, months, velocityLongMonths)
		short := trailingAverage(counts, months, velocityShortMonths)
		trend := schema.TrendStable
		switch {
		case short > long:
			trend = schema.TrendIncreasing
		case short < long:
			trend = schema.TrendDecreasing
		}
		out = append(out, schema.RepoVelocity{
			Repository:        name,
			AvgPerMonthLast12: long,
			AvgPerMonthLast3:  short,
			Trend:             trend,
			LastActiveMonth:   months[len(months)-1],
			ActiveMonths:      len(months),
		})
	}
	return out
}

// Summaries breaks down each repository's PRs and contributors.
func Summaries(records []schema.NormalizedRecord, topN int) []schema.RepoSummary {
	byRepo := lo.GroupBy(records, func(r schema.NormalizedRecord) string { return r.Repository })
	out := make([]schema.RepoSummary, 0, len(byRepo))
	for _, name := range sortedRepos(records) {
		out = append(out, summarize(name, byRepo[name], topN))
	}
	return out
}

func summarize(name string, records []schema.NormalizedRecord, topN int) schema.RepoSummary {
	s := schema.RepoSummary{Repository: name, TotalPRs: len(records)}
	authored := make(map[string]int)
	all := make(map[string]struct{})
	monthly := make(map[schema.MonthKey]map[string]struct{})

	for _, r := range records {
		all[r.Author] = struct{}{}
		if !r.Human {
			s.AutomatedPRs++
			continue
		}
		s.HumanPRs++
		authored[r.Author]++
		if r.Eligible {
			s.MergedHumanPRs++
			m := schema.MonthOf(*r.MergedAt)
			if monthly[m] == nil {
				monthly[m] = make(map[string]struct{})
			}
			monthly[m][r.Author] = struct{}{}
		}
	}
	s.TotalContributors = len(all)
	s.HumanContributors = len(authored)

	top := lo.MapToSlice(authored, func(n string, c int) schema.RepoContributor {
		return schema.RepoContributor{Name: n, Count: c}
	})
	slices.SortFunc(top, func(a, b schema.RepoContributor) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	s.SignificantContributors = []schema.SignificantContributor{}
	for _, c := range top {
		if s.HumanPRs > 0 && float64(c.Count)/float64(s.HumanPRs) > significantShare {
			s.SignificantContributors = append(s.SignificantContributors, schema.SignificantContributor{
				Name:       c.Name,
				Count:      c.Count,
				Percentage: algo.Round1(algo.Percent(c.Count, s.HumanPRs)),
			})
		}
	}
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}
	s.TopContributors = top

	months := lo.Keys(monthly)
	slices.SortFunc(months, schema.MonthKey.Compare)
	if len(months) > velocityLongMonths {
		months = months[len(months)-velocityLongMonths:]
	}
	if len(months) > 0 {
		sum := lo.SumBy(months, func(m schema.MonthKey) int { return len(monthly[m]) })
		s.AvgMonthlyContributorCount = algo.Round1(float64(sum) / float64(len(months)))
	}
	return s
}

// Timeline returns a dense monthly series of eligible merges per repository,
// from the first to the last active month, keeping the last 'months' points.
func Timeline(records []schema.NormalizedRecord, months int) []schema.TimelinePoint {
	eligible := lo.Filter(records, func(r schema.NormalizedRecord, _ int) bool { return r.Eligible })
	if len(eligible) == 0 {
		return []schema.TimelinePoint{}
	}

	repos := sortedRepos(eligible)
	counts := make(map[schema.MonthKey]map[string]int)
	first, last := schema.MonthOf(*eligible[0].MergedAt), schema.MonthOf(*eligible[0].MergedAt)
	for _, r := range eligible {
		m := schema.MonthOf(*r.MergedAt)
		if counts[m] == nil {
			counts[m] = make(map[string]int)
		}
		counts[m][r.Repository]++
		if m.Before(first) {
			first = m
		}
		if last.Before(m) {
			last = m
		}
	}

	if months > 0 && first.MonthsUntil(last) >= months {
		first = last.AddMonths(-(months - 1))
	}

	out := make([]schema.TimelinePoint, 0, first.MonthsUntil(last)+1)
	for m := first; !last.Before(m); m = m.Next() {
		p := schema.TimelinePoint{Month: m, Counts: make(map[string]int, len(repos))}
		for _, repo := range repos {
			c := counts[m][repo]
			p.Counts[repo] = c
			p.Total += c
		}
		out = append(out, p)
	}
	return out
}
