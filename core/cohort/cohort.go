// Package cohort analyzes activity across all contributors: ranking, bus factor,
// significant contributors, lapsed contributors and monthly collaboration.
package cohort

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/prpulse/core/algo"
	"github.com/huangsam/prpulse/schema"
	"github.com/samber/lo"
)

// Default option values.
const (
	DefaultTopN           = 15
	DefaultInactiveTopN   = 10
	DefaultCollabTopN     = 10
	DefaultMaintainerTopN = 8
	DefaultTrailingMonths = 12
	BusFactorShare        = 0.5
	significantShare      = 0.10
)

// DefaultInactiveFloor is the earliest last-activity date considered for lapsed contributors.
var DefaultInactiveFloor = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// Options controls the cohort analysis.
type Options struct {
	MinPRs         int
	ActiveOnly     bool
	TopN           int
	InactiveTopN   int
	InactiveFloor  time.Time
	CollabTopN     int
	MaintainerTopN int
	TrailingMonths int
	Now            time.Time
}

// DefaultOptions returns the options used when the caller supplies nothing else.
func DefaultOptions(now time.Time) Options {
	return Options{
		MinPRs:         1,
		ActiveOnly:     true,
		TopN:           DefaultTopN,
		InactiveTopN:   DefaultInactiveTopN,
		InactiveFloor:  DefaultInactiveFloor,
		CollabTopN:     DefaultCollabTopN,
		MaintainerTopN: DefaultMaintainerTopN,
		TrailingMonths: DefaultTrailingMonths,
		Now:            now,
	}
}

// Analyze computes the cohort summary from aggregated profiles and normalized records.
func Analyze(profiles map[string]*schema.ContributorProfile, records []schema.NormalizedRecord, opts Options) schema.CohortSummary {
	all := lo.Values(profiles)
	slices.SortFunc(all, func(a, b *schema.ContributorProfile) int { return cmp.Compare(a.Name, b.Name) })

	ranked := Rank(all, opts.MinPRs, opts.ActiveOnly)
	totalRecent := lo.SumBy(ranked, func(r schema.RankedContributor) int { return r.RecentCount })
	totalHuman := lo.SumBy(all, func(p *schema.ContributorProfile) int { return p.TotalCount })

	summary := schema.CohortSummary{
		Ranked:                     truncate(ranked, opts.TopN),
		BusFactor:                  BusFactor(ranked, BusFactorShare),
		SignificantContributors:    Significant(all, totalHuman),
		AvgMonthlyContributorCount: AvgMonthlyContributors(records, opts.TrailingMonths),
		RecentlyInactive:           RecentlyInactive(all, opts.InactiveFloor, opts.Now, opts.InactiveTopN),
		Collaborations:             Collaborations(records, opts.CollabTopN),
		TopMaintainers:             TopMaintainers(all, opts.MaintainerTopN),
		TotalHumanPRs:              totalHuman,
		TotalRecentCount:           totalRecent,
	}
	return summary
}

// Rank filters profiles by the minimum authored count and, in active-only mode,
// by recent activity, then orders them by recent activity.
func Rank(profiles []*schema.ContributorProfile, minPRs int, activeOnly bool) []schema.RankedContributor {
	eligible := lo.Filter(profiles, func(p *schema.ContributorProfile, _ int) bool {
		if p.AuthoredCount < minPRs {
			return false
		}
		return !activeOnly || p.RecentCount > 0
	})
	eligible = algo.RankProfiles(slices.Clone(eligible), 0)

	total := lo.SumBy(eligible, func(p *schema.ContributorProfile) int { return p.RecentCount })
	ranked := make([]schema.RankedContributor, 0, len(eligible))
	running := 0
	for i, p := range eligible {
		running += p.RecentCount
		ranked = append(ranked, schema.RankedContributor{
			Rank:         i + 1,
			Name:         p.Name,
			RecentCount:  p.RecentCount,
			TotalCount:   p.TotalCount,
			RecentShare:  algo.Round1(algo.Percent(p.RecentCount, total)),
			Cumulative:   algo.Round1(algo.Percent(running, total)),
			Repositories: len(p.Repositories),
		})
	}
	return ranked
}

// BusFactor is the number of top-ranked contributors whose combined recent
// activity reaches share of the ranked total. It is 0 when there is no activity.
func BusFactor(ranked []schema.RankedContributor, share float64) int {
	total := lo.SumBy(ranked, func(r schema.RankedContributor) int { return r.RecentCount })
	if total == 0 {
		return 0
	}
	target := share * float64(total)
	cumulative := 0
	for i, r := range ranked {
		cumulative += r.RecentCount
		if float64(cumulative) >= target {
			return i + 1
		}
	}
	return len(ranked)
}

// Significant returns contributors holding more than 10% of all human merged PRs.
func Significant(profiles []*schema.ContributorProfile, totalHuman int) []schema.SignificantContributor {
	out := []schema.SignificantContributor{}
	if totalHuman == 0 {
		return out
	}
	for _, p := range profiles {
		if float64(p.TotalCount)/float64(totalHuman) > significantShare {
			out = append(out, schema.SignificantContributor{
				Name:       p.Name,
				Count:      p.TotalCount,
				Percentage: algo.Round1(algo.Percent(p.TotalCount, totalHuman)),
			})
		}
	}
	slices.SortFunc(out, func(a, b schema.SignificantContributor) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// RecentlyInactive returns contributors with no recent activity whose last
// activity is after floor, most recently lapsed first.
func RecentlyInactive(profiles []*schema.ContributorProfile, floor, now time.Time, limit int) []schema.InactiveContributor {
	lapsed := lo.Filter(profiles, func(p *schema.ContributorProfile, _ int) bool {
		return p.RecentCount == 0 && p.LastActivity.After(floor)
	})
	slices.SortStableFunc(lapsed, func(a, b *schema.ContributorProfile) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	out := make([]schema.InactiveContributor, 0, len(lapsed))
	for _, p := range truncate(lapsed, limit) {
		days := max(0, int(now.Sub(p.LastActivity).Hours()/24))
		out = append(out, schema.InactiveContributor{
			Name:            p.Name,
			LastActivity:    p.LastActivity,
			TotalCount:      p.TotalCount,
			DaysSinceLast:   days,
			MonthsSinceLast: days / 30,
		})
	}
	return out
}

// monthlyAuthors returns the distinct eligible authors per merge month.
func monthlyAuthors(records []schema.NormalizedRecord) map[schema.MonthKey]map[string]struct{} {
	byMonth := make(map[schema.MonthKey]map[string]struct{})
	for _, r := range records {
		if !r.Eligible {
			continue
		}
		m := schema.MonthOf(*r.MergedAt)
		if byMonth[m] == nil {
			byMonth[m] = make(map[string]struct{})
		}
		byMonth[m][r.Author] = struct{}{}
	}
	return byMonth
}

// Collaborations counts, for every unordered pair of authors, the months in which both merged.
func Collaborations(records []schema.NormalizedRecord, limit int) []schema.CollaborationPair {
	counts := make(map[[2]string]int)
	for _, authors := range monthlyAuthors(records) {
		names := lo.Keys(authors)
		slices.Sort(names)
		for i := range names {
			for j := i + 1; j < len(names); j++ {
				counts[[2]string{names[i], names[j]}]++
			}
		}
	}

	pairs := make([]schema.CollaborationPair, 0, len(counts))
	for k, c := range counts {
		pairs = append(pairs, schema.CollaborationPair{
			Pair:   fmt.Sprintf("%s & %s", k[0], k[1]),
			First:  k[0],
			Second: k[1],
			Count:  c,
		})
	}
	slices.SortFunc(pairs, func(a, b schema.CollaborationPair) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Pair, b.Pair)
	})
	return truncate(pairs, limit)
}

// AvgMonthlyContributors is the mean number of distinct authors over the most
// recent 'trailing' months that had any activity.
func AvgMonthlyContributors(records []schema.NormalizedRecord, trailing int) float64 {
	byMonth := monthlyAuthors(records)
	if len(byMonth) == 0 {
		return 0
	}
	months := lo.Keys(byMonth)
	slices.SortFunc(months, schema.MonthKey.Compare)
	if trailing > 0 && len(months) > trailing {
		months = months[len(months)-trailing:]
	}
	sum := lo.SumBy(months, func(m schema.MonthKey) int { return len(byMonth[m]) })
	return algo.Round1(float64(sum) / float64(len(months)))
}

// TopMaintainers orders every profile by all-time merged count.
func TopMaintainers(profiles []*schema.ContributorProfile, limit int) []schema.MaintainerCount {
	sorted := slices.Clone(profiles)
	slices.SortStableFunc(sorted, func(a, b *schema.ContributorProfile) int {
		if c := cmp.Compare(b.TotalCount, a.TotalCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return lo.Map(truncate(sorted, limit), func(p *schema.ContributorProfile, _ int) schema.MaintainerCount {
		return schema.MaintainerCount{Name: p.Name, TotalCount: p.TotalCount}
	})
}

// truncate returns the first n items, or all of them when n is not positive.
func truncate[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
