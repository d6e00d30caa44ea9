// Package agg groups normalized records into per-contributor activity profiles.
package agg

import (
	"slices"
	"time"

	"github.com/huangsam/prpulse/schema"
)

// RecentCutoff returns the instant from which a month counts as recent.
// A month is recent when its first instant is on or after the cutoff.
// Month-end dates clamp, so the current month is always inside a non-empty window.
func RecentCutoff(now time.Time, window int) time.Time {
	return schema.MonthsBefore(now.UTC(), window)
}

// IsRecentMonth reports whether month m falls inside the recency window.
func IsRecentMonth(m schema.MonthKey, cutoff time.Time) bool {
	return !m.Start().Before(cutoff)
}

// Aggregate builds a profile for every author with at least one eligible record.
// Only eligible records contribute to monthly activity, repositories and timestamps.
// AuthoredCount counts every human record of the author, merged or not.
func Aggregate(records []schema.NormalizedRecord, window int, now time.Time) map[string]*schema.ContributorProfile {
	profiles := make(map[string]*schema.ContributorProfile)
	authored := make(map[string]int)
	repoSets := make(map[string]map[string]struct{})

	for _, r := range records {
		if !r.Human {
			continue
		}
		authored[r.Author]++
		if !r.Eligible {
			continue
		}
		merged := r.MergedAt.UTC()
		p, ok := profiles[r.Author]
		if !ok {
			p = &schema.ContributorProfile{
				Name:            r.Author,
				MonthlyActivity: make(map[schema.MonthKey]int),
				FirstActivity:   merged,
				LastActivity:    merged,
			}
			profiles[r.Author] = p
			repoSets[r.Author] = make(map[string]struct{})
		}
		p.MonthlyActivity[schema.MonthOf(merged)]++
		p.TotalCount++
		repoSets[r.Author][r.Repository] = struct{}{}
		if merged.Before(p.FirstActivity) {
			p.FirstActivity = merged
		}
		if merged.After(p.LastActivity) {
			p.LastActivity = merged
		}
	}

	cutoff := RecentCutoff(now, window)
	for name, p := range profiles {
		p.AuthoredCount = authored[name]
		for m, c := range p.MonthlyActivity {
			if IsRecentMonth(m, cutoff) {
				p.RecentCount += c
			}
		}
		repos := make([]string, 0, len(repoSets[name]))
		for repo := range repoSets[name] {
			repos = append(repos, repo)
		}
		slices.Sort(repos)
		p.Repositories = repos
	}

	return profiles
}

// SortedNames returns the profile keys in ascending order.
func SortedNames(profiles map[string]*schema.ContributorProfile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ActiveMonths returns the distinct active months of a profile in chronological order.
func ActiveMonths(p *schema.ContributorProfile) []schema.MonthKey {
	months := make([]schema.MonthKey, 0, len(p.MonthlyActivity))
	for m, c := range p.MonthlyActivity {
		if c > 0 {
			months = append(months, m)
		}
	}
	slices.SortFunc(months, schema.MonthKey.Compare)
	return months
}
