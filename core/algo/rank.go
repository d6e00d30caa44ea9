package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/prpulse/schema"
)

// CompareActivity orders profiles by recent count descending, then total count
// descending, then name ascending.
func CompareActivity(a, b *schema.ContributorProfile) int {
	if c := cmp.Compare(b.RecentCount, a.RecentCount); c != 0 {
		return c
	}
	if c := cmp.Compare(b.TotalCount, a.TotalCount); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// RankProfiles sorts profiles by recent activity and returns the top 'limit'.
// A limit of zero or less returns every profile.
func RankProfiles(profiles []*schema.ContributorProfile, limit int) []*schema.ContributorProfile {
	slices.SortStableFunc(profiles, CompareActivity)
	if limit > 0 && len(profiles) > limit {
		return profiles[:limit]
	}
	return profiles
}

// RankHealth sorts health rows with the same ordering as RankProfiles
// and returns the top 'limit'.
func RankHealth(rows []schema.ContributorHealth, limit int) []schema.ContributorHealth {
	slices.SortStableFunc(rows, func(a, b schema.ContributorHealth) int {
		return CompareActivity(&a.Profile, &b.Profile)
	})
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
