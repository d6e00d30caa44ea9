// Package lifecycle computes time-to-merge and time-to-first-interaction metrics.
package lifecycle

import (
	"slices"
	"time"

	"github.com/huangsam/prpulse/core/algo"
	"github.com/huangsam/prpulse/schema"
)

// DefaultMonths is the number of trailing merge months reported.
const DefaultMonths = 12

// DefaultFloor is the earliest timestamp accepted as sane.
var DefaultFloor = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Options controls the lifecycle computation.
type Options struct {
	Now    time.Time
	Months int
	Floor  time.Time
}

// DefaultOptions returns the options used when the caller supplies nothing else.
func DefaultOptions(now time.Time) Options {
	return Options{Now: now, Months: DefaultMonths, Floor: DefaultFloor}
}

type bin struct {
	name     string
	minHours int
	maxHours int // 0 means unbounded
}

// bins are half-open latency ranges in hours.
var bins = []bin{
	{"<1 day", 0, 24},
	{"1-3 days", 24, 72},
	{"3-7 days", 72, 168},
	{"1-2 weeks", 168, 336},
	{"2-4 weeks", 336, 672},
	{">4 weeks", 672, 0},
}

// BinIndex returns the index of the bin holding a non-negative latency.
func BinIndex(hours int) int {
	for i, b := range bins {
		if hours >= b.minHours && (b.maxHours == 0 || hours < b.maxHours) {
			return i
		}
	}
	return 0
}

type monthSamples struct {
	latencies    []int
	interactions []int
}

// inRange reports whether t lies within [floor, now].
func inRange(t time.Time, opts Options) bool {
	return !t.Before(opts.Floor) && !t.After(opts.Now)
}

// Compute derives monthly latency aggregates, the latency distribution and
// anomaly counts from eligible records.
func Compute(records []schema.NormalizedRecord, opts Options) schema.LifecycleResult {
	var anomalies schema.LifecycleAnomalies
	byMonth := make(map[schema.MonthKey]*monthSamples)
	var all []int

	for _, r := range records {
		if !r.Eligible {
			continue
		}
		if r.CreatedAt == nil {
			anomalies.MissingCreatedAt++
			continue
		}
		created, merged := *r.CreatedAt, *r.MergedAt
		if !inRange(created, opts) || !inRange(merged, opts) {
			anomalies.OutOfRangeTimestamps++
			continue
		}
		if merged.Before(created) {
			anomalies.NegativeLatency++
			continue
		}

		m := schema.MonthOf(merged)
		s, ok := byMonth[m]
		if !ok {
			s = &monthSamples{}
			byMonth[m] = s
		}
		hours := int(merged.Sub(created).Hours())
		s.latencies = append(s.latencies, hours)
		all = append(all, hours)

		if r.FirstInteractionAt != nil {
			first := *r.FirstInteractionAt
			if first.Before(created) {
				anomalies.NegativeFirstInteraction++
			} else {
				s.interactions = append(s.interactions, int(first.Sub(created).Hours()))
			}
		}
	}

	return schema.LifecycleResult{
		Monthly:      monthly(byMonth, opts.Months),
		Distribution: Distribution(all),
		Overall:      overall(all),
		Anomalies:    anomalies,
	}
}

func monthly(byMonth map[schema.MonthKey]*monthSamples, keep int) []schema.LifecycleMonth {
	months := make([]schema.MonthKey, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	slices.SortFunc(months, schema.MonthKey.Compare)
	if keep > 0 && len(months) > keep {
		months = months[len(months)-keep:]
	}

	out := make([]schema.LifecycleMonth, 0, len(months))
	for _, m := range months {
		s := byMonth[m]
		row := schema.LifecycleMonth{
			Month:            m,
			Count:            len(s.latencies),
			AvgMergeDays:     algo.Round1(mean(s.latencies) / 24),
			MedianMergeDays:  algo.Round1(float64(LowerMedian(s.latencies)) / 24),
			InteractionCount: len(s.interactions),
		}
		if len(s.interactions) > 0 {
			avg := algo.Round1(mean(s.interactions))
			row.AvgFirstInteractionHours = &avg
		}
		out = append(out, row)
	}
	return out
}

func overall(all []int) schema.LifecycleOverall {
	return schema.LifecycleOverall{
		Count:           len(all),
		AvgMergeDays:    algo.Round1(mean(all) / 24),
		MedianMergeDays: algo.Round1(float64(LowerMedian(all)) / 24),
	}
}

// Distribution counts latencies per bin. Every bin is always present.
func Distribution(hours []int) []schema.LifecycleBucket {
	counts := make([]int, len(bins))
	for _, h := range hours {
		counts[BinIndex(h)]++
	}
	out := make([]schema.LifecycleBucket, len(bins))
	for i, b := range bins {
		out[i] = schema.LifecycleBucket{
			Name:       b.name,
			MinHours:   b.minHours,
			Count:      counts[i],
			Percentage: algo.Round1(algo.Percent(counts[i], len(hours))),
		}
		if b.maxHours > 0 {
			maxHours := b.maxHours
			out[i].MaxHours = &maxHours
		}
	}
	return out
}

// LowerMedian returns the lower-middle element of the sorted values, or 0 when empty.
func LowerMedian(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[(len(sorted)-1)/2]
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
