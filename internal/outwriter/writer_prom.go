package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/prpulse/schema"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

const metricPrefix = "prpulse_"

// gaugeFamily accumulates gauge samples for one metric name.
type gaugeFamily struct {
	mf *dto.MetricFamily
}

func newGauge(name, help string) *gaugeFamily {
	return &gaugeFamily{mf: &dto.MetricFamily{
		Name: proto.String(metricPrefix + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}}
}

// add appends a sample. Labels are given as name/value pairs in sorted name order.
func (g *gaugeFamily) add(value float64, labels ...string) *gaugeFamily {
	pairs := make([]*dto.LabelPair, 0, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		pairs = append(pairs, &dto.LabelPair{Name: proto.String(labels[i]), Value: proto.String(labels[i+1])})
	}
	g.mf.Metric = append(g.mf.Metric, &dto.Metric{Label: pairs, Gauge: &dto.Gauge{Value: proto.Float64(value)}})
	return g
}

// writeFamilies writes metric families in the Prometheus text exposition format.
// Families without samples are skipped since the format cannot express them.
func writeFamilies(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func contributorFamilies(report schema.Report) []*dto.MetricFamily {
	scores := newGauge("contributor_health_score", "Bounded health indicator per contributor.")
	tiers := newGauge("contributor_risk_tier", "Risk tier of a contributor, 1 for the current tier.")
	recent := newGauge("contributor_recent_prs", "Merged PRs inside the recency window.")
	total := newGauge("contributor_total_prs", "All-time merged PRs.")
	gap := newGauge("contributor_longest_gap_months", "Longest run of inactive months.")

	for _, c := range report.Contributors {
		name := c.Profile.Name
		h := c.Health
		for _, s := range []struct {
			indicator string
			value     int
		}{
			{"activity", h.Activity},
			{"consistency", h.Consistency},
			{"diversity", h.Diversity},
			{"sustainability", h.Sustainability},
			{"workload", h.Workload},
		} {
			scores.add(float64(s.value), "contributor", name, "indicator", s.indicator)
		}
		tiers.add(1, "contributor", name, "tier", string(h.RiskTier))
		recent.add(float64(c.Profile.RecentCount), "contributor", name)
		total.add(float64(c.Profile.TotalCount), "contributor", name)
		gap.add(float64(c.Trend.LongestGapMonths), "contributor", name)
	}
	return []*dto.MetricFamily{scores.mf, tiers.mf, recent.mf, total.mf, gap.mf}
}

func cohortFamilies(report schema.Report) []*dto.MetricFamily {
	c := report.Cohort
	share := newGauge("contributor_recent_share_percent", "Share of ranked recent activity.")
	for _, r := range c.Ranked {
		share.add(r.RecentShare, "contributor", r.Name)
	}
	return []*dto.MetricFamily{
		newGauge("bus_factor", "Smallest number of contributors holding half of recent activity.").add(float64(c.BusFactor)).mf,
		newGauge("ranked_contributors", "Contributors passing the cohort filter.").add(float64(len(c.Ranked))).mf,
		newGauge("significant_contributors", "Contributors holding more than 10% of human PRs.").add(float64(len(c.SignificantContributors))).mf,
		newGauge("recently_inactive_contributors", "Former contributors without recent activity.").add(float64(len(c.RecentlyInactive))).mf,
		newGauge("avg_monthly_contributors", "Mean distinct authors per active month.").add(c.AvgMonthlyContributorCount).mf,
		share.mf,
	}
}

func lifecycleFamilies(report schema.Report) []*dto.MetricFamily {
	l := report.Lifecycle
	latency := newGauge("merge_latency_days", "Time from creation to merge across all valid PRs.").
		add(l.Overall.AvgMergeDays, "stat", "avg").
		add(l.Overall.MedianMergeDays, "stat", "median")
	buckets := newGauge("merge_latency_bucket_prs", "Merged PRs per latency bucket.")
	for _, b := range l.Distribution {
		buckets.add(float64(b.Count), "bucket", b.Name)
	}
	anomalies := newGauge("lifecycle_anomalies", "Records excluded from latency metrics.").
		add(float64(l.Anomalies.MissingCreatedAt), "kind", "missing_created_at").
		add(float64(l.Anomalies.NegativeFirstInteraction), "kind", "negative_first_interaction").
		add(float64(l.Anomalies.NegativeLatency), "kind", "negative_latency").
		add(float64(l.Anomalies.OutOfRangeTimestamps), "kind", "out_of_range")
	return []*dto.MetricFamily{latency.mf, buckets.mf, anomalies.mf}
}

func repoFamilies(report schema.Report) []*dto.MetricFamily {
	velocity := newGauge("repo_merged_prs_per_month", "Average merged PRs per active month.")
	for _, v := range report.Velocity {
		velocity.add(v.AvgPerMonthLast12, "repository", v.Repository, "window", "12")
		velocity.add(v.AvgPerMonthLast3, "repository", v.Repository, "window", "3")
	}
	contributors := newGauge("repo_human_contributors", "Distinct human authors per repository.")
	prs := newGauge("repo_prs", "PRs per repository by author class.")
	for _, s := range report.Repositories {
		contributors.add(float64(s.HumanContributors), "repository", s.Repository)
		prs.add(float64(s.HumanPRs), "class", "human", "repository", s.Repository)
		prs.add(float64(s.AutomatedPRs), "class", "automated", "repository", s.Repository)
	}
	return []*dto.MetricFamily{velocity.mf, contributors.mf, prs.mf}
}

func qualityFamilies(q schema.DataQuality) []*dto.MetricFamily {
	return []*dto.MetricFamily{
		newGauge("input_records", "Input records by classification.").
			add(float64(q.AutomatedRecords), "class", "automated").
			add(float64(q.EligibleRecords), "class", "eligible").
			add(float64(q.TotalRecords), "class", "total").
			add(float64(q.UnmergedRecords), "class", "unmerged").mf,
	}
}

func checkFamilies(result schema.CheckResult) []*dto.MetricFamily {
	passed := 0.0
	if result.Passed {
		passed = 1
	}
	return []*dto.MetricFamily{
		newGauge("check_passed", "1 when the health gate passed.").add(passed).mf,
		newGauge("check_bus_factor", "Observed and minimum bus factor.").
			add(float64(result.BusFactor), "kind", "observed").
			add(float64(result.MinBusFactor), "kind", "minimum").mf,
		newGauge("check_violations", "Ranked contributors in a failing tier.").add(float64(len(result.Violations))).mf,
	}
}

func metricsFamilies(params schema.Params) []*dto.MetricFamily {
	return []*dto.MetricFamily{
		newGauge("param_window_months", "Recency window in months.").add(float64(params.RecencyWindowMonths)).mf,
		newGauge("param_min_prs", "Minimum authored PRs for the cohort ranking.").add(float64(params.MinimumPRThreshold)).mf,
		newGauge("param_active_only", "1 when the cohort ranking keeps active contributors only.").add(boolFloat(params.ActiveOnlyMode)).mf,
		newGauge("param_cohort_top_n", "Rows kept in the cohort ranking.").add(float64(params.CohortTopN)).mf,
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// itoa is a short alias used by the table writers.
func itoa(v int) string {
	return strconv.Itoa(v)
}
