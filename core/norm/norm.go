// Package norm resolves raw pull request records into normalized records.
package norm

import (
	"slices"
	"strings"

	"github.com/huangsam/prpulse/schema"
)

// serviceAccounts are hosting and CI accounts that never carry "bot" in their login.
var serviceAccounts = []string{
	"netlify",
	"github-actions",
	"codecov",
	"vercel",
	"coveralls",
	"greenkeeper",
}

// automatedMarkers are substrings that mark an author as automated.
var automatedMarkers = []string{"bot", "app/"}

// IsAutomated reports whether the author identifier belongs to an automated account.
// An empty author is treated as absent.
func IsAutomated(author string) bool {
	if author == "" || author == schema.UnknownAuthor {
		return true
	}
	for _, marker := range automatedMarkers {
		if strings.Contains(author, marker) {
			return true
		}
	}
	return slices.Contains(serviceAccounts, author)
}

// NormalizeRecord resolves a single record.
func NormalizeRecord(r schema.PullRequestRecord) schema.NormalizedRecord {
	author := schema.UnknownAuthor
	if r.Author != nil && *r.Author != "" {
		author = *r.Author
	}
	human := !IsAutomated(author)
	merged := r.MergedAt != nil
	return schema.NormalizedRecord{
		Author:             author,
		Repository:         r.Repository,
		CreatedAt:          r.CreatedAt,
		MergedAt:           r.MergedAt,
		FirstInteractionAt: r.FirstInteractionAt,
		Human:              human,
		Merged:             merged,
		Eligible:           human && merged,
	}
}

// Normalize resolves every record, preserving input order.
func Normalize(records []schema.PullRequestRecord) []schema.NormalizedRecord {
	out := make([]schema.NormalizedRecord, len(records))
	for i, r := range records {
		out[i] = NormalizeRecord(r)
	}
	return out
}

// Eligible returns the records with a human author and a merge timestamp.
func Eligible(records []schema.NormalizedRecord) []schema.NormalizedRecord {
	out := make([]schema.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if r.Eligible {
			out = append(out, r)
		}
	}
	return out
}

// Quality counts how the normalized records were classified.
// Latency anomaly counters are filled in by the lifecycle calculator.
func Quality(records []schema.NormalizedRecord) schema.DataQuality {
	q := schema.DataQuality{TotalRecords: len(records)}
	for _, r := range records {
		if !r.Human {
			q.AutomatedRecords++
		}
		if !r.Merged {
			q.UnmergedRecords++
		}
		if r.Eligible {
			q.EligibleRecords++
		}
	}
	return q
}
