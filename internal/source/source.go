// Package source loads pull request records from exported JSON files.
package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/prpulse/schema"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFiles bounds how many input files are read at once.
const maxConcurrentFiles = 8

// Author is the nested author object of an exported pull request.
type Author struct {
	Login string `json:"login"`
}

// Timestamp is a lenient RFC3339 timestamp. Null, empty, non-string and
// unparseable values decode as absent instead of failing the whole file.
type Timestamp struct {
	t *time.Time
}

// At returns a pointer to the parsed time, or nil when absent.
func (ts Timestamp) At() *time.Time {
	return ts.t
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	ts.t = nil
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	ts.t = &parsed
	return nil
}

// WireRecord is one pull request in the exported JSON shape.
// Repository is only read by the HTTP API, where records arrive without a file name.
type WireRecord struct {
	Number           int       `json:"number"`
	Title            string    `json:"title"`
	Author           *Author   `json:"author"`
	CreatedAt        Timestamp `json:"createdAt"`
	MergedAt         Timestamp `json:"mergedAt"`
	FirstInteraction Timestamp `json:"firstInteraction"`
	State            string    `json:"state"`
	Repository       string    `json:"repository,omitempty"`
}

// Record converts the wire shape into an engine record tagged with repo.
// A non-empty Repository on the wire record takes precedence.
func (w WireRecord) Record(repo string) schema.PullRequestRecord {
	if w.Repository != "" {
		repo = w.Repository
	}
	rec := schema.PullRequestRecord{
		Repository:         repo,
		Number:             w.Number,
		Title:              w.Title,
		CreatedAt:          utcPtr(w.CreatedAt.At()),
		MergedAt:           utcPtr(w.MergedAt.At()),
		FirstInteractionAt: utcPtr(w.FirstInteraction.At()),
	}
	if w.Author != nil {
		login := w.Author.Login
		rec.Author = &login
	}
	return rec
}

// utcPtr copies t into UTC so month bucketing never depends on the input offset.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Decode parses a JSON array of exported pull requests.
func Decode(data []byte, repo string) ([]schema.PullRequestRecord, error) {
	var wire []WireRecord
	if err := json.Unmarshal(bytes.TrimSpace(data), &wire); err != nil {
		return nil, err
	}
	return Convert(wire, repo), nil
}

// Convert turns wire records into engine records, keeping their order.
func Convert(wire []WireRecord, repo string) []schema.PullRequestRecord {
	records := make([]schema.PullRequestRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, w.Record(repo))
	}
	return records
}

// LoadFile reads and decodes one input file.
func LoadFile(spec schema.InputSpec) ([]schema.PullRequestRecord, error) {
	data, err := os.ReadFile(spec.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", spec.Path, err)
	}
	records, err := Decode(data, spec.Repository)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", spec.Path, err)
	}
	return records, nil
}

// LoadRecords loads every input file concurrently. Records are returned with
// files in argument order and records in file order.
func LoadRecords(ctx context.Context, specs []schema.InputSpec) ([]schema.PullRequestRecord, error) {
	results := make([][]schema.PullRequestRecord, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)
	for i, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := LoadFile(spec)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	records := make([]schema.PullRequestRecord, 0, total)
	for _, r := range results {
		records = append(records, r...)
	}
	return records, nil
}

// Digest returns a hex sha256 over every repository tag and file content.
// It changes whenever an input file or its tag changes.
func Digest(specs []schema.InputSpec) (string, error) {
	h := sha256.New()
	for _, spec := range specs {
		data, err := os.ReadFile(spec.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", spec.Path, err)
		}
		_, _ = fmt.Fprintf(h, "%s\x00%d\x00", spec.Repository, len(data))
		_, _ = h.Write(data)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
