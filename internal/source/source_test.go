package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureSpecs() []schema.InputSpec {
	return []schema.InputSpec{
		schema.ParseInputSpec(filepath.Join("testdata", "alpha-prs.json")),
		schema.ParseInputSpec("b=" + filepath.Join("testdata", "beta.json")),
	}
}

func TestLoadRecords(t *testing.T) {
	records, err := LoadRecords(context.Background(), fixtureSpecs())
	require.NoError(t, err)
	require.Len(t, records, 4)

	// Files in argument order, records in file order
	assert.Equal(t, []int{1, 2, 3, 10}, []int{records[0].Number, records[1].Number, records[2].Number, records[3].Number})
	assert.Equal(t, "alpha", records[0].Repository)
	assert.Equal(t, "b", records[3].Repository)

	first := records[0]
	require.NotNil(t, first.Author)
	assert.Equal(t, "alice", *first.Author)
	require.NotNil(t, first.FirstInteractionAt)
	assert.Equal(t, time.Date(2025, time.January, 10, 10, 0, 0, 0, time.UTC), *first.FirstInteractionAt)

	assert.Nil(t, records[1].FirstInteractionAt)

	draft := records[2]
	assert.Nil(t, draft.Author)
	assert.Nil(t, draft.MergedAt)
	require.NotNil(t, draft.CreatedAt)
	assert.Equal(t, time.UTC, draft.CreatedAt.Location())
	assert.Equal(t, 2025, draft.CreatedAt.Year())
	assert.Equal(t, time.February, draft.CreatedAt.Month())
	assert.Equal(t, 22, draft.CreatedAt.Hour())
}

func TestLoadRecordsErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		message string
	}{
		{"missing file", filepath.Join("testdata", "missing.json"), "failed to read"},
		{"invalid json", filepath.Join("testdata", "broken.json"), "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := append(fixtureSpecs(), schema.ParseInputSpec(tt.path))
			_, err := LoadRecords(context.Background(), specs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestLoadRecordsEmpty(t *testing.T) {
	records, err := LoadRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeRepositoryOverride(t *testing.T) {
	data := []byte(`[{"author":{"login":"carol"},"repository":"api","mergedAt":"2025-05-01T00:00:00Z"},{"author":{"login":"dave"}}]`)
	records, err := Decode(data, "fallback")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "api", records[0].Repository)
	assert.Equal(t, "fallback", records[1].Repository)
}

func TestDecodeMalformedTimestamps(t *testing.T) {
	data := []byte(`[
		{"number": 1, "author": {"login": "alice"}, "createdAt": "2025-05-01T00:00:00Z", "mergedAt": ""},
		{"number": 2, "author": {"login": "bob"}, "createdAt": "last tuesday", "mergedAt": "2025-05-03T00:00:00Z"},
		{"number": 3, "author": {"login": "carol"}, "createdAt": 1714521600, "mergedAt": null, "firstInteraction": {"at": "x"}},
		{"number": 4, "author": {"login": "dave"}, "createdAt": "2025-05-01T00:00:00.123+02:00", "mergedAt": "2025-05-02T00:00:00Z"}
	]`)
	records, err := Decode(data, "api")
	require.NoError(t, err)
	require.Len(t, records, 4)

	require.NotNil(t, records[0].CreatedAt)
	assert.Nil(t, records[0].MergedAt)

	assert.Nil(t, records[1].CreatedAt)
	require.NotNil(t, records[1].MergedAt)
	assert.Equal(t, time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC), *records[1].MergedAt)

	assert.Nil(t, records[2].CreatedAt)
	assert.Nil(t, records[2].MergedAt)
	assert.Nil(t, records[2].FirstInteractionAt)

	require.NotNil(t, records[3].CreatedAt)
	assert.Equal(t, time.Date(2025, time.April, 30, 22, 0, 0, 123000000, time.UTC), *records[3].CreatedAt)
}

func TestDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repo.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	specs := []schema.InputSpec{{Repository: "repo", Path: path}}
	first, err := Digest(specs)
	require.NoError(t, err)
	again, err := Digest(specs)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, first, 64)

	retagged, err := Digest([]schema.InputSpec{{Repository: "other", Path: path}})
	require.NoError(t, err)
	assert.NotEqual(t, first, retagged)

	require.NoError(t, os.WriteFile(path, []byte(`[{"number":1}]`), 0o644))
	changed, err := Digest(specs)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)

	_, err = Digest([]schema.InputSpec{{Repository: "x", Path: filepath.Join(dir, "missing.json")}})
	assert.Error(t, err)
}

func BenchmarkDecode(b *testing.B) {
	data, err := os.ReadFile(filepath.Join("testdata", "alpha-prs.json"))
	require.NoError(b, err)
	for b.Loop() {
		_, _ = Decode(data, "alpha")
	}
}
