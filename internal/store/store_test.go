package store

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsojr22/projection-tools/internal/catalog"
	"github.com/matsojr22/projection-tools/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{DBPath: filepath.Join(t.TempDir(), "projections.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.BeginRun(context.Background(), "testdata"))
	return s
}

func sampleResult(filename string) types.ExtractionResult {
	table := types.NewHemisphereTable(types.MeasuredFields(), catalog.Default().Names())
	table["1"]["projection-density"]["VISp"] = "5.00E-01"
	table["2"]["projection-volume"]["VISl"] = "1.20E+01"
	return types.ExtractionResult{
		Filename: filename,
		Table:    table,
		Sites: []types.InjectionSite{
			{Filename: filename, HemisphereID: "1", StructureID: "385"},
		},
	}
}

func TestIngestAndQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IngestResult(ctx, sampleResult("brain-01")))

	got, err := s.Query(ctx, QueryOptions{
		Filename:     "brain-01",
		HemisphereID: "1",
		Field:        "projection-density",
		Area:         "VISp",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5.00E-01", got[0].Value)

	// Default cells are stored too: the full table is 3 hemispheres ×
	// 9 fields × 13 areas.
	all, err := s.Query(ctx, QueryOptions{Filename: "brain-01", MaxResults: 1000})
	require.NoError(t, err)
	assert.Len(t, all, 3*9*13)
}

func TestReingestReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IngestResult(ctx, sampleResult("brain-01")))

	updated := sampleResult("brain-01")
	updated.Table["1"]["projection-density"]["VISp"] = "9.90E-01"
	updated.Sites = []types.InjectionSite{
		{Filename: "brain-01", HemisphereID: "2", StructureID: types.InferredStructureID},
	}
	require.NoError(t, s.IngestResult(ctx, updated))

	got, err := s.Query(ctx, QueryOptions{
		Filename: "brain-01", HemisphereID: "1", Field: "projection-density", Area: "VISp",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "9.90E-01", got[0].Value)

	sites, err := s.InjectionSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "2", sites[0].HemisphereID)
	assert.Equal(t, types.InferredStructureID, sites[0].StructureID)
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{}.IsEmpty())
	assert.True(t, QueryOptions{MaxResults: 10}.IsEmpty())
	assert.False(t, QueryOptions{Area: "VISp"}.IsEmpty())
}

func TestExportCSV(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IngestResult(ctx, sampleResult("a")))
	require.NoError(t, s.IngestResult(ctx, sampleResult("b")))

	areas := catalog.Default().Names()
	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(ctx, &buf, "1", "projection-density", areas))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "filename,"+strings.Join(areas, ","), string(lines[0]))
	assert.Contains(t, string(lines[1]), "a,")
	assert.Contains(t, string(lines[1]), "5.00E-01")
	assert.Contains(t, string(lines[2]), "b,")
}

// Export columns follow the caller's area list, so measurements
// ingested under an override catalog come out under that catalog.
func TestExportCSVCustomAreas(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IngestResult(ctx, sampleResult("a")))

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(ctx, &buf, "1", "projection-density", []string{"VISl", "VISp", "SSp"}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "filename,VISl,VISp,SSp", string(lines[0]))
	assert.Equal(t, "a,0,5.00E-01,0", string(lines[1]))
}
