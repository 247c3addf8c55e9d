package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsojr22/projection-tools/internal/catalog"
	"github.com/matsojr22/projection-tools/pkg/types"
)

func writeXML(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return rows
}

type captureSink struct {
	results []types.ExtractionResult
}

func (s *captureSink) IngestResult(_ context.Context, res types.ExtractionResult) error {
	s.results = append(s.results, res)
	return nil
}

func TestRunMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope")

	var buf bytes.Buffer
	cfg := types.ExtractionConfig{InputDir: missing, OutputDir: dir}
	if err := Run(context.Background(), cfg, catalog.Default(), nil, &buf); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(buf.String(), "Directory does not exist") {
		t.Errorf("missing-directory message not printed: %q", buf.String())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("output files created despite missing input dir: %v", entries)
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "brain-01.xml", document(
		record(map[string]string{
			"hemisphere-id":      "1",
			"structure-id":       "385",
			"is-injection":       "true",
			"projection-density": "0.5",
			"projection-volume":  "10",
		}),
	))

	var buf bytes.Buffer
	cfg := types.ExtractionConfig{InputDir: dir}
	if err := Run(context.Background(), cfg, catalog.Default(), nil, &buf); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Exactly one explicit injection row, no inferred row.
	rows := readCSV(t, filepath.Join(dir, "output_injection_sites.csv"))
	if len(rows) != 2 {
		t.Fatalf("injection CSV has %d rows, want header + 1", len(rows))
	}
	want := []string{"brain-01", "1", "385"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("injection row[%d] = %q, want %q", i, rows[1][i], v)
		}
	}
	if strings.Contains(buf.String(), "Inferred") {
		t.Errorf("inferred record emitted despite explicit injection: %q", buf.String())
	}

	// All 27 hemisphere tables plus the injection table exist, with
	// the header in catalog order and one data row per input file.
	cat := catalog.Default()
	wantHeader := append([]string{"filename"}, cat.Names()...)
	for _, h := range types.Hemispheres {
		for _, field := range types.MeasuredFields() {
			path := filepath.Join(dir, "output_hemisphere_"+h+"_"+field+".csv")
			rows := readCSV(t, path)
			if len(rows) != 2 {
				t.Fatalf("%s has %d rows, want 2", path, len(rows))
			}
			for i, col := range wantHeader {
				if rows[0][i] != col {
					t.Fatalf("%s header[%d] = %q, want %q", path, i, rows[0][i], col)
				}
			}
			if len(rows[1]) != len(wantHeader) {
				t.Fatalf("%s data row has %d cells, want %d", path, len(rows[1]), len(wantHeader))
			}
		}
	}

	// Spot-check extracted values and defaults.
	density := readCSV(t, filepath.Join(dir, "output_hemisphere_1_projection-density.csv"))
	visp := indexOf(t, density[0], "VISp")
	if density[1][visp] != "5.00E-01" {
		t.Errorf("VISp density = %q, want 5.00E-01", density[1][visp])
	}
	visl := indexOf(t, density[0], "VISl")
	if density[1][visl] != "0" {
		t.Errorf("VISl density = %q, want 0", density[1][visl])
	}

	if !strings.Contains(buf.String(), "CSV files created:") {
		t.Errorf("manifest not printed: %q", buf.String())
	}
}

func TestRunInferredFallback(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "sample.xml", document(
		record(map[string]string{
			"hemisphere-id":     "2",
			"structure-id":      "409",
			"projection-volume": "4.0",
		}),
	))

	var buf bytes.Buffer
	cfg := types.ExtractionConfig{InputDir: dir}
	if err := Run(context.Background(), cfg, catalog.Default(), nil, &buf); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "output_injection_sites.csv"))
	if len(rows) != 2 {
		t.Fatalf("injection CSV has %d rows, want header + 1", len(rows))
	}
	if got := rows[1]; got[1] != "2" || got[2] != types.InferredStructureID {
		t.Errorf("inferred row = %v, want hemisphere 2, structure inferred", got)
	}
}

func TestRunMultipleFilesAccumulate(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "a.xml", document(
		record(map[string]string{"hemisphere-id": "1", "structure-id": "385", "projection-volume": "1"}),
	))
	writeXML(t, dir, "b.xml", document(
		record(map[string]string{"hemisphere-id": "2", "structure-id": "385", "projection-volume": "1"}),
	))
	writeXML(t, dir, "notes.txt", "not xml")

	sink := &captureSink{}
	var buf bytes.Buffer
	cfg := types.ExtractionConfig{InputDir: dir}
	if err := Run(context.Background(), cfg, catalog.Default(), sink, &buf); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "output_hemisphere_1_projection-volume.csv"))
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][0] != "a" || rows[2][0] != "b" {
		t.Errorf("row keys = %q, %q, want a, b", rows[1][0], rows[2][0])
	}

	if len(sink.results) != 2 {
		t.Errorf("sink received %d results, want 2", len(sink.results))
	}
}

func TestRunUnparsableDocumentFailsBatch(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "bad.xml", "<projection-structure-unionize><unclosed>")

	var buf bytes.Buffer
	cfg := types.ExtractionConfig{InputDir: dir}
	if err := Run(context.Background(), cfg, catalog.Default(), nil, &buf); err == nil {
		t.Fatal("Run() succeeded on unparsable XML")
	}
}

func indexOf(t *testing.T, header []string, name string) int {
	t.Helper()
	for i, h := range header {
		if h == name {
			return i
		}
	}
	t.Fatalf("column %q not found in %v", name, header)
	return -1
}
