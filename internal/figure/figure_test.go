package figure

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/matsojr22/projection-tools/pkg/types"
)

func TestViridisColorMap(t *testing.T) {
	cm := NewViridis(0, 1)

	if _, err := cm.At(0.5); err != nil {
		t.Errorf("At(0.5) error: %v", err)
	}
	if _, err := cm.At(-0.1); err == nil {
		t.Error("At(-0.1) accepted an underflow value")
	}
	if _, err := cm.At(1.1); err == nil {
		t.Error("At(1.1) accepted an overflow value")
	}
	if _, err := cm.At(math.NaN()); err == nil {
		t.Error("At(NaN) accepted NaN")
	}

	low, err := cm.At(0)
	if err != nil {
		t.Fatal(err)
	}
	high, err := cm.At(1)
	if err != nil {
		t.Fatal(err)
	}
	if low == high {
		t.Error("gradient endpoints are identical")
	}

	if n := len(cm.Palette(16).Colors()); n != 16 {
		t.Errorf("Palette(16) has %d colors, want 16", n)
	}
}

func TestMeanSEM(t *testing.T) {
	mean, sem := meanSEM([]float64{1, 2, 3})
	if mean != 2 {
		t.Errorf("mean = %v, want 2", mean)
	}
	want := 1.0 / math.Sqrt(3.0)
	if math.Abs(sem-want) > 1e-12 {
		t.Errorf("sem = %v, want %v", sem, want)
	}

	if _, sem := meanSEM([]float64{5}); sem != 0 {
		t.Errorf("single-sample sem = %v, want 0", sem)
	}
}

func TestReadRegionTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.csv")
	content := "filename,VISal,VISp,VISl\nbrain-01,1.00E+00,2.00E+00,3.00E+00\nbrain-02,4.00E+00,5.00E+00,6.00E+00\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := readRegionTable(path)
	if err != nil {
		t.Fatalf("readRegionTable() error: %v", err)
	}

	// Present regions come back in the fixed plotting order, not
	// header order.
	want := []string{"VISp", "VISl", "VISal"}
	if len(tbl.regions) != len(want) {
		t.Fatalf("regions = %v, want %v", tbl.regions, want)
	}
	for i, r := range want {
		if tbl.regions[i] != r {
			t.Errorf("regions[%d] = %q, want %q", i, tbl.regions[i], r)
		}
	}
	if got := tbl.samples["VISp"]; len(got) != 2 || got[0] != 2 || got[1] != 5 {
		t.Errorf("VISp samples = %v, want [2 5]", got)
	}

	noVISp := tbl.without("VISp")
	for _, r := range noVISp.regions {
		if r == "VISp" {
			t.Error("without(VISp) still contains VISp")
		}
	}
}

// Grouped-chart whiskers must sit on the bars they describe: the bar
// chart is positioned with a data-space XMin equal to the shift used
// for the error-bar and scatter x coordinates, not a display-space
// Offset.
func TestHemisphereSeriesAlignment(t *testing.T) {
	tbl := &regionTable{
		regions: []string{"VISp", "VISl"},
		samples: map[string][]float64{"VISp": {1, 3}, "VISl": {2, 4}},
	}
	for i := range types.Hemispheres {
		off := comparisonOffset(i)
		bars, errs, err := hemisphereSeries(tbl, tbl.regions, vg.Points(8), off)
		if err != nil {
			t.Fatalf("hemisphereSeries() error: %v", err)
		}
		if bars.Offset != 0 {
			t.Errorf("hemisphere %d bars use display Offset %v, want data-space positioning only", i, bars.Offset)
		}
		if bars.XMin != off {
			t.Errorf("hemisphere %d bars.XMin = %v, want %v", i, bars.XMin, off)
		}
		for j := range tbl.regions {
			if got, want := errs.XYs[j].X, float64(j)+off; got != want {
				t.Errorf("hemisphere %d error bar %d at x = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestRegionTableMerge(t *testing.T) {
	a := &regionTable{
		regions: []string{"VISp"},
		samples: map[string][]float64{"VISp": {1}},
	}
	b := &regionTable{
		regions: []string{"VISp", "VISl"},
		samples: map[string][]float64{"VISp": {2}, "VISl": {3}},
	}
	a.merge(b)

	if got := a.samples["VISp"]; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("VISp samples = %v, want [1 2]", got)
	}
	if got := a.samples["VISl"]; len(got) != 1 || got[0] != 3 {
		t.Errorf("VISl samples = %v, want [3]", got)
	}
	if !contains(a.regions, "VISl") {
		t.Error("merged table is missing VISl")
	}
}

func TestRunGeneratesFigures(t *testing.T) {
	dir := t.TempDir()
	for _, h := range []string{"1", "2"} {
		content := "filename,VISp,VISl\na,1.0,2.0\nb,3.0,4.0\n"
		name := "output_hemisphere_" + h + "_projection-density.csv"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if err := Run(types.PlotConfig{InputDir: dir}, &buf); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for _, name := range []string{
		"output_hemisphere_1_projection-density.png",
		"output_hemisphere_1_projection-density.svg",
		"output_hemisphere_1_projection-density_NO-VISp.png",
		"output_hemisphere_2_projection-density.png",
		"output_projection-density_hemisphere_comparison.png",
		"output_projection-density_NO-VISp_hemisphere_comparison.png",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected figure %s: %v", name, err)
		}
	}
}

func TestRunWarnsOnUnmatchedCSV(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("filename,VISp\na,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Run(types.PlotConfig{InputDir: dir}, &buf); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(buf.String(), "could not find hemisphere ID") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestRunMissingDir(t *testing.T) {
	if err := Run(types.PlotConfig{InputDir: filepath.Join(t.TempDir(), "nope")}, &bytes.Buffer{}); err == nil {
		t.Fatal("Run() succeeded on a missing directory")
	}
}

func TestScaleBar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viridis_scale_bar.svg")
	if err := ScaleBar(path); err != nil {
		t.Fatalf("ScaleBar() error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("scale bar not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("scale bar file is empty")
	}
}
