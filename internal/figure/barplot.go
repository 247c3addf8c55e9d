// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figure

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matsojr22/projection-tools/pkg/types"
)

// RegionOrder fixes the x-axis region order for every bar plot,
// posterior to medial.
var RegionOrder = []string{
	"VISp", "VISpor", "VISpl", "VISli", "VISl", "VISal", "VISrl",
	"VISa", "VISam", "VISpm", "RSPagl", "RSPd", "RSPv",
}

var hemisphereLabels = map[string]string{
	types.HemisphereLeft:    "Left",
	types.HemisphereRight:   "Right",
	types.HemisphereMidline: "Midline",
}

var hemispherePattern = regexp.MustCompile(`_hemisphere_(\d)_`)

// regionTable holds one CSV's per-region sample columns.
type regionTable struct {
	regions []string             // present regions, in RegionOrder
	samples map[string][]float64 // region → one value per input file
}

func (t *regionTable) without(region string) *regionTable {
	out := &regionTable{samples: t.samples}
	for _, r := range t.regions {
		if r != region {
			out.regions = append(out.regions, r)
		}
	}
	return out
}

// merge appends other's samples onto t, extending the region list with
// regions t has not seen.
func (t *regionTable) merge(other *regionTable) {
	for _, r := range other.regions {
		if _, ok := t.samples[r]; !ok {
			t.regions = append(t.regions, r)
		}
		t.samples[r] = append(t.samples[r], other.samples[r]...)
	}
}

// readRegionTable loads an extractor output CSV, dropping the
// filename column and keeping the region columns in RegionOrder.
func readRegionTable(path string) (*regionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty CSV", path)
	}

	header := rows[0]
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}

	tbl := &regionTable{samples: make(map[string][]float64)}
	for _, region := range RegionOrder {
		idx, ok := colIdx[region]
		if !ok {
			continue
		}
		values := make([]float64, 0, len(rows)-1)
		for _, row := range rows[1:] {
			v, err := strconv.ParseFloat(row[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: non-numeric cell %q in column %s: %w", path, row[idx], region, err)
			}
			values = append(values, v)
		}
		tbl.regions = append(tbl.regions, region)
		tbl.samples[region] = values
	}
	return tbl, nil
}

// meanSEM returns the mean and standard error of one region's samples.
// A single sample has no spread; its SEM is zero.
func meanSEM(values []float64) (mean, sem float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) < 2 {
		return mean, 0
	}
	return mean, stat.StdDev(values, nil) / math.Sqrt(float64(len(values)))
}

// jitterer draws deterministic horizontal jitter for scatter overlays.
type jitterer struct {
	dist distuv.Normal
}

func newJitterer(seed uint64) *jitterer {
	return &jitterer{dist: distuv.Normal{Mu: 0, Sigma: 0.05, Src: rand.NewSource(seed)}}
}

func (j *jitterer) points(x float64, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = x + j.dist.Rand()
		pts[i].Y = v
	}
	return pts
}

// barValues embeds XYs and YErrors so one value satisfies both the
// XYer and YErrorer interfaces NewYErrorBars wants.
type barValues struct {
	plotter.XYs
	plotter.YErrors
}

var scatterColor = color.RGBA{A: 153} // black at 60% opacity

func addScatter(p *plot.Plot, pts plotter.XYs) error {
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(1.5)
	s.GlyphStyle.Color = scatterColor
	p.Add(s)
	return nil
}

// makeBarPlot renders one mean ± SEM bar chart with a jittered
// per-sample scatter overlay, saved as both PNG and SVG.
func makeBarPlot(tbl *regionTable, title, outPrefix string, jit *jitterer, w io.Writer) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Mean Value ± SEM"
	p.NominalX(tbl.regions...)

	means := make(plotter.Values, len(tbl.regions))
	errs := barValues{
		XYs:     make(plotter.XYs, len(tbl.regions)),
		YErrors: make(plotter.YErrors, len(tbl.regions)),
	}
	for i, region := range tbl.regions {
		mean, sem := meanSEM(tbl.samples[region])
		means[i] = mean
		errs.XYs[i].X = float64(i)
		errs.XYs[i].Y = mean
		errs.YErrors[i].Low = sem
		errs.YErrors[i].High = sem
	}

	bars, err := plotter.NewBarChart(means, vg.Points(18))
	if err != nil {
		return fmt.Errorf("bar chart for %s: %w", title, err)
	}
	bars.Color = color.RGBA{R: 0x87, G: 0xce, B: 0xeb, A: 0xff} // sky blue
	bars.LineStyle.Color = color.Black
	p.Add(bars)

	errBars, err := plotter.NewYErrorBars(errs)
	if err != nil {
		return fmt.Errorf("error bars for %s: %w", title, err)
	}
	p.Add(errBars)

	for i, region := range tbl.regions {
		if err := addScatter(p, jit.points(float64(i), tbl.samples[region])); err != nil {
			return fmt.Errorf("scatter for %s: %w", title, err)
		}
	}

	for _, ext := range []string{".png", ".svg"} {
		if err := p.Save(14*vg.Inch, 6*vg.Inch, outPrefix+ext); err != nil {
			return fmt.Errorf("saving %s%s: %w", outPrefix, ext, err)
		}
	}
	fmt.Fprintf(w, "Saved: %s.png/.svg\n", outPrefix)
	return nil
}

// comparisonOffset is the data-space x shift for hemisphere index i,
// centering the three bar groups on each region tick.
func comparisonOffset(i int) float64 { return 0.25 * float64(i-1) }

// hemisphereSeries builds one hemisphere's bars and matching error
// values. Bars are positioned via XMin so the whiskers and scatter
// share the same data-space x as the bars they describe.
func hemisphereSeries(tbl *regionTable, regions []string, width vg.Length, off float64) (*plotter.BarChart, barValues, error) {
	means := make(plotter.Values, len(regions))
	errs := barValues{
		XYs:     make(plotter.XYs, len(regions)),
		YErrors: make(plotter.YErrors, len(regions)),
	}
	for j, region := range regions {
		mean, sem := meanSEM(tbl.samples[region])
		means[j] = mean
		errs.XYs[j].X = float64(j) + off
		errs.XYs[j].Y = mean
		errs.YErrors[j].Low = sem
		errs.YErrors[j].High = sem
	}
	bars, err := plotter.NewBarChart(means, width)
	if err != nil {
		return nil, barValues{}, err
	}
	bars.XMin = off
	return bars, errs, nil
}

// makeComparisonPlot renders the grouped hemisphere comparison chart
// for one field, one bar group per region.
func makeComparisonPlot(byHemisphere map[string]*regionTable, regions []string, title, outPrefix string, jit *jitterer, w io.Writer) error {
	if len(byHemisphere) == 0 {
		fmt.Fprintln(w, "Warning: no matching hemispheres (1, 2, 3) found in data.")
		return nil
	}

	p := plot.New()
	p.Title.Text = title + " (Hemispheric Comparison)"
	p.Y.Label.Text = "Mean Value ± SEM"
	p.NominalX(regions...)

	width := vg.Points(8)
	for i, h := range types.Hemispheres {
		tbl, ok := byHemisphere[h]
		if !ok {
			continue
		}
		off := comparisonOffset(i)

		bars, errs, err := hemisphereSeries(tbl, regions, width, off)
		if err != nil {
			return fmt.Errorf("comparison bars for %s: %w", title, err)
		}
		bars.Color = plotutil.Color(i)
		p.Add(bars)
		p.Legend.Add(hemisphereLabels[h], bars)

		errBars, err := plotter.NewYErrorBars(errs)
		if err != nil {
			return fmt.Errorf("comparison error bars for %s: %w", title, err)
		}
		p.Add(errBars)

		for j, region := range regions {
			pts := jit.points(float64(j)+off, tbl.samples[region])
			if err := addScatter(p, pts); err != nil {
				return fmt.Errorf("comparison scatter for %s: %w", title, err)
			}
		}
	}
	p.Legend.Top = true

	for _, ext := range []string{".png", ".svg"} {
		path := outPrefix + "_hemisphere_comparison" + ext
		if err := p.Save(16*vg.Inch, 6*vg.Inch, path); err != nil {
			return fmt.Errorf("saving %s: %w", path, err)
		}
	}
	fmt.Fprintf(w, "Saved: %s_hemisphere_comparison.png/.svg\n", outPrefix)
	return nil
}

// Run generates bar plots for every extractor output CSV in
// cfg.InputDir: one plot per file (plus a no-VISp variant) and one
// hemisphere comparison per field. Figures land next to the CSVs.
func Run(cfg types.PlotConfig, w io.Writer) error {
	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("reading input directory %s: %w", cfg.InputDir, err)
	}

	// Group hemisphere variants of the same field together.
	groupOrder := []string{}
	groups := make(map[string][]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasPrefix(name, "._") {
			continue
		}
		key := hemispherePattern.ReplaceAllString(name, "_hemisphere_X_")
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], name)
	}

	jit := newJitterer(1)
	for _, key := range groupOrder {
		byHemisphere := make(map[string]*regionTable)
		var regions []string

		for _, name := range groups[key] {
			m := hemispherePattern.FindStringSubmatch(name)
			if m == nil {
				fmt.Fprintf(w, "Warning: could not find hemisphere ID in filename: %s\n", name)
				continue
			}

			tbl, err := readRegionTable(filepath.Join(cfg.InputDir, name))
			if err != nil {
				return err
			}
			if existing, ok := byHemisphere[m[1]]; ok {
				existing.merge(tbl)
			} else {
				byHemisphere[m[1]] = tbl
			}
			for _, r := range tbl.regions {
				if !contains(regions, r) {
					regions = append(regions, r)
				}
			}

			base := strings.TrimSuffix(name, ".csv")
			title := strings.ReplaceAll(base, "_", " ")
			prefix := filepath.Join(cfg.InputDir, base)
			if err := makeBarPlot(tbl, title, prefix, jit, w); err != nil {
				return err
			}
			if noVISp := tbl.without("VISp"); len(noVISp.regions) > 0 {
				if err := makeBarPlot(noVISp, title+" (No VISp)", prefix+"_NO-VISp", jit, w); err != nil {
					return err
				}
			}
		}

		if len(byHemisphere) == 0 {
			continue
		}

		ordered := orderRegions(regions)
		common := strings.TrimSuffix(strings.ReplaceAll(key, "_hemisphere_X_", "_"), ".csv")
		prefix := filepath.Join(cfg.InputDir, common)
		title := strings.ReplaceAll(common, "_", " ")
		if err := makeComparisonPlot(byHemisphere, ordered, title, prefix, jit, w); err != nil {
			return err
		}
		if noVISp := without(ordered, "VISp"); len(noVISp) > 0 {
			if err := makeComparisonPlot(byHemisphere, noVISp, title+" (No VISp)", prefix+"_NO-VISp", jit, w); err != nil {
				return err
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func orderRegions(present []string) []string {
	var out []string
	for _, r := range RegionOrder {
		if contains(present, r) {
			out = append(out, r)
		}
	}
	return out
}

func without(list []string, s string) []string {
	var out []string
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
