// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// matrixGrid exposes a dense matrix as a heat-map grid: columns on x,
// rows on y.
type matrixGrid struct {
	m *mat.Dense
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

// ResidualHeatMap renders standardized chi-square residuals with a
// diverging palette centered at zero.
func ResidualHeatMap(resid *mat.Dense, rowLabels, colLabels []string, path string) error {
	limit := 0.0
	rows, cols := resid.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			limit = math.Max(limit, math.Abs(resid.At(i, j)))
		}
	}
	if limit == 0 {
		limit = 1
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-limit)
	cm.SetMax(limit)

	p := plot.New()
	p.Title.Text = "Standardized Residuals from Chi-square Test"
	p.X.Label.Text = "Age"
	p.Y.Label.Text = "Target Type"
	p.NominalX(colLabels...)
	p.NominalY(rowLabels...)
	p.Add(plotter.NewHeatMap(matrixGrid{resid}, cm.Palette(255)))

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving residual heat map: %w", err)
	}
	return nil
}

// PCAScatter renders 2-component PCA scores, one legend entry per
// observation label.
func PCAScatter(scores *mat.Dense, labels []string, explainedPct []float64, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("CLR PCA of Target Composition (PC1: %.1f%%, PC2: %.1f%%)",
		explainedPct[0], explainedPct[1])
	p.X.Label.Text = "PC1"
	p.Y.Label.Text = "PC2"

	for i, label := range labels {
		s, err := plotter.NewScatter(plotter.XYs{{X: scores.At(i, 0), Y: scores.At(i, 1)}})
		if err != nil {
			return fmt.Errorf("PCA scatter: %w", err)
		}
		s.GlyphStyle.Radius = vg.Points(4)
		s.GlyphStyle.Color = plotutil.Color(i)
		p.Add(s)
		p.Legend.Add(label, s)
	}
	p.Legend.Top = true

	if err := p.Save(7*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving PCA plot: %w", err)
	}
	return nil
}

// StackedProportions renders the proportion table as stacked bars,
// one bar per column label, one stack segment per row label.
func StackedProportions(values *mat.Dense, rowLabels, colLabels []string, path string) error {
	p := plot.New()
	p.Title.Text = "Distribution of Target Types Across Ages"
	p.Y.Label.Text = "Proportion (%)"
	p.NominalX(colLabels...)

	var prev *plotter.BarChart
	for i, label := range rowLabels {
		vals := make(plotter.Values, len(colLabels))
		for j := range colLabels {
			vals[j] = values.At(i, j)
		}
		bars, err := plotter.NewBarChart(vals, vg.Points(30))
		if err != nil {
			return fmt.Errorf("stacked bars: %w", err)
		}
		bars.Color = plotutil.Color(i)
		if prev != nil {
			bars.StackOn(prev)
		}
		p.Add(bars)
		p.Legend.Add(label, bars)
		prev = bars
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving proportion plot: %w", err)
	}
	return nil
}

// ProportionLines renders each row of the proportion table as a line
// with point markers across the column labels.
func ProportionLines(values *mat.Dense, rowLabels, colLabels []string, path string) error {
	p := plot.New()
	p.Title.Text = "Proportion of Each Target Type Across Development"
	p.X.Label.Text = "Age"
	p.Y.Label.Text = "Proportion (%)"
	p.NominalX(colLabels...)
	p.Add(plotter.NewGrid())

	for i, label := range rowLabels {
		pts := make(plotter.XYs, len(colLabels))
		for j := range colLabels {
			pts[j].X = float64(j)
			pts[j].Y = values.At(i, j)
		}
		if err := plotutil.AddLinePoints(p, label, pts); err != nil {
			return fmt.Errorf("line plot: %w", err)
		}
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving proportion line plot: %w", err)
	}
	return nil
}
