// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats runs the compositional proportion analysis: a
// chi-square test of independence over target-type counts by age,
// standardized residuals, a centered log-ratio transform, and a PCA
// of the transformed composition.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// clrZeroReplacement substitutes structural zeros before taking logs.
const clrZeroReplacement = 1e-9

// Dataset is a target-type × age table of percentages. Rows are
// target types, columns are ages.
type Dataset struct {
	Types  []string
	Ages   []string
	Values *mat.Dense
}

// DefaultDataset returns the built-in developmental proportions table.
func DefaultDataset() *Dataset {
	return &Dataset{
		Types: []string{"1 target", "2 targets", "3 targets", "4 targets", "5 targets"},
		Ages:  []string{"p3", "p12", "p20", "p60"},
		Values: mat.NewDense(5, 4, []float64{
			80.81343943, 68.49112426, 79.54939341, 72.42087957,
			14.41202476, 25.29585799, 17.33102253, 21.08508015,
			3.536693192, 5.029585799, 3.119584055, 5.42540074,
			1.149425287, 1.035502959, 0, 1.06863954,
			0.0884173298, 0.1479289941, 0, 0,
		}),
	}
}

// LoadCSV reads a dataset in the shape DefaultDataset uses: a header
// row `type,<age labels...>` and one row per target type.
func LoadCSV(r io.Reader) (*Dataset, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading dataset CSV: %w", err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("dataset CSV needs a header row and at least one data row")
	}

	ages := rows[0][1:]
	types := make([]string, 0, len(rows)-1)
	values := mat.NewDense(len(rows)-1, len(ages), nil)
	for i, row := range rows[1:] {
		if len(row) != len(ages)+1 {
			return nil, fmt.Errorf("dataset row %d has %d cells, want %d", i+2, len(row), len(ages)+1)
		}
		types = append(types, row[0])
		for j, cell := range row[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset row %d: non-numeric cell %q: %w", i+2, cell, err)
			}
			values.Set(i, j, v)
		}
	}
	return &Dataset{Types: types, Ages: ages, Values: values}, nil
}

// Counts converts the percentage table into rounded pseudo-counts out
// of total samples per column.
func (d *Dataset) Counts(total int) *mat.Dense {
	rows, cols := d.Values.Dims()
	counts := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			counts.Set(i, j, math.Round(d.Values.At(i, j)/100*float64(total)))
		}
	}
	return counts
}

// ChiSquareResult holds a chi-square test of independence.
type ChiSquareResult struct {
	Statistic float64
	PValue    float64
	DOF       int
	Expected  *mat.Dense
}

// ChiSquare runs Pearson's chi-square test of independence on a
// contingency table of counts.
func ChiSquare(counts *mat.Dense) (ChiSquareResult, error) {
	rows, cols := counts.Dims()
	if rows < 2 || cols < 2 {
		return ChiSquareResult{}, fmt.Errorf("contingency table must be at least 2x2, got %dx%d", rows, cols)
	}

	rowSums := make([]float64, rows)
	colSums := make([]float64, cols)
	var total float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := counts.At(i, j)
			if v < 0 {
				return ChiSquareResult{}, fmt.Errorf("negative count at (%d, %d)", i, j)
			}
			rowSums[i] += v
			colSums[j] += v
			total += v
		}
	}
	if total == 0 {
		return ChiSquareResult{}, fmt.Errorf("contingency table is all zero")
	}

	expected := mat.NewDense(rows, cols, nil)
	var statistic float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			e := rowSums[i] * colSums[j] / total
			expected.Set(i, j, e)
			if e == 0 {
				return ChiSquareResult{}, fmt.Errorf("expected count of zero at (%d, %d): empty row or column", i, j)
			}
			o := counts.At(i, j)
			statistic += (o - e) * (o - e) / e
		}
	}

	dof := (rows - 1) * (cols - 1)
	dist := distuv.ChiSquared{K: float64(dof)}
	return ChiSquareResult{
		Statistic: statistic,
		PValue:    dist.Survival(statistic),
		DOF:       dof,
		Expected:  expected,
	}, nil
}

// StandardizedResiduals returns (observed − expected) / √expected.
func StandardizedResiduals(counts, expected *mat.Dense) *mat.Dense {
	rows, cols := counts.Dims()
	resid := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			e := expected.At(i, j)
			resid.Set(i, j, (counts.At(i, j)-e)/math.Sqrt(e))
		}
	}
	return resid
}

// CLR applies the centered log-ratio transform to each age column and
// returns the result transposed: one row per age, one column per
// target type. Zeros are replaced before taking logs.
func CLR(d *Dataset) *mat.Dense {
	rows, cols := d.Values.Dims()
	out := mat.NewDense(cols, rows, nil)
	for j := 0; j < cols; j++ {
		logs := make([]float64, rows)
		for i := 0; i < rows; i++ {
			v := d.Values.At(i, j)
			if v == 0 {
				v = clrZeroReplacement
			}
			logs[i] = math.Log(v)
		}
		logGeoMean := stat.Mean(logs, nil)
		for i := 0; i < rows; i++ {
			out.Set(j, i, logs[i]-logGeoMean)
		}
	}
	return out
}

// PCAResult holds a principal component analysis of CLR rows.
type PCAResult struct {
	// Scores projects each observation onto the first two components.
	Scores *mat.Dense
	// Loadings holds each original variable's weight on the first two
	// components, one row per variable.
	Loadings *mat.Dense
	// ExplainedPct is the percentage of variance each retained
	// component explains.
	ExplainedPct []float64
}

// PCA computes a 2-component principal component analysis of m, rows
// as observations. Columns are mean-centered before projection.
func PCA(m *mat.Dense) (PCAResult, error) {
	rows, cols := m.Dims()
	if rows < 2 || cols < 2 {
		return PCAResult{}, fmt.Errorf("PCA needs at least 2 observations and 2 variables, got %dx%d", rows, cols)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return PCAResult{}, fmt.Errorf("principal component decomposition failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	// Center columns, then project onto the first two components.
	centered := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, m)
		mean := stat.Mean(col, nil)
		for i := 0; i < rows; i++ {
			centered.Set(i, j, m.At(i, j)-mean)
		}
	}

	var scores mat.Dense
	scores.Mul(centered, vecs.Slice(0, cols, 0, 2))

	loadings := mat.DenseCopyOf(vecs.Slice(0, cols, 0, 2))

	totalVar := floats.Sum(vars)
	explained := []float64{
		vars[0] / totalVar * 100,
		vars[1] / totalVar * 100,
	}

	return PCAResult{Scores: &scores, Loadings: loadings, ExplainedPct: explained}, nil
}
