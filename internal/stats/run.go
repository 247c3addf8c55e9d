// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/matsojr22/projection-tools/internal/figure"
	"github.com/matsojr22/projection-tools/pkg/types"
)

const defaultSampleSize = 1000

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// labeledRows renders a matrix as CSV rows with a label column and a
// header of column names.
func labeledRows(labelHeader string, rowLabels, colLabels []string, m *mat.Dense) [][]string {
	rows := [][]string{append([]string{labelHeader}, colLabels...)}
	for i, label := range rowLabels {
		row := make([]string, 0, len(colLabels)+1)
		row = append(row, label)
		for j := range colLabels {
			row = append(row, formatFloat(m.At(i, j)))
		}
		rows = append(rows, row)
	}
	return rows
}

// Run executes the full proportions analysis and writes every CSV and
// figure into cfg.OutputDir. Progress goes to w; the returned list is
// the manifest of written files.
func Run(cfg types.StatsConfig, w io.Writer) ([]string, error) {
	dataset := DefaultDataset()
	if cfg.InputFile != "" {
		f, err := os.Open(cfg.InputFile)
		if err != nil {
			return nil, fmt.Errorf("opening dataset: %w", err)
		}
		dataset, err = LoadCSV(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	out := func(name string) string { return filepath.Join(outputDir, name) }

	sampleSize := cfg.SampleSize
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}

	var manifest []string
	record := func(path string) { manifest = append(manifest, path) }

	// Chi-square test of independence over pseudo-counts.
	counts := dataset.Counts(sampleSize)
	chi, err := ChiSquare(counts)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "chi-square: statistic=%.4f p=%.4g dof=%d\n", chi.Statistic, chi.PValue, chi.DOF)

	summaryPath := out("chi_square_summary.csv")
	if err := writeCSV(summaryPath, [][]string{
		{"Chi2_statistic", "p_value", "degrees_of_freedom"},
		{formatFloat(chi.Statistic), formatFloat(chi.PValue), strconv.Itoa(chi.DOF)},
	}); err != nil {
		return nil, err
	}
	record(summaryPath)

	proportionsPath := out("compositional_proportions.csv")
	if err := writeCSV(proportionsPath, labeledRows("type", dataset.Types, dataset.Ages, dataset.Values)); err != nil {
		return nil, err
	}
	record(proportionsPath)

	// Standardized residuals, as CSV and heat map.
	resid := StandardizedResiduals(counts, chi.Expected)
	residPath := out("chi_square_standardized_residuals.csv")
	if err := writeCSV(residPath, labeledRows("type", dataset.Types, dataset.Ages, resid)); err != nil {
		return nil, err
	}
	record(residPath)

	heatPath := out("chi_square_residuals_heatmap.png")
	if err := figure.ResidualHeatMap(resid, dataset.Types, dataset.Ages, heatPath); err != nil {
		return nil, err
	}
	record(heatPath)

	// Proportion overview figures.
	proportionPlot := out("proportion_plot.png")
	if err := figure.StackedProportions(dataset.Values, dataset.Types, dataset.Ages, proportionPlot); err != nil {
		return nil, err
	}
	record(proportionPlot)

	linePlot := out("proportion_line_plot.png")
	if err := figure.ProportionLines(dataset.Values, dataset.Types, dataset.Ages, linePlot); err != nil {
		return nil, err
	}
	record(linePlot)

	// CLR transform: one row per age, one column per target type.
	clr := CLR(dataset)
	clrRows := [][]string{append(append([]string{}, dataset.Types...), "age")}
	for i, age := range dataset.Ages {
		row := make([]string, 0, len(dataset.Types)+1)
		for j := range dataset.Types {
			row = append(row, formatFloat(clr.At(i, j)))
		}
		clrRows = append(clrRows, append(row, age))
	}
	clrPath := out("clr_transformed_data.csv")
	if err := writeCSV(clrPath, clrRows); err != nil {
		return nil, err
	}
	record(clrPath)

	// PCA of the CLR rows.
	pca, err := PCA(clr)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "PCA explained variance: PC1=%.1f%% PC2=%.1f%%\n",
		pca.ExplainedPct[0], pca.ExplainedPct[1])

	scoreRows := [][]string{{"PC1", "PC2", "age"}}
	for i, age := range dataset.Ages {
		scoreRows = append(scoreRows, []string{
			formatFloat(pca.Scores.At(i, 0)), formatFloat(pca.Scores.At(i, 1)), age,
		})
	}
	scoresPath := out("clr_pca_scores.csv")
	if err := writeCSV(scoresPath, scoreRows); err != nil {
		return nil, err
	}
	record(scoresPath)

	loadingRows := [][]string{{"type", "PC1_loading", "PC2_loading"}}
	for i, typ := range dataset.Types {
		loadingRows = append(loadingRows, []string{
			typ, formatFloat(pca.Loadings.At(i, 0)), formatFloat(pca.Loadings.At(i, 1)),
		})
	}
	loadingsPath := out("clr_pca_loadings.csv")
	if err := writeCSV(loadingsPath, loadingRows); err != nil {
		return nil, err
	}
	record(loadingsPath)

	pcaPlot := out("clr_pca_plot.png")
	if err := figure.PCAScatter(pca.Scores, dataset.Ages, pca.ExplainedPct, pcaPlot); err != nil {
		return nil, err
	}
	record(pcaPlot)

	fmt.Fprintln(w, "Files created:")
	for _, path := range manifest {
		fmt.Fprintln(w, path)
	}
	return manifest, nil
}
