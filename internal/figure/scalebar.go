// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figure

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ScaleBar writes a horizontal viridis colorbar spanning 0 to 1,
// sized to sit under a normalized heat map.
func ScaleBar(path string) error {
	p := plot.New()
	p.Add(&plotter.ColorBar{ColorMap: NewViridis(0, 1)})
	p.HideY()
	p.X.Label.Text = "Scale (0 to 1)"

	if err := p.Save(6*vg.Inch, 1*vg.Inch, path); err != nil {
		return fmt.Errorf("saving scale bar: %w", err)
	}
	return nil
}
