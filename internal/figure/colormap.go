// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package figure renders the pipeline's charts: bar plots of regional
// projection values, proportion statistics figures, and the viridis
// scale bar. All output is PNG or SVG, selected by file extension.
package figure

import (
	"fmt"
	"image/color"
	"math"

	"github.com/mazznoer/colorgrad"
	"gonum.org/v1/plot/palette"
)

// viridisMap adapts the colorgrad viridis gradient to gonum's
// palette.ColorMap interface.
type viridisMap struct {
	min, max float64
	alpha    float64
	grad     colorgrad.Gradient
}

// NewViridis returns the viridis colormap over [min, max].
func NewViridis(min, max float64) palette.ColorMap {
	return &viridisMap{min: min, max: max, alpha: 1, grad: colorgrad.Viridis()}
}

func (m *viridisMap) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < m.min:
		return nil, palette.ErrUnderflow
	case v > m.max:
		return nil, palette.ErrOverflow
	}
	t := 0.0
	if m.max > m.min {
		t = (v - m.min) / (m.max - m.min)
	}
	c := m.grad.At(t)
	c.A = m.alpha
	return c, nil
}

func (m *viridisMap) Min() float64       { return m.min }
func (m *viridisMap) Max() float64       { return m.max }
func (m *viridisMap) SetMin(min float64) { m.min = min }
func (m *viridisMap) SetMax(max float64) { m.max = max }

// Alpha returns the opacity value of the colormap.
func (m *viridisMap) Alpha() float64 { return m.alpha }

// SetAlpha sets the opacity value of the colormap. Zero is transparent
// and one is completely opaque; it panics if alpha is outside [0, 1].
func (m *viridisMap) SetAlpha(alpha float64) {
	if alpha < 0 || alpha > 1 {
		panic(fmt.Errorf("figure: invalid alpha: %g", alpha))
	}
	m.alpha = alpha
}

// Palette samples the gradient into n evenly spaced colors.
func (m *viridisMap) Palette(n int) palette.Palette {
	colors := make(colorSlice, n)
	for i := range colors {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		colors[i] = m.grad.At(t)
	}
	return colors
}

type colorSlice []color.Color

func (c colorSlice) Colors() []color.Color { return c }
