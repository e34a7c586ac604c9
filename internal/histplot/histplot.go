// Package histplot renders value-distribution histograms of raster layers.
// It is a diagnostic aid for scaling runs: plotting a layer before and after
// scaling makes a mischosen bound or an unexpected value range obvious.
package histplot

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/geostk/teamlucc/internal/raster"
)

// PlotLayer writes a PNG histogram of the layer's finite cell values to
// path. Missing cells are excluded from the distribution. bins must be
// positive; a layer with no finite cells cannot be plotted.
func PlotLayer(l *raster.Layer, bins int, path string) error {
	if bins <= 0 {
		return fmt.Errorf("histplot: bins must be positive, got %d", bins)
	}

	finite := make(plotter.Values, 0, len(l.Cells))
	for _, v := range l.Cells {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return fmt.Errorf("histplot: layer %q has no finite cells", l.Name)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s cell values (n=%d)", l.Name, len(finite))
	p.X.Label.Text = "cell value"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(finite, bins)
	if err != nil {
		return fmt.Errorf("histplot: layer %q: %w", l.Name, err)
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("histplot: save %s: %w", path, err)
	}
	return nil
}
