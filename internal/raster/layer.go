package raster

import (
	"fmt"
	"math"
)

// Geometry anchors a grid in its coordinate reference: the lower-left corner
// of the lower-left cell and the (square) cell size. A zero Geometry is valid
// for rasters that only exist in memory.
type Geometry struct {
	XLLCorner float64
	YLLCorner float64
	CellSize  float64
}

// Layer is a single named band of raster data. Cells are stored row-major,
// row 0 at the top of the grid. Missing cells hold NaN.
//
// The stats cache is owned by the layer: it is populated by ComputeStats or
// SetStats and dropped whenever cell values change through Set. Code that
// mutates Cells directly must call InvalidateStats itself.
type Layer struct {
	Name     string
	Rows     int
	Cols     int
	Geometry Geometry
	Cells    []float64

	stats   Stats
	hasStat bool
}

// NewLayer allocates a rows x cols layer with all cells missing (NaN).
func NewLayer(name string, rows, cols int) (*Layer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("layer %q: invalid dimensions %dx%d", name, rows, cols)
	}
	cells := make([]float64, rows*cols)
	for i := range cells {
		cells[i] = math.NaN()
	}
	return &Layer{Name: name, Rows: rows, Cols: cols, Cells: cells}, nil
}

// At returns the cell value at row r, column c.
func (l *Layer) At(r, c int) float64 {
	return l.Cells[r*l.Cols+c]
}

// Set stores v at row r, column c and drops the stats cache.
func (l *Layer) Set(r, c int, v float64) {
	l.Cells[r*l.Cols+c] = v
	l.hasStat = false
}

// Fill sets every cell to v and drops the stats cache.
func (l *Layer) Fill(v float64) {
	for i := range l.Cells {
		l.Cells[i] = v
	}
	l.hasStat = false
}

// Clone returns a deep copy of the layer, including any cached statistics.
func (l *Layer) Clone() *Layer {
	out := &Layer{
		Name:     l.Name,
		Rows:     l.Rows,
		Cols:     l.Cols,
		Geometry: l.Geometry,
		Cells:    make([]float64, len(l.Cells)),
		stats:    l.stats,
		hasStat:  l.hasStat,
	}
	copy(out.Cells, l.Cells)
	return out
}

// Transform returns a new layer with fn applied to every finite cell. NaN
// cells stay NaN. Name and geometry are preserved; the result carries no
// cached statistics. The receiver is never mutated.
func (l *Layer) Transform(fn func(float64) float64) *Layer {
	out := &Layer{
		Name:     l.Name,
		Rows:     l.Rows,
		Cols:     l.Cols,
		Geometry: l.Geometry,
		Cells:    make([]float64, len(l.Cells)),
	}
	for i, v := range l.Cells {
		if math.IsNaN(v) {
			out.Cells[i] = v
			continue
		}
		out.Cells[i] = fn(v)
	}
	return out
}
