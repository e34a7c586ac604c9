package raster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises a layer's finite cell values. When a layer has no finite
// cells at all, the value fields are NaN and Missing == Cells.
type Stats struct {
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
	Cells   int // total cell count, missing included
	Missing int // NaN cell count
}

// MaxAbs returns max(|Min|, |Max|), the quantity that bounds a scaled
// layer's magnitude. NaN when the layer had no finite cells.
func (s Stats) MaxAbs() float64 {
	return math.Max(math.Abs(s.Min), math.Abs(s.Max))
}

// Stats returns the cached statistics and whether a cache is present.
func (l *Layer) Stats() (Stats, bool) {
	return l.stats, l.hasStat
}

// SetStats installs externally computed statistics (for example from a
// statistics cache) without scanning the layer.
func (l *Layer) SetStats(s Stats) {
	l.stats = s
	l.hasStat = true
}

// InvalidateStats drops the cached statistics.
func (l *Layer) InvalidateStats() {
	l.hasStat = false
}

// ComputeStats scans every cell once, caches the result on the layer and
// returns it. This is the only O(cells) operation in the package; callers
// that already know the statistics should use SetStats instead.
func (l *Layer) ComputeStats() Stats {
	finite := make([]float64, 0, len(l.Cells))
	for _, v := range l.Cells {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}

	s := Stats{
		Cells:   len(l.Cells),
		Missing: len(l.Cells) - len(finite),
	}
	if len(finite) == 0 {
		s.Min = math.NaN()
		s.Max = math.NaN()
		s.Mean = math.NaN()
		s.StdDev = math.NaN()
	} else {
		s.Min = floats.Min(finite)
		s.Max = floats.Max(finite)
		s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	}

	l.stats = s
	l.hasStat = true
	return s
}
