package scale

import (
	"fmt"
	"math"

	"github.com/geostk/teamlucc/internal/monitoring"
	"github.com/geostk/teamlucc/internal/raster"
)

// Factor is the scale factor chosen for one layer: Value ==
// PowerOf^Exponent, the largest such power whose product with the layer's
// maximum absolute value stays within the configured bound.
type Factor struct {
	LayerName string
	Value     float64
	Exponent  int
	// Degenerate marks a layer with no usable magnitude whose factor was
	// pinned to 1 rather than computed.
	Degenerate bool
}

// ComputeFactor determines the scale factor for a single layer without
// touching its cells. If the layer has no cached statistics a full scan is
// performed (and cached on the layer), with a diagnostic warning since this
// is the one expensive step.
func ComputeFactor(l *raster.Layer, opts Options) (Factor, error) {
	if err := opts.validate(); err != nil {
		return Factor{}, err
	}
	if l == nil {
		return Factor{}, fmt.Errorf("%w: nil layer", ErrInvalidParameter)
	}

	stats, ok := l.Stats()
	if !ok {
		monitoring.Warnf("layer %q has no cached statistics; scanning %d cells", l.Name, len(l.Cells))
		stats = l.ComputeStats()
	}

	layerMax := stats.MaxAbs()
	if layerMax == 0 || math.IsNaN(layerMax) || math.IsInf(layerMax, 0) {
		if opts.StrictDegenerate {
			return Factor{}, fmt.Errorf("layer %q has max abs value %v: %w", l.Name, layerMax, ErrDegenerateLayer)
		}
		monitoring.Warnf("layer %q has max abs value %v; pinning scale factor to 1", l.Name, layerMax)
		return Factor{LayerName: l.Name, Value: 1, Exponent: 0, Degenerate: true}, nil
	}

	base := float64(opts.PowerOf)
	// Seed from the log difference rather than log(MaxOut/layerMax): the
	// ratio itself can overflow float64 when layerMax is subnormal, and an
	// overflowed seed would leave the correction loops below unbounded.
	exp := int(math.Floor((math.Log(opts.MaxOut) - math.Log(layerMax)) / math.Log(base)))
	// The float log can land one power off near exact boundaries; nudge the
	// exponent until layerMax * base^exp <= MaxOut < layerMax * base^(exp+1)
	// holds exactly.
	for layerMax*math.Pow(base, float64(exp)) > opts.MaxOut {
		exp--
	}
	for layerMax*math.Pow(base, float64(exp+1)) <= opts.MaxOut {
		exp++
	}

	return Factor{
		LayerName: l.Name,
		Value:     math.Pow(base, float64(exp)),
		Exponent:  exp,
	}, nil
}

// applyFactor multiplies every finite cell by the factor, rounding half away
// from zero when requested. Missing cells pass through untouched.
func applyFactor(l *raster.Layer, f Factor, round bool) *raster.Layer {
	if round {
		return l.Transform(func(v float64) float64 { return math.Round(v * f.Value) })
	}
	return l.Transform(func(v float64) float64 { return v * f.Value })
}

// scaleOne is the per-layer unit of work shared by both execution modes. It
// is a pure function of the layer and the options: no state is shared across
// layers, so any scheduling strategy may invoke it safely.
func scaleOne(l *raster.Layer, opts Options) (*raster.Layer, Factor, error) {
	f, err := ComputeFactor(l, opts)
	if err != nil || !opts.DoScaling {
		return nil, f, err
	}
	return applyFactor(l, f, opts.Round), f, nil
}
