package scale

import (
	"fmt"
	"sync"

	"github.com/geostk/teamlucc/internal/monitoring"
	"github.com/geostk/teamlucc/internal/raster"
)

// Input is a tagged variant over the two accepted shapes. Construct it with
// SingleLayer or MultiLayer; the zero Input is invalid.
type Input struct {
	layer *raster.Layer
	multi *raster.Raster
}

// SingleLayer wraps one layer for scaling.
func SingleLayer(l *raster.Layer) Input {
	return Input{layer: l}
}

// MultiLayer wraps a multi-layer raster for scaling.
func MultiLayer(r *raster.Raster) Input {
	return Input{multi: r}
}

// Result holds the outcome of a Scale call, shaped like its input: a single
// layer in gives a single layer (or single factor) out, a raster in gives a
// raster (or ordered factor sequence) out.
type Result struct {
	single  bool
	layer   *raster.Layer
	multi   *raster.Raster
	factors []Factor
}

// IsSingle reports whether the result came from a single-layer input.
func (r Result) IsSingle() bool { return r.single }

// Factor returns the single-layer scale factor. For multi-layer results it
// returns the first layer's factor.
func (r Result) Factor() Factor {
	if len(r.factors) == 0 {
		return Factor{}
	}
	return r.factors[0]
}

// Factors returns the per-layer factors in input layer order, named after
// their source layers.
func (r Result) Factors() []Factor { return r.factors }

// Layer returns the scaled single layer, or nil for factor-only and
// multi-layer results.
func (r Result) Layer() *raster.Layer { return r.layer }

// Raster returns the scaled multi-layer raster, or nil for factor-only and
// single-layer results.
func (r Result) Raster() *raster.Raster { return r.multi }

// Scale computes (and optionally applies) scale factors for the input. It is
// the only entry point; per-layer semantics are documented on ComputeFactor
// and Options.
func Scale(in Input, opts Options) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}

	switch {
	case in.layer != nil:
		out, f, err := scaleOne(in.layer, opts)
		if err != nil {
			return Result{}, err
		}
		return Result{single: true, layer: out, factors: []Factor{f}}, nil

	case in.multi != nil:
		if in.multi.Len() == 0 {
			return Result{}, fmt.Errorf("%w: raster has no layers", ErrInvalidParameter)
		}
		layers, factors, err := applyAll(in.multi, opts)
		if err != nil {
			return Result{}, err
		}
		res := Result{factors: factors}
		if opts.DoScaling {
			res.multi, err = raster.New(layers...)
			if err != nil {
				return Result{}, fmt.Errorf("reassembling scaled raster: %w", err)
			}
		}
		return res, nil

	default:
		return Result{}, fmt.Errorf("%w: empty input", ErrInvalidParameter)
	}
}

// applyAll runs scaleOne over every layer and collects the outputs in input
// layer order. Mode selection never changes the results, only the schedule.
func applyAll(r *raster.Raster, opts Options) ([]*raster.Layer, []Factor, error) {
	parallel := false
	switch opts.Mode {
	case ModeSequential:
	case ModeParallel:
		if opts.Workers > 1 {
			parallel = true
		} else {
			monitoring.Warnf("parallel execution requested but only %d worker(s) configured; running sequentially", opts.Workers)
		}
	case ModeAuto:
		parallel = r.Len() > 1 && opts.Workers > 1
	}

	if parallel {
		return applyParallel(r, opts)
	}
	return applySequential(r, opts)
}

func applySequential(r *raster.Raster, opts Options) ([]*raster.Layer, []Factor, error) {
	layers := make([]*raster.Layer, 0, r.Len())
	factors := make([]Factor, 0, r.Len())
	for i := 0; i < r.Len(); i++ {
		out, f, err := scaleOne(r.Layer(i), opts)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d (%q): %w", i, r.Layer(i).Name, err)
		}
		layers = append(layers, out)
		factors = append(factors, f)
	}
	return layers, factors, nil
}

// applyParallel fans the layers out across at most opts.Workers goroutines.
// Results land in index-addressed slices, so completion order cannot affect
// output order and the results are identical to sequential execution.
func applyParallel(r *raster.Raster, opts Options) ([]*raster.Layer, []Factor, error) {
	n := r.Len()
	layers := make([]*raster.Layer, n)
	factors := make([]Factor, n)
	errs := make([]error, n)

	sem := make(chan struct{}, opts.Workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			layers[i], factors[i], errs[i] = scaleOne(r.Layer(i), opts)
		}(i)
	}
	wg.Wait()

	// Report the first failure by layer order, matching what sequential
	// execution would have surfaced.
	for i, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d (%q): %w", i, r.Layer(i).Name, err)
		}
	}
	return layers, factors, nil
}
