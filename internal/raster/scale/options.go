package scale

import (
	"fmt"
	"math"
	"runtime"
)

// ExecutionMode selects how a multi-layer input is processed.
type ExecutionMode string

const (
	// ModeAuto picks parallel execution when the input has more than one
	// layer and more than one worker is configured, sequential otherwise.
	ModeAuto ExecutionMode = "auto"

	// ModeSequential processes layers one at a time, in layer order.
	ModeSequential ExecutionMode = "sequential"

	// ModeParallel fans layers out across Options.Workers goroutines. If no
	// usable worker count is configured it degrades to sequential execution
	// with a warning rather than failing.
	ModeParallel ExecutionMode = "parallel"
)

// String returns the string representation of the mode.
func (m ExecutionMode) String() string {
	return string(m)
}

// IsValid returns true if the mode is a known valid value.
func (m ExecutionMode) IsValid() bool {
	switch m {
	case ModeAuto, ModeSequential, ModeParallel:
		return true
	default:
		return false
	}
}

// Options configures a scaling run. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// PowerOf is the base of the scale factor. Must be > 1.
	PowerOf int
	// MaxOut bounds the absolute value of scaled cells. Must be positive
	// and finite. The default targets the int16 range.
	MaxOut float64
	// Round rounds scaled cells half away from zero (math.Round), the
	// convention the integer output writers use. Only relevant with
	// DoScaling.
	Round bool
	// DoScaling applies the factor to the cells. When false only the
	// factors are computed and the input is left untouched.
	DoScaling bool
	// Mode selects sequential or parallel layer processing.
	Mode ExecutionMode
	// Workers caps the parallel fan-out. Values <= 1 disable parallelism.
	Workers int
	// StrictDegenerate makes a degenerate layer (all-zero, all-missing, or
	// non-finite magnitude) an error instead of pinning its factor to 1.
	StrictDegenerate bool
}

// DefaultOptions returns the standard configuration: base-10 factors bounded
// by the int16 range, rounded output, scaling applied, automatic mode with
// one worker per CPU.
func DefaultOptions() Options {
	return Options{
		PowerOf:   10,
		MaxOut:    32767,
		Round:     true,
		DoScaling: true,
		Mode:      ModeAuto,
		Workers:   runtime.NumCPU(),
	}
}

func (o Options) validate() error {
	if o.PowerOf <= 1 {
		return fmt.Errorf("%w: power-of base %d must be greater than 1", ErrInvalidParameter, o.PowerOf)
	}
	if !(o.MaxOut > 0) || math.IsInf(o.MaxOut, 1) {
		return fmt.Errorf("%w: max-out bound %v must be positive", ErrInvalidParameter, o.MaxOut)
	}
	if !o.Mode.IsValid() {
		return fmt.Errorf("%w: unknown execution mode %q", ErrInvalidParameter, o.Mode)
	}
	return nil
}
