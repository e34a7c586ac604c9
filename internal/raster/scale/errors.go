package scale

import "errors"

// ErrInvalidParameter reports an unusable parameter set: PowerOf <= 1,
// MaxOut <= 0, an unknown execution mode, or an empty input. These abort the
// call; nothing is computed.
var ErrInvalidParameter = errors.New("scale: invalid parameter")

// ErrDegenerateLayer reports a layer whose largest absolute value is zero or
// non-finite, for which no meaningful scale factor exists. It is returned
// only when Options.StrictDegenerate is set; the default policy pins the
// factor to 1 and logs a warning instead.
var ErrDegenerateLayer = errors.New("scale: degenerate layer")
