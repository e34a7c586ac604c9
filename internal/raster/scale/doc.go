// Package scale computes integer power-of-base scale factors that bring a
// raster layer's values within an integer-safe magnitude bound.
//
// For a layer whose largest absolute value is layerMax, the chosen factor f
// is the largest integer power of Options.PowerOf with layerMax * f <=
// Options.MaxOut. Scaling multiplies every finite cell by f and, by default,
// rounds the product so the output can be stored in a reduced-precision
// integer format. Missing cells are never scaled or rounded.
//
// Scale is the single entry point; it accepts either a single layer or a
// multi-layer raster (see SingleLayer and MultiLayer) and shapes its Result
// accordingly. Multi-layer work is embarrassingly parallel and may be fanned
// out across workers; sequential and parallel execution produce identical
// results in the input's layer order.
package scale
