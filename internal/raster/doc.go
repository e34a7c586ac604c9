// Package raster owns the in-memory raster data model.
//
// Responsibilities: the Layer grid type, per-layer statistics with lazy
// computation and caching, element-wise transforms, and the ordered
// multi-layer Raster container.
// Key types: Layer, Stats, Raster.
//
// Missing cells are represented as NaN throughout. Statistics, transforms
// and the scaling code in raster/scale all skip NaN cells; file codecs map
// NaN to their format's no-data value.
package raster
