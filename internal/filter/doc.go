// Package filter provides the pixel transforms used by the cleanup pipeline.
//
// Two kinds of operands are supported:
//   - RGBA8 image buffers (straight alpha) for color operations
//   - alpha masks: row-major []float32 planes in [0, 1], one entry per pixel
//
// Every filter is deterministic and reproduces its input exactly for
// identity parameters (zero radius, unit factor, zero strength). No filter
// changes image dimensions.
package filter
