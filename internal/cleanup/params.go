// Package cleanup removes background fringes and halos from cutouts.
//
// A cutout is an image whose alpha channel was produced by a matting tool.
// Its edge pixels usually still carry some of the old background color.
// [Pipeline] runs a fixed chain of alpha and color steps that hide that
// contamination:
//
//  1. unmatte against the known background color (optional)
//  2. alpha: threshold, smooth, edge shift, feather
//  3. contrast on RGB
//  4. fringe decontamination
//
// Parameters come from [Params], usually through a named preset.
package cleanup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aistudio/studio/internal/filter"
)

// Limits for Params.Validate.
const (
	MaxContrast  = 4.0
	MaxFringe    = 64
	MaxEdgeShift = 64
)

var (
	// ErrInvalidParams is wrapped by every Validate failure.
	ErrInvalidParams = errors.New("cleanup: invalid parameters")

	// ErrInvalidColor is returned by ParseColor.
	ErrInvalidColor = errors.New("cleanup: invalid color")
)

// Params controls one cleanup run.
type Params struct {
	// Matte is the background the cutout was composited over.
	Matte filter.RGB
	// Unmatte enables color recovery against Matte.
	Unmatte bool

	// SmoothRadius is the Gaussian sigma applied to the alpha mask.
	SmoothRadius float64
	// FeatherRadius softens the edge inward over about this many pixels.
	FeatherRadius float64
	// Contrast scales RGB around mid-gray; 1 is unchanged.
	Contrast float64
	// EdgeShift grows (> 0) or shrinks (< 0) the mask by whole pixels.
	EdgeShift int

	// FringeBand is the width of the decontaminated edge band in pixels.
	FringeBand int
	// FringeStrength blends fringe colors towards the interior, in [0, 1].
	FringeStrength float64

	// AlphaThreshold drops alpha values below it, in [0, 1).
	AlphaThreshold float64
}

// DefaultParams returns the "soft" preset.
func DefaultParams() Params {
	return builtinPresets["soft"]
}

// Validate reports the first out-of-range field.
func (p Params) Validate() error {
	switch {
	case p.SmoothRadius < 0:
		return fmt.Errorf("%w: smooth radius %g < 0", ErrInvalidParams, p.SmoothRadius)
	case p.FeatherRadius < 0:
		return fmt.Errorf("%w: feather radius %g < 0", ErrInvalidParams, p.FeatherRadius)
	case p.Contrast <= 0 || p.Contrast > MaxContrast:
		return fmt.Errorf("%w: contrast %g outside (0, %g]", ErrInvalidParams, p.Contrast, MaxContrast)
	case p.EdgeShift < -MaxEdgeShift || p.EdgeShift > MaxEdgeShift:
		return fmt.Errorf("%w: edge shift %d outside [-%d, %d]", ErrInvalidParams, p.EdgeShift, MaxEdgeShift, MaxEdgeShift)
	case p.FringeBand < 0 || p.FringeBand > MaxFringe:
		return fmt.Errorf("%w: fringe band %d outside [0, %d]", ErrInvalidParams, p.FringeBand, MaxFringe)
	case p.FringeStrength < 0 || p.FringeStrength > 1:
		return fmt.Errorf("%w: fringe strength %g outside [0, 1]", ErrInvalidParams, p.FringeStrength)
	case p.AlphaThreshold < 0 || p.AlphaThreshold >= 1:
		return fmt.Errorf("%w: alpha threshold %g outside [0, 1)", ErrInvalidParams, p.AlphaThreshold)
	}
	return nil
}

// IsIdentity reports whether Process would return the input unchanged.
func (p Params) IsIdentity() bool {
	return !p.Unmatte && p.SmoothRadius == 0 && p.FeatherRadius == 0 &&
		p.Contrast == 1 && p.EdgeShift == 0 &&
		(p.FringeBand == 0 || p.FringeStrength == 0) && p.AlphaThreshold == 0
}

var namedColors = map[string]filter.RGB{
	"white":   {R: 255, G: 255, B: 255},
	"black":   {},
	"green":   {G: 255},
	"blue":    {B: 255},
	"magenta": {R: 255, B: 255},
}

// ParseColor accepts #rgb, #rrggbb (the # is optional) or one of white,
// black, green, blue, magenta.
func ParseColor(s string) (filter.RGB, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return filter.RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return filter.RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return filter.RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// FormatColor renders c as #rrggbb.
func FormatColor(c filter.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
