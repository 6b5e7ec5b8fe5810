package image

import (
	"image"

	"golang.org/x/image/draw"
)

// Interpolation selects the resampling kernel used by Resize.
type Interpolation uint8

const (
	// InterpNearest selects the closest pixel. Keeps pixel art crisp.
	InterpNearest Interpolation = iota

	// InterpBilinear is a fast bilinear approximation.
	InterpBilinear

	// InterpCatmullRom is the highest quality (and slowest) kernel.
	InterpCatmullRom
)

// String returns a string representation of the interpolation mode.
func (m Interpolation) String() string {
	switch m {
	case InterpNearest:
		return "nearest"
	case InterpBilinear:
		return "bilinear"
	case InterpCatmullRom:
		return "catmullrom"
	default:
		return "unknown"
	}
}

// ParseInterpolation maps a name ("nearest", "bilinear", "catmullrom") to a mode.
func ParseInterpolation(name string) (Interpolation, bool) {
	switch name {
	case "nearest", "":
		return InterpNearest, true
	case "bilinear":
		return InterpBilinear, true
	case "catmullrom", "bicubic":
		return InterpCatmullRom, true
	default:
		return InterpNearest, false
	}
}

func (m Interpolation) scaler() draw.Scaler {
	switch m {
	case InterpBilinear:
		return draw.ApproxBiLinear
	case InterpCatmullRom:
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

// Resize returns a copy of b scaled to width x height.
// Scaling happens in premultiplied space so transparent pixels do not
// bleed their color into the edge; the result is straight RGBA8.
func Resize(b *ImageBuf, width, height int, mode Interpolation) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if width == b.width && height == b.height {
		return b.ToRGBA8().Clone(), nil
	}

	src := b.ToRGBA8().Premultiply().ToStdImage()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	mode.scaler().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out, err := FromRaw(dst.Pix, width, height, FormatRGBAPremul, dst.Stride)
	if err != nil {
		return nil, err
	}
	return out.Unpremultiply(), nil
}

// Scale resizes by a uniform factor, rounding to the nearest pixel (minimum 1).
func Scale(b *ImageBuf, factor float64, mode Interpolation) (*ImageBuf, error) {
	if factor <= 0 {
		return nil, ErrInvalidDimensions
	}
	w := max(1, int(float64(b.width)*factor+0.5))
	h := max(1, int(float64(b.height)*factor+0.5))
	return Resize(b, w, h, mode)
}

// Wrap returns a copy of b cyclically shifted by (dx, dy) pixels: the pixel
// at (x, y) moves to ((x+dx) mod w, (y+dy) mod h). Shifting by half the
// size brings the tile edges into the centre.
func Wrap(b *ImageBuf, dx, dy int) *ImageBuf {
	out := MustNew(b.width, b.height, b.format)
	bpp := b.format.BytesPerPixel()
	dx = ((dx % b.width) + b.width) % b.width
	dy = ((dy % b.height) + b.height) % b.height

	for y := range b.height {
		src := b.RowBytes(y)
		dst := out.RowBytes((y + dy) % b.height)
		split := (b.width - dx) * bpp
		// src[0:split] lands at dx, src[split:] wraps to the start.
		copy(dst[dx*bpp:], src[:split])
		copy(dst, src[split:])
	}
	return out
}
