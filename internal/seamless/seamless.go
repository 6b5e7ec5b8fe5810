// Package seamless estimates whether a texture tiles without visible seams.
//
// Two heuristics are combined. The edge difference compares opposite
// borders directly. The seam contrast shifts the image by half its size so
// the borders meet in the middle, then compares the gradient across that
// new seam with the average gradient of the whole image: a seamless
// texture has no stronger edge there than anywhere else.
package seamless

import (
	"errors"

	"github.com/aistudio/studio/internal/image"
)

// ErrTooSmall is returned for images narrower or shorter than 2 pixels.
var ErrTooSmall = errors.New("seamless: image must be at least 2x2")

// minEnergy keeps SeamContrast finite on flat images (0-255 scale).
const minEnergy = 0.5

// Options tunes the verdict.
type Options struct {
	// Band is how many border rows/columns are compared.
	Band int
	// Threshold is the minimum Score for a seamless verdict.
	Threshold float64
	// MaxContrast is the maximum SeamContrast for a seamless verdict.
	MaxContrast float64
}

// DefaultOptions returns Band 1, Threshold 0.95, MaxContrast 2.
func DefaultOptions() Options {
	return Options{Band: 1, Threshold: 0.95, MaxContrast: 2}
}

// Report is the outcome of Check.
type Report struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// HorizontalDiff is the mean absolute difference between the left and
	// right borders, in [0, 1].
	HorizontalDiff float64 `json:"horizontal_diff"`
	// VerticalDiff is the same for the top and bottom borders.
	VerticalDiff float64 `json:"vertical_diff"`
	// SeamContrast is the gradient across the wrapped seam relative to
	// the mean gradient.
	SeamContrast float64 `json:"seam_contrast"`

	// Score is 1 - max(HorizontalDiff, VerticalDiff).
	Score    float64 `json:"score"`
	Seamless bool    `json:"seamless"`
}

// Check measures buf. Zero option fields take their defaults.
func Check(buf *image.ImageBuf, opts Options) (Report, error) {
	if buf == nil || buf.Width() < 2 || buf.Height() < 2 {
		return Report{}, ErrTooSmall
	}
	def := DefaultOptions()
	if opts.Band <= 0 {
		opts.Band = def.Band
	}
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.MaxContrast <= 0 {
		opts.MaxContrast = def.MaxContrast
	}

	img := buf.ToRGBA8()
	w, h := img.Bounds()
	rep := Report{Width: w, Height: h}

	rep.HorizontalDiff = edgeDiff(img, min(opts.Band, w/2), true)
	rep.VerticalDiff = edgeDiff(img, min(opts.Band, h/2), false)
	rep.Score = 1 - max(rep.HorizontalDiff, rep.VerticalDiff)

	rep.SeamContrast = seamContrast(image.Wrap(img, w/2, h/2))
	rep.Seamless = rep.Score >= opts.Threshold && rep.SeamContrast <= opts.MaxContrast
	return rep, nil
}

// OffsetPreview returns buf shifted by half its size, so the tile borders
// cross in the centre.
func OffsetPreview(buf *image.ImageBuf) (*image.ImageBuf, error) {
	if buf == nil || buf.Width() < 2 || buf.Height() < 2 {
		return nil, ErrTooSmall
	}
	return image.Wrap(buf, buf.Width()/2, buf.Height()/2), nil
}

// edgeDiff compares line i with its mirror line n-1-i for i < band.
// Columns when vertical is true, rows otherwise.
func edgeDiff(img *image.ImageBuf, band int, columns bool) float64 {
	w, h := img.Bounds()
	var sum, count float64
	for i := range band {
		if columns {
			for y := range h {
				sum += pixelDiff(img, i, y, w-1-i, y)
				count++
			}
		} else {
			for x := range w {
				sum += pixelDiff(img, x, i, x, h-1-i)
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / count / 255
}

// seamContrast takes a half-wrapped image: the old borders now meet
// between columns w/2-1 and w/2 and between rows h/2-1 and h/2.
func seamContrast(img *image.ImageBuf) float64 {
	w, h := img.Bounds()
	sx, sy := w/2, h/2

	var seamSum, seamN, allSum, allN float64
	for y := range h {
		for x := range w {
			if x+1 < w {
				d := pixelDiff(img, x, y, x+1, y)
				allSum += d
				allN++
				if x+1 == sx {
					seamSum += d
					seamN++
				}
			}
			if y+1 < h {
				d := pixelDiff(img, x, y, x, y+1)
				allSum += d
				allN++
				if y+1 == sy {
					seamSum += d
					seamN++
				}
			}
		}
	}
	if seamN == 0 || allN == 0 {
		return 0
	}
	return (seamSum / seamN) / max(allSum/allN, minEnergy)
}

// pixelDiff is the mean absolute RGBA difference of two pixels (0-255).
func pixelDiff(img *image.ImageBuf, x0, y0, x1, y1 int) float64 {
	r0, g0, b0, a0 := img.GetRGBA(x0, y0)
	r1, g1, b1, a1 := img.GetRGBA(x1, y1)
	return float64(absDiff(r0, r1)+absDiff(g0, g1)+absDiff(b0, b1)+absDiff(a0, a1)) / 4
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
