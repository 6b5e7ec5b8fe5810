package cleanup

import (
	"errors"
	"math"

	"github.com/aistudio/studio"
	"github.com/aistudio/studio/internal/filter"
	"github.com/aistudio/studio/internal/image"
)

// ErrNilImage is returned when Process is given no image.
var ErrNilImage = errors.New("cleanup: nil image")

// Pipeline applies one parameter set to any number of images. It is safe
// for concurrent use; output buffers come from a shared pool and can be
// handed back with Release.
type Pipeline struct {
	params Params
	pool   *image.Pool
}

// NewPipeline validates p and builds a pipeline.
func NewPipeline(p Params) (*Pipeline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{params: p, pool: image.NewPool(8)}, nil
}

// Params returns the pipeline parameters.
func (p *Pipeline) Params() Params { return p.params }

// Process returns a cleaned RGBA8 copy of src. Images without alpha are
// treated as fully opaque; src is never modified.
func (p *Pipeline) Process(src *image.ImageBuf) (*image.ImageBuf, error) {
	if src == nil {
		return nil, ErrNilImage
	}
	w, h := src.Bounds()
	out := p.pool.Get(w, h, image.FormatRGBA8)
	if out == nil {
		return nil, image.ErrInvalidDimensions
	}
	rgba := src.ToRGBA8()
	for y := range h {
		copy(out.RowBytes(y), rgba.RowBytes(y))
	}

	prm := p.params
	if prm.Unmatte {
		filter.Unmatte(out, prm.Matte)
	}

	if grow := growth(prm); grow > 0 {
		filter.BleedColor(out, grow)
	}

	if alphaStepsEnabled(prm) {
		mask := out.AlphaMask()
		if prm.AlphaThreshold > 0 {
			mask = filter.ThresholdMask(mask, float32(prm.AlphaThreshold))
		}
		if prm.SmoothRadius > 0 {
			mask = filter.BlurMask(mask, w, h, prm.SmoothRadius)
		}
		if prm.EdgeShift != 0 {
			mask = filter.EdgeShift(mask, w, h, prm.EdgeShift)
		}
		if prm.FeatherRadius > 0 {
			mask = filter.FeatherMask(mask, w, h, prm.FeatherRadius)
		}
		if err := out.SetAlphaMask(mask); err != nil {
			p.pool.Put(out)
			return nil, err
		}
	}

	if prm.Contrast != 1 {
		filter.NewContrastFilter(float32(prm.Contrast)).Apply(out, out)
	}

	if prm.FringeBand > 0 && prm.FringeStrength > 0 {
		filter.DecontaminateFringe(out, prm.FringeBand, float32(prm.FringeStrength))
	}

	studio.Logger().Debug("cleanup: processed", "width", w, "height", h)
	return out, nil
}

// Release returns a buffer produced by Process to the pool. The caller must
// not use buf afterwards.
func (p *Pipeline) Release(buf *image.ImageBuf) {
	p.pool.Put(buf)
}

func alphaStepsEnabled(p Params) bool {
	return p.AlphaThreshold > 0 || p.SmoothRadius > 0 || p.EdgeShift != 0 || p.FeatherRadius > 0
}

// growth is how far the alpha steps can push visible pixels outward: three
// sigma of smoothing plus any positive edge shift.
func growth(p Params) int {
	n := int(math.Ceil(3 * p.SmoothRadius))
	if p.EdgeShift > 0 {
		n += p.EdgeShift
	}
	return n
}
