package filter

import (
	"sync"

	"github.com/aistudio/studio/internal/image"
)

// BlurFilter applies separable Gaussian blur to an RGBA8 image.
// Horizontal and vertical passes run independently, giving
// O(w*h*(rx+ry)) work instead of O(w*h*rx*ry).
//
// All four channels are convolved as stored; blur the alpha mask with
// BlurMask when only the edge should soften.
type BlurFilter struct {
	// RadiusX is the horizontal blur radius (sigma) in pixels.
	RadiusX float64

	// RadiusY is the vertical blur radius (sigma) in pixels.
	RadiusY float64
}

// NewBlurFilter creates a blur filter with equal radius in both directions.
func NewBlurFilter(radius float64) *BlurFilter {
	return &BlurFilter{RadiusX: radius, RadiusY: radius}
}

// Apply blurs src into dst. Both must be RGBA8 (or RGBAPremul) with the
// same dimensions; mismatched buffers are ignored. src and dst may alias.
func (f *BlurFilter) Apply(src, dst *image.ImageBuf) {
	if !sameRGBAShape(src, dst) {
		return
	}
	w, h := src.Bounds()

	if f.RadiusX <= 0 && f.RadiusY <= 0 {
		copyPixels(src, dst)
		return
	}

	plane := getFloatBuffer(w * h * 4)
	defer putFloatBuffer(plane)
	temp := getFloatBuffer(w * h * 4)
	defer putFloatBuffer(temp)

	for y := range h {
		row := src.RowBytes(y)
		base := y * w * 4
		for i, v := range row {
			plane[base+i] = float32(v)
		}
	}

	convolveH(plane, temp, w, h, 4, CachedGaussianKernel(f.RadiusX))
	convolveV(temp, plane, w, h, 4, CachedGaussianKernel(f.RadiusY))

	for y := range h {
		row := dst.RowBytes(y)
		base := y * w * 4
		for i := range row {
			row[i] = clampUint8(plane[base+i])
		}
	}
}

// BlurMask returns a Gaussian-blurred copy of a w*h alpha mask.
func BlurMask(mask []float32, w, h int, radius float64) []float32 {
	out := make([]float32, len(mask))
	if radius <= 0 || len(mask) != w*h {
		copy(out, mask)
		return out
	}

	kernel := CachedGaussianKernel(radius)
	temp := getFloatBuffer(len(mask))
	defer putFloatBuffer(temp)

	convolveH(mask, temp, w, h, 1, kernel)
	convolveV(temp, out, w, h, 1, kernel)
	return out
}

// convolveH convolves each row of an interleaved plane with kernel,
// extending the edge pixels outward.
func convolveH(src, dst []float32, w, h, channels int, kernel []float32) {
	half := len(kernel) / 2
	if half == 0 {
		copy(dst[:w*h*channels], src)
		return
	}

	for y := range h {
		rowBase := y * w * channels
		for x := range w {
			for c := range channels {
				var sum float32
				for k, weight := range kernel {
					kx := min(max(x+k-half, 0), w-1)
					sum += src[rowBase+kx*channels+c] * weight
				}
				dst[rowBase+x*channels+c] = sum
			}
		}
	}
}

// convolveV convolves each column of an interleaved plane with kernel,
// extending the edge pixels outward.
func convolveV(src, dst []float32, w, h, channels int, kernel []float32) {
	half := len(kernel) / 2
	if half == 0 {
		copy(dst[:w*h*channels], src)
		return
	}

	stride := w * channels
	for y := range h {
		for x := range w {
			for c := range channels {
				var sum float32
				for k, weight := range kernel {
					ky := min(max(y+k-half, 0), h-1)
					sum += src[ky*stride+x*channels+c] * weight
				}
				dst[y*stride+x*channels+c] = sum
			}
		}
	}
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

var floatBufferPool = sync.Pool{
	New: func() interface{} {
		return &floatBuffer{data: make([]float32, 0, 512*512*4)}
	},
}

// getFloatBuffer returns a zeroed scratch slice of exactly size elements.
func getFloatBuffer(size int) []float32 {
	wrapper := floatBufferPool.Get().(*floatBuffer)
	if cap(wrapper.data) < size {
		floatBufferPool.Put(wrapper)
		return make([]float32, size)
	}
	buf := wrapper.data[:size]
	clear(buf)
	return buf
}

// putFloatBuffer returns a scratch slice to the pool. Oversized buffers
// (beyond a 4K RGBA frame) are left to the GC.
func putFloatBuffer(buf []float32) {
	if cap(buf) <= 4096*4096*4 {
		floatBufferPool.Put(&floatBuffer{data: buf[:0]})
	}
}

// sameRGBAShape reports whether src and dst are 4-channel buffers of equal size.
func sameRGBAShape(src, dst *image.ImageBuf) bool {
	if src == nil || dst == nil {
		return false
	}
	if src.Format().BytesPerPixel() != 4 || dst.Format().BytesPerPixel() != 4 {
		return false
	}
	return src.Width() == dst.Width() && src.Height() == dst.Height()
}

// copyPixels copies src rows into dst unless they are the same buffer.
func copyPixels(src, dst *image.ImageBuf) {
	if src == dst {
		return
	}
	for y := range src.Height() {
		copy(dst.RowBytes(y), src.RowBytes(y))
	}
}

// clampUint8 clamps a float32 to [0, 255] and rounds to the nearest uint8.
func clampUint8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
