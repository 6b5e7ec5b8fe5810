package filter

import "github.com/aistudio/studio/internal/image"

// Test helper functions shared across filter tests.

// solid creates an RGBA8 image filled with one color.
func solid(w, h int, r, g, b, a uint8) *image.ImageBuf {
	buf := image.MustNew(w, h, image.FormatRGBA8)
	buf.Fill(r, g, b, a)
	return buf
}

// square creates a w x h transparent image with an opaque square of the given
// color covering [x0, x1) x [y0, y1).
func square(w, h, x0, y0, x1, y1 int, r, g, b uint8) *image.ImageBuf {
	buf := image.MustNew(w, h, image.FormatRGBA8)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			_ = buf.SetRGBA(x, y, r, g, b, 255)
		}
	}
	return buf
}

// sameBytes reports whether two buffers hold identical pixels.
func sameBytes(a, b *image.ImageBuf) bool {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return false
	}
	for y := range a.Height() {
		ra, rb := a.RowBytes(y), b.RowBytes(y)
		for i := range ra {
			if ra[i] != rb[i] {
				return false
			}
		}
	}
	return true
}

// absf32 returns the absolute value of a float32.
func absf32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
