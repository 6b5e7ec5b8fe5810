package cleanup

import "github.com/aistudio/studio/internal/image"

// cutout returns a 24x24 image with an opaque red square at [6,18) and a
// one-pixel green halo ring at half alpha around it.
func cutout() *image.ImageBuf {
	buf := image.MustNew(24, 24, image.FormatRGBA8)
	for y := 5; y <= 18; y++ {
		for x := 5; x <= 18; x++ {
			if x == 5 || x == 18 || y == 5 || y == 18 {
				_ = buf.SetRGBA(x, y, 40, 210, 40, 128)
				continue
			}
			_ = buf.SetRGBA(x, y, 210, 30, 30, 255)
		}
	}
	return buf
}

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

func identity() Params {
	return Params{Contrast: 1}
}
