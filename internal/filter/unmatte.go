package filter

import "github.com/aistudio/studio/internal/image"

// RGB is an opaque 8-bit color used for matte and tint parameters.
type RGB struct {
	R, G, B uint8
}

// Unmatte recovers foreground colors of a cutout that was composited over
// a solid matte color. For each partially transparent pixel:
//
//	F = (C - (1-α)·M) / α
//
// clamped to [0, 255]. Fully transparent pixels get black RGB, fully opaque
// pixels are unchanged. Operates in place on an RGBA8 buffer.
func Unmatte(buf *image.ImageBuf, matte RGB) {
	if buf == nil || buf.Format() != image.FormatRGBA8 {
		return
	}

	m := [3]float32{float32(matte.R), float32(matte.G), float32(matte.B)}
	for y := range buf.Height() {
		row := buf.RowBytes(y)
		for i := 0; i < len(row); i += 4 {
			a := row[i+3]
			switch a {
			case 255:
				continue
			case 0:
				row[i], row[i+1], row[i+2] = 0, 0, 0
				continue
			}
			alpha := float32(a) / 255
			for c := range 3 {
				row[i+c] = clampUint8((float32(row[i+c]) - (1-alpha)*m[c]) / alpha)
			}
		}
	}
}
