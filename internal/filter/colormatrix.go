package filter

import "github.com/aistudio/studio/internal/image"

// ColorMatrixFilter applies a 4x5 color transformation matrix to an image.
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// Channels are in [0, 255] during the transformation and clamped after.
// Fully transparent pixels are copied unchanged so hidden RGB does not
// drift between runs.
type ColorMatrixFilter struct {
	// Matrix is the 4x5 matrix in row-major order.
	Matrix [20]float32
}

// NewIdentityColorMatrix creates a color matrix filter that passes through unchanged.
func NewIdentityColorMatrix() *ColorMatrixFilter {
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			1, 0, 0, 0, 0,
			0, 1, 0, 0, 0,
			0, 0, 1, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// NewBrightnessFilter scales RGB by factor (0 = black, 1 = unchanged).
func NewBrightnessFilter(factor float32) *ColorMatrixFilter {
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			factor, 0, 0, 0, 0,
			0, factor, 0, 0, 0,
			0, 0, factor, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// NewContrastFilter scales RGB around mid-gray: (c - 128) * factor + 128.
// factor: 0 = flat gray, 1 = unchanged, 2 = high contrast.
func NewContrastFilter(factor float32) *ColorMatrixFilter {
	offset := 128 * (1 - factor)
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			factor, 0, 0, 0, offset,
			0, factor, 0, 0, offset,
			0, 0, factor, 0, offset,
			0, 0, 0, 1, 0,
		},
	}
}

// NewSaturationFilter blends between Rec. 709 luminance (0) and the
// original color (1).
func NewSaturationFilter(factor float32) *ColorMatrixFilter {
	const (
		lumR = 0.2126
		lumG = 0.7152
		lumB = 0.0722
	)
	inv := 1 - factor

	return &ColorMatrixFilter{
		Matrix: [20]float32{
			lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
			lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
			lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// IsIdentity reports whether the matrix leaves every pixel unchanged.
func (f *ColorMatrixFilter) IsIdentity() bool {
	return f.Matrix == NewIdentityColorMatrix().Matrix
}

// Apply transforms src into dst. Both must be 4-channel buffers of the same
// size; src and dst may alias.
func (f *ColorMatrixFilter) Apply(src, dst *image.ImageBuf) {
	if !sameRGBAShape(src, dst) {
		return
	}
	if f.IsIdentity() {
		copyPixels(src, dst)
		return
	}

	m := &f.Matrix
	for y := range src.Height() {
		in := src.RowBytes(y)
		out := dst.RowBytes(y)
		for i := 0; i < len(in); i += 4 {
			r := float32(in[i])
			g := float32(in[i+1])
			b := float32(in[i+2])
			a := float32(in[i+3])

			if a == 0 {
				out[i], out[i+1], out[i+2], out[i+3] = in[i], in[i+1], in[i+2], in[i+3]
				continue
			}

			out[i] = clampUint8(m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4])
			out[i+1] = clampUint8(m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9])
			out[i+2] = clampUint8(m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14])
			out[i+3] = clampUint8(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])
		}
	}
}
