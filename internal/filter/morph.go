package filter

import "math"

// ErodeMask contracts a w*h alpha mask: every value becomes the minimum of
// its (2r+1)x(2r+1) neighborhood. The neighborhood is clipped to the
// image, so an opaque region touching the border does not shrink from it.
func ErodeMask(mask []float32, w, h, radius int) []float32 {
	return morph(mask, w, h, radius, true)
}

// DilateMask grows a w*h alpha mask: every value becomes the maximum of
// its (2r+1)x(2r+1) neighborhood.
func DilateMask(mask []float32, w, h, radius int) []float32 {
	return morph(mask, w, h, radius, false)
}

// EdgeShift moves the mask edge outward (shift > 0) or inward (shift < 0)
// by |shift| pixels.
func EdgeShift(mask []float32, w, h, shift int) []float32 {
	if shift < 0 {
		return ErodeMask(mask, w, h, -shift)
	}
	return DilateMask(mask, w, h, shift)
}

// ThresholdMask zeroes every value below threshold and keeps the rest.
// Used to drop faint background speckle left by matting.
func ThresholdMask(mask []float32, threshold float32) []float32 {
	out := make([]float32, len(mask))
	for i, v := range mask {
		if v >= threshold {
			out[i] = v
		}
	}
	return out
}

// FeatherMask softens the mask edge over roughly radius pixels without
// growing it: the mask is eroded by radius/2, blurred with sigma radius/2,
// and finally limited to the original mask.
func FeatherMask(mask []float32, w, h int, radius float64) []float32 {
	if radius <= 0 || len(mask) != w*h {
		out := make([]float32, len(mask))
		copy(out, mask)
		return out
	}

	eroded := ErodeMask(mask, w, h, int(math.Ceil(radius/2)))
	out := BlurMask(eroded, w, h, radius/2)
	for i, v := range mask {
		out[i] = min(out[i], v)
	}
	return out
}

// morph runs a separable min (erode) or max (dilate) filter.
func morph(mask []float32, w, h, radius int, erode bool) []float32 {
	out := make([]float32, len(mask))
	if radius <= 0 || len(mask) != w*h {
		copy(out, mask)
		return out
	}

	pick := func(a, b float32) float32 { return max(a, b) }
	if erode {
		pick = func(a, b float32) float32 { return min(a, b) }
	}

	temp := getFloatBuffer(len(mask))
	defer putFloatBuffer(temp)

	// Horizontal pass.
	for y := range h {
		row := mask[y*w : (y+1)*w]
		for x := range w {
			v := row[x]
			for k := x - radius; k <= x+radius; k++ {
				if k < 0 || k >= w {
					continue
				}
				v = pick(v, row[k])
			}
			temp[y*w+x] = v
		}
	}

	// Vertical pass.
	for y := range h {
		for x := range w {
			v := temp[y*w+x]
			for k := y - radius; k <= y+radius; k++ {
				if k < 0 || k >= h {
					continue
				}
				v = pick(v, temp[k*w+x])
			}
			out[y*w+x] = v
		}
	}
	return out
}
