package filter

import "github.com/aistudio/studio/internal/image"

// opaqueLevel is the alpha at or above which a pixel counts as interior.
const opaqueLevel = 254

// DecontaminateFringe removes background color spill from the edge band of
// a cutout.
//
// Core pixels are opaque pixels at least band+1 pixels (chessboard
// distance) away from any non-opaque pixel. Every other visible pixel is in
// the fringe; its RGB is pulled towards the mean color of the core pixels
// within a radius of 2*band:
//
//	C' = C + strength*(mean - C)
//
// Pixels with no core neighbor are left unchanged, as is alpha. strength is
// clamped to [0, 1]; band <= 0 or strength == 0 is the identity.
func DecontaminateFringe(buf *image.ImageBuf, band int, strength float32) {
	if buf == nil || buf.Format() != image.FormatRGBA8 || band <= 0 {
		return
	}
	strength = min(max(strength, 0), 1)
	if strength == 0 {
		return
	}

	w, h := buf.Bounds()

	opaque := make([]float32, w*h)
	for y := range h {
		row := buf.RowBytes(y)
		for x := range w {
			if row[x*4+3] >= opaqueLevel {
				opaque[y*w+x] = 1
			}
		}
	}
	core := ErodeMask(opaque, w, h, band)

	sat := newCoreTable(buf, core)
	radius := band * 2

	for y := range h {
		row := buf.RowBytes(y)
		for x := range w {
			i := x * 4
			if row[i+3] == 0 || core[y*w+x] > 0 {
				continue
			}
			mean, ok := sat.mean(x-radius, y-radius, x+radius, y+radius)
			if !ok {
				continue
			}
			for c := range 3 {
				v := float32(row[i+c])
				row[i+c] = clampUint8(v + strength*(mean[c]-v))
			}
		}
	}
}

// coreTable is a summed-area table of core pixel colors and counts so any
// window mean is four lookups.
type coreTable struct {
	w, h   int
	stride int
	sums   [][4]float64 // r, g, b, count; (w+1)*(h+1) entries
}

func newCoreTable(buf *image.ImageBuf, core []float32) *coreTable {
	w, h := buf.Bounds()
	t := &coreTable{w: w, h: h, stride: w + 1, sums: make([][4]float64, (w+1)*(h+1))}

	for y := range h {
		row := buf.RowBytes(y)
		var run [4]float64
		for x := range w {
			if core[y*w+x] > 0 {
				run[0] += float64(row[x*4])
				run[1] += float64(row[x*4+1])
				run[2] += float64(row[x*4+2])
				run[3]++
			}
			above := t.sums[y*t.stride+x+1]
			cell := &t.sums[(y+1)*t.stride+x+1]
			for c := range 4 {
				cell[c] = above[c] + run[c]
			}
		}
	}
	return t
}

// mean returns the average core color inside [x0,x1]x[y0,y1] (clipped).
func (t *coreTable) mean(x0, y0, x1, y1 int) ([3]float32, bool) {
	x0 = max(x0, 0)
	y0 = max(y0, 0)
	x1 = min(x1, t.w-1) + 1
	y1 = min(y1, t.h-1) + 1

	a := t.sums[y0*t.stride+x0]
	b := t.sums[y0*t.stride+x1]
	c := t.sums[y1*t.stride+x0]
	d := t.sums[y1*t.stride+x1]

	count := d[3] - b[3] - c[3] + a[3]
	if count < 0.5 {
		return [3]float32{}, false
	}
	var out [3]float32
	for i := range 3 {
		out[i] = float32((d[i] - b[i] - c[i] + a[i]) / count)
	}
	return out, true
}
