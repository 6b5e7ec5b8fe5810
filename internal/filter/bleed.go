package filter

import "github.com/aistudio/studio/internal/image"

// BleedColor extends the RGB of visible pixels into fully transparent
// neighbors, one ring per step, for up to radius rings. Each newly filled
// pixel takes the mean color of its already filled 8-neighbors. Alpha is
// never touched, so the image looks identical; the hidden color only shows
// once a later step grows the alpha mask outward.
func BleedColor(buf *image.ImageBuf, radius int) {
	if buf == nil || buf.Format() != image.FormatRGBA8 || radius <= 0 {
		return
	}
	w, h := buf.Bounds()

	filled := make([]bool, w*h)
	pending := 0
	for y := range h {
		row := buf.RowBytes(y)
		for x := range w {
			if row[x*4+3] > 0 {
				filled[y*w+x] = true
			} else {
				pending++
			}
		}
	}
	if pending == 0 || pending == w*h {
		return
	}

	type fill struct {
		idx     int
		r, g, b uint8
	}
	var ring []fill
	for range radius {
		ring = ring[:0]
		for y := range h {
			for x := range w {
				if filled[y*w+x] {
					continue
				}
				var sum [3]int
				n := 0
				for ny := max(y-1, 0); ny <= min(y+1, h-1); ny++ {
					row := buf.RowBytes(ny)
					for nx := max(x-1, 0); nx <= min(x+1, w-1); nx++ {
						if !filled[ny*w+nx] {
							continue
						}
						sum[0] += int(row[nx*4])
						sum[1] += int(row[nx*4+1])
						sum[2] += int(row[nx*4+2])
						n++
					}
				}
				if n == 0 {
					continue
				}
				ring = append(ring, fill{
					idx: y*w + x,
					r:   uint8((sum[0] + n/2) / n),
					g:   uint8((sum[1] + n/2) / n),
					b:   uint8((sum[2] + n/2) / n),
				})
			}
		}
		if len(ring) == 0 {
			return
		}
		// Apply after the scan so a ring only sees the previous rings.
		for _, f := range ring {
			row := buf.RowBytes(f.idx / w)
			i := (f.idx % w) * 4
			row[i], row[i+1], row[i+2] = f.r, f.g, f.b
			filled[f.idx] = true
		}
	}
}
