package seamless

import (
	"errors"
	"math"
	"testing"

	"github.com/aistudio/studio/internal/image"
)

// waves is a 64x64 texture that repeats exactly every 64 pixels along x.
func waves() *image.ImageBuf {
	buf := image.MustNew(64, 64, image.FormatRGBA8)
	for y := range 64 {
		for x := range 64 {
			v := uint8(math.Round(128 + 50*math.Sin(2*math.Pi*float64(x)/64)))
			_ = buf.SetRGBA(x, y, v, v, v, 255)
		}
	}
	return buf
}

// ramp brightens left to right, so its left and right borders clash.
func ramp() *image.ImageBuf {
	buf := image.MustNew(16, 16, image.FormatRGBA8)
	for y := range 16 {
		for x := range 16 {
			v := uint8(x * 17)
			_ = buf.SetRGBA(x, y, v, v, v, 255)
		}
	}
	return buf
}

func TestCheck(t *testing.T) {
	flat := image.MustNew(8, 8, image.FormatRGBA8)
	flat.Fill(90, 120, 30, 255)

	tests := []struct {
		name     string
		img      *image.ImageBuf
		seamless bool
	}{
		{"flat", flat, true},
		{"periodic waves", waves(), true},
		{"ramp", ramp(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := Check(tt.img, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if rep.Seamless != tt.seamless {
				t.Errorf("Seamless = %v, want %v (%+v)", rep.Seamless, tt.seamless, rep)
			}
			if rep.Score < 0 || rep.Score > 1 {
				t.Errorf("Score = %v, want in [0,1]", rep.Score)
			}
		})
	}
}

func TestCheckRampMetrics(t *testing.T) {
	rep, err := Check(ramp(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	// Borders differ by 255 in RGB and not at all in alpha.
	if math.Abs(rep.HorizontalDiff-0.75) > 1e-9 {
		t.Errorf("HorizontalDiff = %v, want 0.75", rep.HorizontalDiff)
	}
	if rep.VerticalDiff != 0 {
		t.Errorf("VerticalDiff = %v, want 0", rep.VerticalDiff)
	}
	if math.Abs(rep.Score-0.25) > 1e-9 {
		t.Errorf("Score = %v, want 0.25", rep.Score)
	}
	if rep.SeamContrast <= 2 {
		t.Errorf("SeamContrast = %v, want a visible seam", rep.SeamContrast)
	}
}

func TestCheckWavesContrast(t *testing.T) {
	rep, _ := Check(waves(), DefaultOptions())
	if rep.SeamContrast > 2 {
		t.Errorf("SeamContrast = %v, want <= 2 for a periodic texture", rep.SeamContrast)
	}
	if rep.Width != 64 || rep.Height != 64 {
		t.Errorf("size = %dx%d", rep.Width, rep.Height)
	}
}

func TestCheckWideBand(t *testing.T) {
	rep, err := Check(ramp(), Options{Band: 100})
	if err != nil {
		t.Fatal(err)
	}
	// Eight mirrored column pairs, differences 255, 221, ..., 17.
	want := (255.0 + 17) / 2 * 3 / 4 / 255
	if math.Abs(rep.HorizontalDiff-want) > 1e-9 {
		t.Errorf("HorizontalDiff = %v, want %v", rep.HorizontalDiff, want)
	}
}

func TestCheckTooSmall(t *testing.T) {
	for _, size := range [][2]int{{1, 5}, {5, 1}} {
		img := image.MustNew(size[0], size[1], image.FormatRGBA8)
		if _, err := Check(img, Options{}); !errors.Is(err, ErrTooSmall) {
			t.Errorf("Check(%dx%d) = %v, want ErrTooSmall", size[0], size[1], err)
		}
	}
	if _, err := Check(nil, Options{}); !errors.Is(err, ErrTooSmall) {
		t.Errorf("Check(nil) = %v, want ErrTooSmall", err)
	}
}

func TestOffsetPreview(t *testing.T) {
	img := image.MustNew(6, 4, image.FormatRGBA8)
	_ = img.SetRGBA(0, 0, 255, 0, 0, 255)

	out, err := OffsetPreview(img)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := out.GetRGBA(3, 2); r != 255 {
		t.Errorf("corner pixel not moved to the centre")
	}
	if r, _, _, _ := img.GetRGBA(0, 0); r != 255 {
		t.Errorf("OffsetPreview modified its input")
	}
}
