package image

import (
	"errors"
	"testing"
)

func TestNewImageBuf(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		format  Format
		wantErr error
	}{
		{"rgba", 10, 5, FormatRGBA8, nil},
		{"gray", 3, 3, FormatGray8, nil},
		{"zero width", 0, 5, FormatRGBA8, ErrInvalidDimensions},
		{"negative height", 5, -1, FormatRGBA8, ErrInvalidDimensions},
		{"bad format", 5, 5, Format(99), ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := NewImageBuf(tt.w, tt.h, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if buf.Stride() != tt.w*tt.format.BytesPerPixel() {
				t.Errorf("Stride() = %d, want %d", buf.Stride(), tt.w*tt.format.BytesPerPixel())
			}
			if len(buf.Data()) != buf.Stride()*tt.h {
				t.Errorf("len(Data()) = %d, want %d", len(buf.Data()), buf.Stride()*tt.h)
			}
		})
	}
}

func TestFromRaw(t *testing.T) {
	data := make([]byte, 2*12)
	if _, err := FromRaw(data, 2, 2, FormatRGBA8, 12); err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	if _, err := FromRaw(data, 2, 2, FormatRGBA8, 4); !errors.Is(err, ErrInvalidStride) {
		t.Errorf("small stride err = %v, want ErrInvalidStride", err)
	}
	if _, err := FromRaw(data[:10], 2, 2, FormatRGBA8, 12); !errors.Is(err, ErrDataTooSmall) {
		t.Errorf("short data err = %v, want ErrDataTooSmall", err)
	}
}

func TestGetSetRGBA(t *testing.T) {
	buf := MustNew(4, 4, FormatRGBA8)
	if err := buf.SetRGBA(1, 2, 10, 20, 30, 40); err != nil {
		t.Fatalf("SetRGBA: %v", err)
	}
	r, g, b, a := buf.GetRGBA(1, 2)
	if r != 10 || g != 20 || b != 30 || a != 40 {
		t.Errorf("GetRGBA = (%d,%d,%d,%d), want (10,20,30,40)", r, g, b, a)
	}

	if err := buf.SetRGBA(4, 0, 1, 1, 1, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetRGBA out of bounds err = %v", err)
	}
	r, g, b, a = buf.GetRGBA(-1, 0)
	if r != 0 || g != 0 || b != 0 || a != 0 {
		t.Errorf("GetRGBA out of bounds = (%d,%d,%d,%d), want zeros", r, g, b, a)
	}
}

func TestGray8Luminance(t *testing.T) {
	buf := MustNew(1, 1, FormatGray8)
	_ = buf.SetRGBA(0, 0, 255, 255, 255, 0)
	r, g, b, a := buf.GetRGBA(0, 0)
	if r != 255 || g != 255 || b != 255 || a != 255 {
		t.Errorf("white gray = (%d,%d,%d,%d)", r, g, b, a)
	}
}

func TestSubImageSharesMemory(t *testing.T) {
	buf := MustNew(8, 8, FormatRGBA8)
	sub := buf.SubImage(2, 3, 4, 2)
	if sub == nil {
		t.Fatal("SubImage returned nil")
	}
	_ = sub.SetRGBA(0, 0, 1, 2, 3, 4)

	r, g, b, a := buf.GetRGBA(2, 3)
	if r != 1 || g != 2 || b != 3 || a != 4 {
		t.Errorf("parent pixel = (%d,%d,%d,%d), want (1,2,3,4)", r, g, b, a)
	}

	if buf.SubImage(6, 6, 4, 4) != nil {
		t.Error("SubImage outside bounds should be nil")
	}
}

func TestCropCopies(t *testing.T) {
	buf := MustNew(6, 6, FormatRGBA8)
	_ = buf.SetRGBA(3, 3, 9, 9, 9, 9)

	crop, err := buf.Crop(3, 3, 2, 2)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if crop.Stride() != 8 {
		t.Errorf("crop stride = %d, want 8", crop.Stride())
	}
	_ = crop.SetRGBA(0, 0, 0, 0, 0, 0)
	if _, _, _, a := buf.GetRGBA(3, 3); a != 9 {
		t.Error("Crop should not alias the parent")
	}
}

func TestPremultiplyRoundTrip(t *testing.T) {
	buf := MustNew(1, 1, FormatRGBA8)
	_ = buf.SetRGBA(0, 0, 200, 100, 50, 128)

	pm := buf.Premultiply()
	if pm.Format() != FormatRGBAPremul {
		t.Fatalf("format = %v", pm.Format())
	}
	r, _, _, a := pm.GetRGBA(0, 0)
	if r != 100 || a != 128 {
		t.Errorf("premultiplied = (%d, a=%d), want (100, a=128)", r, a)
	}

	back := pm.Unpremultiply()
	r, g, b, _ := back.GetRGBA(0, 0)
	if absDiff(r, 200) > 1 || absDiff(g, 100) > 1 || absDiff(b, 50) > 1 {
		t.Errorf("round trip = (%d,%d,%d), want ~(200,100,50)", r, g, b)
	}
}

func TestAlphaMask(t *testing.T) {
	buf := MustNew(2, 1, FormatRGBA8)
	_ = buf.SetRGBA(0, 0, 0, 0, 0, 255)
	_ = buf.SetRGBA(1, 0, 0, 0, 0, 0)

	mask := buf.AlphaMask()
	if mask[0] != 1 || mask[1] != 0 {
		t.Errorf("mask = %v, want [1 0]", mask)
	}

	mask[1] = 0.5
	if err := buf.SetAlphaMask(mask); err != nil {
		t.Fatalf("SetAlphaMask: %v", err)
	}
	if _, _, _, a := buf.GetRGBA(1, 0); a != 128 {
		t.Errorf("alpha = %d, want 128", a)
	}

	if err := buf.SetAlphaMask([]float32{1}); !errors.Is(err, ErrMaskSize) {
		t.Errorf("short mask err = %v", err)
	}

	gray := MustNew(2, 2, FormatGray8)
	for _, v := range gray.AlphaMask() {
		if v != 1 {
			t.Fatalf("gray mask value = %v, want 1", v)
		}
	}
}

func TestOpaqueBounds(t *testing.T) {
	buf := MustNew(10, 10, FormatRGBA8)
	if _, _, _, _, ok := buf.OpaqueBounds(0); ok {
		t.Error("empty image should report no bounds")
	}

	_ = buf.SetRGBA(2, 3, 0, 0, 0, 255)
	_ = buf.SetRGBA(6, 7, 0, 0, 0, 255)
	x, y, w, h, ok := buf.OpaqueBounds(0)
	if !ok || x != 2 || y != 3 || w != 5 || h != 5 {
		t.Errorf("OpaqueBounds = (%d,%d,%d,%d,%v), want (2,3,5,5,true)", x, y, w, h, ok)
	}
}

func TestUnitToByte(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0}, {0, 0}, {0.5, 128}, {1, 255}, {2, 255},
	}
	for _, tt := range tests {
		if got := UnitToByte(tt.in); got != tt.want {
			t.Errorf("UnitToByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
