package image

import (
	"errors"
)

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("image: invalid format")

	// ErrInvalidStride is returned when stride is less than minimum required.
	ErrInvalidStride = errors.New("image: stride too small for width")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("image: data buffer too small")

	// ErrOutOfBounds is returned when pixel coordinates are outside image bounds.
	ErrOutOfBounds = errors.New("image: coordinates out of bounds")

	// ErrMaskSize is returned when a mask does not have width*height entries.
	ErrMaskSize = errors.New("image: mask size does not match image")
)

// ImageBuf is a rectangular pixel buffer.
//
// Pixel data lives in a contiguous byte slice with a stride that may be
// larger than the row size (sub-images keep the parent stride).
//
// Thread safety: concurrent reads are safe. Writes require external
// synchronization.
type ImageBuf struct {
	data   []byte
	width  int
	height int
	stride int
	format Format
}

// NewImageBuf creates a new zeroed image buffer with the given dimensions and format.
func NewImageBuf(width, height int, format Format) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	stride := format.RowBytes(width)
	return &ImageBuf{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// MustNew is like NewImageBuf but panics on invalid arguments.
// Intended for tests and constant-sized scratch buffers.
func MustNew(width, height int, format Format) *ImageBuf {
	b, err := NewImageBuf(width, height, format)
	if err != nil {
		panic(err)
	}
	return b
}

// FromRaw creates an ImageBuf from existing data without copying.
// The caller must ensure data remains valid for the lifetime of the ImageBuf.
func FromRaw(data []byte, width, height int, format Format, stride int) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	if stride < format.RowBytes(width) {
		return nil, ErrInvalidStride
	}
	required := stride*(height-1) + format.RowBytes(width)
	if len(data) < required {
		return nil, ErrDataTooSmall
	}

	return &ImageBuf{
		data:   data[:required],
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// Clone creates a deep, tightly packed copy of the image buffer.
func (b *ImageBuf) Clone() *ImageBuf {
	out := MustNew(b.width, b.height, b.format)
	for y := range b.height {
		copy(out.RowBytes(y), b.RowBytes(y))
	}
	return out
}

// Width returns the image width in pixels.
func (b *ImageBuf) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *ImageBuf) Height() int { return b.height }

// Stride returns the number of bytes per row (including padding).
func (b *ImageBuf) Stride() int { return b.stride }

// Format returns the pixel format.
func (b *ImageBuf) Format() Format { return b.format }

// Bounds returns the image dimensions as (width, height).
func (b *ImageBuf) Bounds() (int, int) { return b.width, b.height }

// Data returns the raw pixel data slice.
func (b *ImageBuf) Data() []byte { return b.data }

// RowBytes returns a slice of the pixel data for row y.
// Returns nil if y is out of bounds.
func (b *ImageBuf) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	return b.data[start : start+b.format.RowBytes(b.width)]
}

// PixelOffset returns the byte offset of pixel (x, y) in the data slice.
// Returns -1 if coordinates are out of bounds.
func (b *ImageBuf) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*b.format.BytesPerPixel()
}

// GetRGBA returns the color at (x, y) as (r, g, b, a) in 0-255 range.
// Gray8 reports r=g=b=gray and a=255. Premultiplied pixels are returned
// as stored. Out-of-bounds coordinates return (0,0,0,0).
func (b *ImageBuf) GetRGBA(x, y int) (r, g, bl, a uint8) {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return 0, 0, 0, 0
	}
	switch b.format {
	case FormatGray8:
		v := b.data[off]
		return v, v, v, 255
	default:
		return b.data[off], b.data[off+1], b.data[off+2], b.data[off+3]
	}
}

// SetRGBA sets the color at (x, y).
// Gray8 stores Rec. 601 luminance and ignores alpha.
func (b *ImageBuf) SetRGBA(x, y int, r, g, bl, a uint8) error {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	switch b.format {
	case FormatGray8:
		b.data[off] = byte((int(r)*299 + int(g)*587 + int(bl)*114) / 1000)
	default:
		b.data[off] = r
		b.data[off+1] = g
		b.data[off+2] = bl
		b.data[off+3] = a
	}
	return nil
}

// Clear sets all pixels to zero (transparent black for RGBA formats).
func (b *ImageBuf) Clear() {
	for y := range b.height {
		clear(b.RowBytes(y))
	}
}

// Fill sets all pixels to the given RGBA color.
func (b *ImageBuf) Fill(r, g, bl, a uint8) {
	for y := range b.height {
		for x := range b.width {
			_ = b.SetRGBA(x, y, r, g, bl, a)
		}
	}
}

// SubImage returns a view into a rectangular region of the image.
// The returned ImageBuf shares the underlying data with the original.
// Returns nil if the region is empty or not fully inside the image.
func (b *ImageBuf) SubImage(x, y, width, height int) *ImageBuf {
	if x < 0 || y < 0 || width <= 0 || height <= 0 {
		return nil
	}
	if x+width > b.width || y+height > b.height {
		return nil
	}

	bpp := b.format.BytesPerPixel()
	offset := y*b.stride + x*bpp
	end := (y+height-1)*b.stride + (x+width)*bpp

	return &ImageBuf{
		data:   b.data[offset:end],
		width:  width,
		height: height,
		stride: b.stride,
		format: b.format,
	}
}

// Crop returns a tightly packed copy of the given region.
func (b *ImageBuf) Crop(x, y, width, height int) (*ImageBuf, error) {
	sub := b.SubImage(x, y, width, height)
	if sub == nil {
		return nil, ErrOutOfBounds
	}
	return sub.Clone(), nil
}

// ToRGBA8 returns the image in straight-alpha RGBA8.
// If the buffer is already RGBA8 it is returned as is.
func (b *ImageBuf) ToRGBA8() *ImageBuf {
	switch b.format {
	case FormatRGBA8:
		return b
	case FormatRGBAPremul:
		return b.Unpremultiply()
	}
	out := MustNew(b.width, b.height, FormatRGBA8)
	for y := range b.height {
		for x := range b.width {
			r, g, bl, a := b.GetRGBA(x, y)
			_ = out.SetRGBA(x, y, r, g, bl, a)
		}
	}
	return out
}

// Premultiply returns a premultiplied copy of an RGBA8 image.
// Other formats are cloned unchanged.
func (b *ImageBuf) Premultiply() *ImageBuf {
	out := b.Clone()
	if b.format != FormatRGBA8 {
		return out
	}
	out.format = FormatRGBAPremul
	for y := range out.height {
		row := out.RowBytes(y)
		for i := 0; i < len(row); i += 4 {
			a := uint16(row[i+3])
			row[i] = byte((uint16(row[i])*a + 127) / 255)
			row[i+1] = byte((uint16(row[i+1])*a + 127) / 255)
			row[i+2] = byte((uint16(row[i+2])*a + 127) / 255)
		}
	}
	return out
}

// Unpremultiply returns a straight-alpha copy of an RGBAPremul image.
// Other formats are cloned unchanged.
func (b *ImageBuf) Unpremultiply() *ImageBuf {
	out := b.Clone()
	if b.format != FormatRGBAPremul {
		return out
	}
	out.format = FormatRGBA8
	for y := range out.height {
		row := out.RowBytes(y)
		for i := 0; i < len(row); i += 4 {
			a := uint32(row[i+3])
			if a == 0 {
				row[i], row[i+1], row[i+2] = 0, 0, 0
				continue
			}
			row[i] = byte(min(255, (uint32(row[i])*255+a/2)/a))
			row[i+1] = byte(min(255, (uint32(row[i+1])*255+a/2)/a))
			row[i+2] = byte(min(255, (uint32(row[i+2])*255+a/2)/a))
		}
	}
	return out
}

// AlphaMask extracts the alpha channel as a row-major float32 plane in [0, 1].
// Images without alpha yield an all-ones mask.
func (b *ImageBuf) AlphaMask() []float32 {
	mask := make([]float32, b.width*b.height)
	if !b.format.HasAlpha() {
		for i := range mask {
			mask[i] = 1
		}
		return mask
	}
	for y := range b.height {
		row := b.RowBytes(y)
		for x := range b.width {
			mask[y*b.width+x] = float32(row[x*4+3]) / 255
		}
	}
	return mask
}

// SetAlphaMask writes a float32 plane in [0, 1] into the alpha channel.
// Values outside the range are clamped.
func (b *ImageBuf) SetAlphaMask(mask []float32) error {
	if len(mask) != b.width*b.height {
		return ErrMaskSize
	}
	if !b.format.HasAlpha() {
		return ErrInvalidFormat
	}
	for y := range b.height {
		row := b.RowBytes(y)
		for x := range b.width {
			row[x*4+3] = UnitToByte(mask[y*b.width+x])
		}
	}
	return nil
}

// OpaqueBounds returns the smallest rectangle containing every pixel whose
// alpha exceeds threshold. ok is false when no such pixel exists.
func (b *ImageBuf) OpaqueBounds(threshold uint8) (x, y, width, height int, ok bool) {
	minX, minY := b.width, b.height
	maxX, maxY := -1, -1
	for py := range b.height {
		for px := range b.width {
			_, _, _, a := b.GetRGBA(px, py)
			if a <= threshold {
				continue
			}
			minX = min(minX, px)
			minY = min(minY, py)
			maxX = max(maxX, px)
			maxY = max(maxY, py)
		}
	}
	if maxX < 0 {
		return 0, 0, 0, 0, false
	}
	return minX, minY, maxX - minX + 1, maxY - minY + 1, true
}

// UnitToByte converts a value in [0, 1] to a byte with rounding and clamping.
func UnitToByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
