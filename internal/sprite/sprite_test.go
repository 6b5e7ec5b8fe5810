package sprite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/aistudio/studio/internal/image"
)

// sheet builds a cols x rows sheet of 8x8 cells with 2px padding and a 1px
// margin. Cell (r, c) holds a 4x4 opaque block at offset (2, 2) whose red
// channel is 10*r+c; the cell at (1, 1) is left empty.
func sheet(rows, cols int) *image.ImageBuf {
	const cell, pad, margin = 8, 2, 1
	w := 2*margin + cols*cell + (cols-1)*pad
	h := 2*margin + rows*cell + (rows-1)*pad
	buf := image.MustNew(w, h, image.FormatRGBA8)
	for r := range rows {
		for c := range cols {
			if r == 1 && c == 1 {
				continue
			}
			x0 := margin + c*(cell+pad) + 2
			y0 := margin + r*(cell+pad) + 2
			for y := y0; y < y0+4; y++ {
				for x := x0; x < x0+4; x++ {
					_ = buf.SetRGBA(x, y, uint8(10*r+c), 0, 0, 255)
				}
			}
		}
	}
	return buf
}

var sheetGrid = Grid{Rows: 2, Cols: 3, Padding: 2, Margin: 1}

func TestGridValidate(t *testing.T) {
	tests := []struct {
		name string
		g    Grid
		ok   bool
	}{
		{"1x1", Grid{Rows: 1, Cols: 1}, true},
		{"zero rows", Grid{Rows: 0, Cols: 2}, false},
		{"zero cols", Grid{Rows: 2, Cols: 0}, false},
		{"negative padding", Grid{Rows: 1, Cols: 1, Padding: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if tt.ok != (err == nil) {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("error %v does not wrap ErrInvalidGrid", err)
			}
		})
	}
}

func TestCellSize(t *testing.T) {
	g := Grid{Rows: 2, Cols: 3, Padding: 1}
	// (10 - 2) / 3 = 2 with 2 pixels lost on the right.
	cw, ch, err := g.CellSize(10, 9)
	if err != nil {
		t.Fatal(err)
	}
	if cw != 2 || ch != 4 {
		t.Errorf("CellSize = %dx%d, want 2x4", cw, ch)
	}

	if _, _, err := (Grid{Rows: 1, Cols: 20}).CellSize(10, 10); !errors.Is(err, ErrGridTooLarge) {
		t.Errorf("CellSize() = %v, want ErrGridTooLarge", err)
	}
}

func TestSplit(t *testing.T) {
	tiles, err := Split(sheet(2, 3), sheetGrid, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tiles) != 6 {
		t.Fatalf("len(tiles) = %d, want 6", len(tiles))
	}
	for i, tile := range tiles {
		if tile.Row != i/3 || tile.Col != i%3 {
			t.Errorf("tile %d at r%d c%d, want row-major order", i, tile.Row, tile.Col)
		}
		if tile.Image.Width() != 8 || tile.Image.Height() != 8 {
			t.Errorf("tile %d is %dx%d, want 8x8", i, tile.Image.Width(), tile.Image.Height())
		}
	}
	if r, _, _, _ := tiles[5].Image.GetRGBA(3, 3); r != 12 {
		t.Errorf("tile r1 c2 red = %d, want 12", r)
	}
	if tiles[4].X != 1+1*10 || tiles[4].Y != 1+1*10 {
		t.Errorf("tile r1 c1 origin = (%d,%d), want (11,11)", tiles[4].X, tiles[4].Y)
	}
}

func TestSplitTrimAndSkip(t *testing.T) {
	tiles, err := Split(sheet(2, 3), sheetGrid, Options{Trim: true, SkipEmpty: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(tiles) != 5 {
		t.Fatalf("len(tiles) = %d, want 5 with the empty cell dropped", len(tiles))
	}
	for _, tile := range tiles {
		if tile.Row == 1 && tile.Col == 1 {
			t.Error("empty tile was kept")
		}
		if tile.Image.Width() != 4 || tile.Image.Height() != 4 {
			t.Errorf("trimmed tile is %dx%d, want 4x4", tile.Image.Width(), tile.Image.Height())
		}
	}

	// Trim alone keeps the empty cell at full size.
	tiles, _ = Split(sheet(2, 3), sheetGrid, Options{Trim: true})
	if len(tiles) != 6 || tiles[4].Image.Width() != 8 {
		t.Errorf("Trim without SkipEmpty: %d tiles, empty tile width %d", len(tiles), tiles[4].Image.Width())
	}
}

func TestSplitScale(t *testing.T) {
	tiles, err := Split(sheet(2, 3), sheetGrid, Options{Trim: true, Scale: 2})
	if err != nil {
		t.Fatal(err)
	}
	img := tiles[0].Image
	if img.Width() != 8 || img.Height() != 8 {
		t.Fatalf("scaled tile is %dx%d, want 8x8", img.Width(), img.Height())
	}
	// Nearest-neighbor keeps hard pixels.
	if _, _, _, a := img.GetRGBA(7, 7); a != 255 {
		t.Errorf("corner alpha = %d, want 255", a)
	}
}

func TestSplitErrors(t *testing.T) {
	if _, err := Split(nil, sheetGrid, Options{}); err == nil {
		t.Error("Split(nil) succeeded")
	}
	if _, err := Split(sheet(2, 3), Grid{Rows: 0, Cols: 1}, Options{}); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Split(0 rows) = %v, want ErrInvalidGrid", err)
	}
	if _, err := Split(sheet(2, 3), sheetGrid, Options{Scale: -1}); err == nil {
		t.Error("negative scale accepted")
	}
}

func TestTileName(t *testing.T) {
	tests := []struct {
		g        Grid
		row, col int
		want     string
	}{
		{Grid{Rows: 2, Cols: 3}, 0, 2, "hero_r1_c3.png"},
		{Grid{Rows: 4, Cols: 12}, 3, 0, "hero_r04_c01.png"},
		{Grid{Rows: 100, Cols: 1}, 9, 0, "hero_r010_c001.png"},
	}
	for _, tt := range tests {
		if got := TileName("hero", tt.g, tt.row, tt.col); got != tt.want {
			t.Errorf("TileName(%v, %d, %d) = %q, want %q", tt.g, tt.row, tt.col, got, tt.want)
		}
	}
}

func TestSaveTiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tiles")
	tiles, _ := Split(sheet(2, 3), sheetGrid, Options{SkipEmpty: true})

	paths, err := SaveTiles(dir, "sheet", sheetGrid, tiles)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 5 {
		t.Fatalf("wrote %d files, want 5", len(paths))
	}
	if filepath.Base(paths[0]) != "sheet_r1_c1.png" {
		t.Errorf("first file = %s", filepath.Base(paths[0]))
	}
	got, err := image.Load(paths[4])
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := got.GetRGBA(3, 3); r != 12 {
		t.Errorf("saved tile red = %d, want 12", r)
	}
}
