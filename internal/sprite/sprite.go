// Package sprite cuts sprite sheets into individual tiles.
package sprite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aistudio/studio"
	"github.com/aistudio/studio/internal/image"
)

var (
	// ErrInvalidGrid is returned for grids with fewer than one row or
	// column, or negative spacing.
	ErrInvalidGrid = errors.New("sprite: invalid grid")

	// ErrGridTooLarge is returned when the cells would be empty.
	ErrGridTooLarge = errors.New("sprite: grid does not fit the image")
)

// Grid describes the sheet layout. Margin surrounds the whole sheet and
// Padding separates neighboring cells.
type Grid struct {
	Rows, Cols int
	Padding    int
	Margin     int
}

// Validate checks the grid on its own, independent of any image.
func (g Grid) Validate() error {
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, g.Cols, g.Rows)
	}
	if g.Padding < 0 || g.Margin < 0 {
		return fmt.Errorf("%w: negative padding or margin", ErrInvalidGrid)
	}
	return nil
}

// CellSize returns the tile size for a sheet of w x h pixels. Remainders
// that do not divide evenly are dropped from the right and bottom.
func (g Grid) CellSize(w, h int) (cw, ch int, err error) {
	if err := g.Validate(); err != nil {
		return 0, 0, err
	}
	cw = (w - 2*g.Margin - (g.Cols-1)*g.Padding) / g.Cols
	ch = (h - 2*g.Margin - (g.Rows-1)*g.Padding) / g.Rows
	if cw < 1 || ch < 1 {
		return 0, 0, fmt.Errorf("%w: %dx%d grid on %dx%d image", ErrGridTooLarge, g.Cols, g.Rows, w, h)
	}
	return cw, ch, nil
}

// Options post-process each tile.
type Options struct {
	// Trim crops each tile to its non-transparent bounds.
	Trim bool
	// SkipEmpty drops fully transparent tiles.
	SkipEmpty bool
	// Scale resizes tiles with nearest-neighbor sampling. 0 and 1 keep
	// the original size.
	Scale float64
}

// Tile is one cell of a sheet. Row and Col are zero-based.
type Tile struct {
	Row, Col int
	// X and Y locate the cell in the sheet, before trimming.
	X, Y  int
	Image *image.ImageBuf
}

// Split cuts buf into tiles in row-major order. Each tile owns its pixels.
func Split(buf *image.ImageBuf, g Grid, opts Options) ([]Tile, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidGrid)
	}
	cw, ch, err := g.CellSize(buf.Bounds())
	if err != nil {
		return nil, err
	}
	if opts.Scale < 0 {
		return nil, fmt.Errorf("sprite: negative scale %g", opts.Scale)
	}

	tiles := make([]Tile, 0, g.Rows*g.Cols)
	for row := range g.Rows {
		for col := range g.Cols {
			x := g.Margin + col*(cw+g.Padding)
			y := g.Margin + row*(ch+g.Padding)
			cell, err := buf.Crop(x, y, cw, ch)
			if err != nil {
				return nil, fmt.Errorf("sprite: cell r%d c%d: %w", row, col, err)
			}

			if opts.Trim || opts.SkipEmpty {
				bx, by, bw, bh, ok := cell.OpaqueBounds(0)
				if !ok && opts.SkipEmpty {
					continue
				}
				if ok && opts.Trim {
					if cell, err = cell.Crop(bx, by, bw, bh); err != nil {
						return nil, err
					}
				}
			}

			if opts.Scale > 0 && opts.Scale != 1 {
				if cell, err = image.Scale(cell, opts.Scale, image.InterpNearest); err != nil {
					return nil, fmt.Errorf("sprite: scale r%d c%d: %w", row, col, err)
				}
			}
			tiles = append(tiles, Tile{Row: row, Col: col, X: x, Y: y, Image: cell})
		}
	}
	studio.Logger().Debug("sprite: split", "cells", g.Rows*g.Cols, "tiles", len(tiles), "cell_w", cw, "cell_h", ch)
	return tiles, nil
}

// TileName is base_r{row}_c{col}.png with 1-based indexes zero-padded to
// the width of the grid's largest index.
func TileName(base string, g Grid, row, col int) string {
	width := len(strconv.Itoa(max(g.Rows, g.Cols)))
	return fmt.Sprintf("%s_r%0*d_c%0*d.png", base, width, row+1, width, col+1)
}

// SaveTiles writes every tile into dir as PNG and returns the paths.
func SaveTiles(dir, base string, g Grid, tiles []Tile) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sprite: %w", err)
	}
	paths := make([]string, 0, len(tiles))
	for _, t := range tiles {
		path := filepath.Join(dir, TileName(base, g, t.Row, t.Col))
		if err := image.Save(path, t.Image, image.SaveOptions{}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
