package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/aistudio/studio/internal/batch"
	"github.com/aistudio/studio/internal/cleanup"
	"github.com/aistudio/studio/internal/image"
	"github.com/aistudio/studio/internal/seamless"
	"github.com/aistudio/studio/internal/sprite"
	"github.com/aistudio/studio/internal/tui"
)

// CleanFlags configure the fringe/halo cleanup.
func CleanFlags() []cli.Flag {
	return append(batchFlags(""),
		&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: "cleanup preset (soft, crisp, sprite, photo or one from config)"},
		&cli.StringFlag{Name: "matte", Usage: "background color the cutout was made on (#rrggbb or a name)"},
		&cli.BoolFlag{Name: "unmatte", Usage: "recover edge colors against the matte"},
		&cli.FloatFlag{Name: "smooth", Usage: "alpha smoothing radius"},
		&cli.FloatFlag{Name: "feather", Usage: "feather radius"},
		&cli.FloatFlag{Name: "contrast", Usage: "RGB contrast (1 = unchanged)"},
		&cli.IntFlag{Name: "edge-shift", Usage: "grow (+) or shrink (-) the alpha edge in pixels"},
		&cli.IntFlag{Name: "fringe-band", Usage: "width of the decontaminated edge band"},
		&cli.FloatFlag{Name: "fringe-strength", Usage: "fringe blend strength in [0, 1]"},
		&cli.FloatFlag{Name: "threshold", Usage: "drop alpha below this value"},
		&cli.BoolFlag{Name: "list-presets", Usage: "print the available presets and exit"},
	)
}

// CleanAction removes background fringes from every image in a folder.
func CleanAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	reg, err := cleanupRegistry(app.Config)
	if err != nil {
		return err
	}
	if cmd.Bool("list-presets") {
		for _, name := range reg.Names() {
			fmt.Fprintln(app.Out, name)
		}
		return nil
	}

	name := app.Config.Cleanup.Preset
	if cmd.IsSet("preset") {
		name = cmd.String("preset")
	}
	params, err := reg.Lookup(name)
	if err != nil {
		return err
	}
	if params, err = paramsFromFlags(params, cmd); err != nil {
		return err
	}
	pipeline, err := cleanup.NewPipeline(params)
	if err != nil {
		return err
	}

	opts, err := batchOptions(app, cmd)
	if err != nil {
		return err
	}
	app.Logger.Info("clean: starting", "input", opts.Input, "preset", name)
	return runBatch(ctx, app, cmd, "clean", pipeline, opts)
}

func paramsFromFlags(p cleanup.Params, cmd *cli.Command) (cleanup.Params, error) {
	if cmd.IsSet("matte") {
		rgb, err := cleanup.ParseColor(cmd.String("matte"))
		if err != nil {
			return p, err
		}
		p.Matte = rgb
	}
	if cmd.IsSet("unmatte") {
		p.Unmatte = cmd.Bool("unmatte")
	}
	if cmd.IsSet("smooth") {
		p.SmoothRadius = cmd.Float("smooth")
	}
	if cmd.IsSet("feather") {
		p.FeatherRadius = cmd.Float("feather")
	}
	if cmd.IsSet("contrast") {
		p.Contrast = cmd.Float("contrast")
	}
	if cmd.IsSet("edge-shift") {
		p.EdgeShift = cmd.Int("edge-shift")
	}
	if cmd.IsSet("fringe-band") {
		p.FringeBand = cmd.Int("fringe-band")
	}
	if cmd.IsSet("fringe-strength") {
		p.FringeStrength = cmd.Float("fringe-strength")
	}
	if cmd.IsSet("threshold") {
		p.AlphaThreshold = cmd.Float("threshold")
	}
	return p, p.Validate()
}

// ResizeFlags configure the batch resize.
func ResizeFlags() []cli.Flag {
	return append(batchFlags("_resized"),
		&cli.FloatFlag{Name: "scale", Usage: "scale factor, e.g. 0.5 or 4"},
		&cli.IntFlag{Name: "width", Usage: "target width (height follows the aspect ratio when unset)"},
		&cli.IntFlag{Name: "height", Usage: "target height (width follows the aspect ratio when unset)"},
		&cli.StringFlag{Name: "interp", Usage: "nearest, bilinear or catmullrom", Value: "catmullrom"},
	)
}

// ResizeAction scales every image in a folder.
func ResizeAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	mode, ok := image.ParseInterpolation(cmd.String("interp"))
	if !ok {
		return fmt.Errorf("unknown interpolation %q", cmd.String("interp"))
	}
	proc, err := resizer(cmd.Float("scale"), cmd.Int("width"), cmd.Int("height"), mode)
	if err != nil {
		return err
	}
	opts, err := batchOptions(app, cmd)
	if err != nil {
		return err
	}
	return runBatch(ctx, app, cmd, "resize", proc, opts)
}

func resizer(scale float64, width, height int, mode image.Interpolation) (batch.Processor, error) {
	switch {
	case scale < 0 || width < 0 || height < 0:
		return nil, fmt.Errorf("resize: negative size")
	case scale > 0 && (width > 0 || height > 0):
		return nil, fmt.Errorf("resize: use either --scale or --width/--height")
	case scale == 0 && width == 0 && height == 0:
		return nil, fmt.Errorf("resize: one of --scale, --width or --height is required")
	}
	return batch.ProcessorFunc(func(src *image.ImageBuf) (*image.ImageBuf, error) {
		if scale > 0 {
			return image.Scale(src, scale, mode)
		}
		w, h := width, height
		switch {
		case w == 0:
			w = max(1, src.Width()*h/src.Height())
		case h == 0:
			h = max(1, src.Height()*w/src.Width())
		}
		return image.Resize(src, w, h, mode)
	}), nil
}

// SeamlessFlags configure the tileability check.
func SeamlessFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "band", Usage: "border rows/columns compared"},
		&cli.FloatFlag{Name: "threshold", Usage: "minimum score for a seamless verdict"},
		&cli.FloatFlag{Name: "max-contrast", Usage: "maximum seam contrast for a seamless verdict"},
		&cli.BoolFlag{Name: "preview", Usage: "write <name>_offset.png, shifted by half its size, next to each input"},
		&cli.BoolFlag{Name: "json", Usage: "print reports as JSON"},
		&cli.BoolFlag{Name: "strict", Usage: "fail when any image is not seamless"},
	}
}

type seamlessResult struct {
	File string `json:"file"`
	seamless.Report
	Preview string `json:"preview,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SeamlessAction reports whether images tile without visible seams.
func SeamlessAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if cmd.NArg() == 0 {
		return fmt.Errorf("seamless: at least one image is required")
	}

	sc := app.Config.Seamless
	opts := seamless.Options{Band: sc.Band, Threshold: sc.Threshold, MaxContrast: sc.MaxContrast}
	if cmd.IsSet("band") {
		opts.Band = cmd.Int("band")
	}
	if cmd.IsSet("threshold") {
		opts.Threshold = cmd.Float("threshold")
	}
	if cmd.IsSet("max-contrast") {
		opts.MaxContrast = cmd.Float("max-contrast")
	}

	var results []seamlessResult
	failed := 0
	for _, path := range cmd.Args().Slice() {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := checkSeamless(path, opts, cmd.Bool("preview"))
		if res.Error != "" {
			app.Logger.Warn("seamless: check failed", "path", path, "err", res.Error)
		}
		if res.Error != "" || !res.Seamless {
			failed++
		}
		results = append(results, res)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		table := tablewriter.NewWriter(app.Out)
		table.Header("File", "Score", "Horizontal", "Vertical", "Seam contrast", "Seamless")
		for _, r := range results {
			if r.Error != "" {
				_ = table.Append(r.File, "-", "-", "-", "-", "error: "+r.Error)
				continue
			}
			_ = table.Append(r.File,
				fmt.Sprintf("%.3f", r.Score),
				fmt.Sprintf("%.3f", r.HorizontalDiff),
				fmt.Sprintf("%.3f", r.VerticalDiff),
				fmt.Sprintf("%.2f", r.SeamContrast),
				verdict(r.Seamless))
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if cmd.Bool("strict") && failed > 0 {
		return fmt.Errorf("seamless: %d of %d images are not seamless", failed, len(results))
	}
	return nil
}

func checkSeamless(path string, opts seamless.Options, preview bool) seamlessResult {
	res := seamlessResult{File: path}
	buf, err := image.Load(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if res.Report, err = seamless.Check(buf, opts); err != nil {
		res.Error = err.Error()
		return res
	}
	if preview {
		shifted, err := seamless.OffsetPreview(buf)
		if err == nil {
			out := strings.TrimSuffix(path, filepath.Ext(path)) + "_offset.png"
			err = image.Save(out, shifted, image.SaveOptions{})
			res.Preview = out
		}
		if err != nil {
			res.Error = err.Error()
		}
	}
	return res
}

func verdict(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

// SplitFlags configure the sprite sheet splitter.
func SplitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "rows", Usage: "grid rows"},
		&cli.IntFlag{Name: "cols", Usage: "grid columns"},
		&cli.IntFlag{Name: "padding", Usage: "pixels between cells"},
		&cli.IntFlag{Name: "margin", Usage: "pixels around the sheet"},
		&cli.BoolFlag{Name: "trim", Usage: "crop tiles to their visible pixels"},
		&cli.BoolFlag{Name: "keep-empty", Usage: "also write fully transparent tiles"},
		&cli.FloatFlag{Name: "scale", Usage: "nearest-neighbor scale factor for the tiles"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output folder (default: <sheet>_tiles next to the sheet)"},
	}
}

// SplitAction cuts a sprite sheet into tiles.
func SplitAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if cmd.NArg() != 1 {
		return fmt.Errorf("split: expected one sprite sheet")
	}
	sheet := cmd.Args().First()

	spc := app.Config.Sprite
	grid := sprite.Grid{Rows: spc.Rows, Cols: spc.Cols, Padding: spc.Padding, Margin: spc.Margin}
	opts := sprite.Options{Trim: spc.Trim, SkipEmpty: spc.SkipEmpty, Scale: spc.Scale}
	for name, dst := range map[string]*int{"rows": &grid.Rows, "cols": &grid.Cols, "padding": &grid.Padding, "margin": &grid.Margin} {
		if cmd.IsSet(name) {
			*dst = cmd.Int(name)
		}
	}
	if cmd.IsSet("trim") {
		opts.Trim = cmd.Bool("trim")
	}
	if cmd.IsSet("keep-empty") {
		opts.SkipEmpty = !cmd.Bool("keep-empty")
	}
	if cmd.IsSet("scale") {
		opts.Scale = cmd.Float("scale")
	}

	buf, err := image.Load(sheet)
	if err != nil {
		return err
	}
	tiles, err := sprite.Split(buf, grid, opts)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(sheet), filepath.Ext(sheet))
	dir := cmd.String("output")
	if dir == "" {
		dir = filepath.Join(filepath.Dir(sheet), base+"_tiles")
	}
	paths, err := sprite.SaveTiles(dir, base, grid, tiles)
	if err != nil {
		return err
	}
	app.Logger.Info("split: done", "sheet", sheet, "tiles", len(paths), "dir", dir)
	fmt.Fprintln(app.Out, tui.Success(fmt.Sprintf("%d tiles written to %s", len(paths), dir)))
	return nil
}
