package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/aistudio/studio"
	"github.com/aistudio/studio/internal/batch"
	"github.com/aistudio/studio/internal/cleanup"
	"github.com/aistudio/studio/internal/config"
	"github.com/aistudio/studio/internal/jobcard"
	"github.com/aistudio/studio/internal/launcher"
	"github.com/aistudio/studio/internal/logging"
	"github.com/aistudio/studio/internal/tui"
)

// AppContext holds what every command needs: the loaded configuration,
// the logger and the output streams.
type AppContext struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

// NewAppContext loads configuration and installs the logger. Command-line
// log flags override the config file.
func NewAppContext(cmd *cli.Command) (*AppContext, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: cmd.String("config"),
		EnvFile:    cmd.String("env"),
	})
	if err != nil {
		return nil, err
	}

	levelName := cfg.Log.Level
	if cmd.IsSet("log-level") {
		levelName = cmd.String("log-level")
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	format := cfg.Log.Format
	if cmd.IsSet("log-format") {
		format = cmd.String("log-format")
	}

	app := &AppContext{Config: cfg, Out: stdout(cmd), Err: stderr(cmd)}
	app.Logger = logging.NewWithWriter(app.Err, logging.Config{Level: level, Format: format})
	if cfg.Source != "" {
		app.Logger.Debug("config loaded", "path", cfg.Source)
	}
	return app, nil
}

// detachLogger silences logging while a full-screen UI owns the terminal.
// The returned func puts the previous loggers back.
func detachLogger() (restore func()) {
	prev, prevDefault := studio.Logger(), slog.Default()
	studio.SetLogger(nil)
	slog.SetDefault(slog.New(slog.DiscardHandler))
	return func() {
		studio.SetLogger(prev)
		slog.SetDefault(prevDefault)
	}
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

// GlobalFlags are accepted by every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default: $STUDIO_CONFIG, ./studio.yaml or $XDG_CONFIG_HOME/studio/studio.yaml)",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "environment file loaded before the config",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "text or json",
		},
	}
}

// batchFlags are shared by the folder commands. An empty defaultSuffix
// falls back to batch.suffix from config.
func batchFlags(defaultSuffix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output folder (default: next to each input)"},
		&cli.StringFlag{Name: "suffix", Usage: "output file name suffix", Value: defaultSuffix},
		&cli.StringFlag{Name: "ext", Usage: "output extension (.png, .jpg, .bmp, .tif)"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "parallel workers (0 = one per CPU)"},
		&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "descend into sub-folders"},
		&cli.BoolFlag{Name: "overwrite", Usage: "replace existing outputs"},
		&cli.IntFlag{Name: "quality", Usage: "JPEG quality", Value: 92},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "print only the summary"},
	}
}

// batchOptions merges config defaults with flags for the input argument.
func batchOptions(app *AppContext, cmd *cli.Command) (batch.Options, error) {
	if cmd.NArg() != 1 {
		return batch.Options{}, fmt.Errorf("expected one input folder or file, got %d arguments", cmd.NArg())
	}
	bc := app.Config.Batch
	opts := batch.Options{
		Input:      cmd.Args().First(),
		Output:     cmd.String("output"),
		Suffix:     bc.Suffix,
		Extension:  bc.Extension,
		Workers:    bc.Workers,
		Recursive:  bc.Recursive || cmd.Bool("recursive"),
		Overwrite:  bc.Overwrite || cmd.Bool("overwrite"),
		IgnoreFile: bc.IgnoreFile,
	}
	if s := cmd.String("suffix"); s != "" {
		opts.Suffix = s
	}
	if cmd.IsSet("ext") {
		opts.Extension = cmd.String("ext")
	}
	if cmd.IsSet("workers") {
		opts.Workers = cmd.Int("workers")
	}
	opts.Save.Quality = cmd.Int("quality")
	return opts, nil
}

// runBatch runs proc over opts, printing a progress line per file and a
// summary. Cancelling ctx stops the runner; files not started count as
// skipped.
func runBatch(ctx context.Context, app *AppContext, cmd *cli.Command, title string, proc batch.Processor, opts batch.Options) error {
	runner := batch.NewRunner(proc)
	if !cmd.Bool("quiet") {
		runner.OnProgress(func(done, total int, r batch.Result) {
			fmt.Fprintln(app.Out, tui.ProgressLine(done, total, r))
		})
	}
	stop := context.AfterFunc(ctx, runner.Stop)
	defer stop()

	rep, err := runner.Run(ctx, opts)
	if rep != nil {
		fmt.Fprintln(app.Out, tui.Summary(title, rep))
	}
	if err != nil {
		return err
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%s: %d of %d files failed", title, rep.Failed, rep.Total)
	}
	return nil
}

// cleanupRegistry returns the built-in presets plus those from config.
// A config preset starts from the preset it extends (default: soft) and
// overrides the fields it sets.
func cleanupRegistry(cfg *config.Config) (*cleanup.Registry, error) {
	reg := cleanup.NewRegistry()
	user := cfg.Cleanup.Presets
	resolving := map[string]bool{}

	var resolve func(name string) (cleanup.Params, error)
	resolve = func(name string) (cleanup.Params, error) {
		name = strings.ToLower(name)
		p, ok := user[name]
		if !ok {
			return reg.Lookup(name)
		}
		if resolving[name] {
			return cleanup.Params{}, fmt.Errorf("cleanup preset %q: extends cycle", name)
		}
		resolving[name] = true
		defer delete(resolving, name)

		base := cleanup.DefaultParams()
		switch ext := strings.ToLower(p.Extends); {
		case ext == name:
			b, err := cleanup.Preset(ext)
			if err != nil {
				return cleanup.Params{}, fmt.Errorf("cleanup preset %q: %w", name, err)
			}
			base = b
		case ext != "":
			b, err := resolve(ext)
			if err != nil {
				return cleanup.Params{}, fmt.Errorf("cleanup preset %q: %w", name, err)
			}
			base = b
		}
		return applyPreset(base, p)
	}

	for _, name := range slices.Sorted(maps.Keys(user)) {
		params, err := resolve(name)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(name, params); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func applyPreset(p cleanup.Params, c config.CleanupPreset) (cleanup.Params, error) {
	if c.Matte != nil {
		rgb, err := cleanup.ParseColor(*c.Matte)
		if err != nil {
			return p, err
		}
		p.Matte = rgb
	}
	if c.Unmatte != nil {
		p.Unmatte = *c.Unmatte
	}
	if c.SmoothRadius != nil {
		p.SmoothRadius = *c.SmoothRadius
	}
	if c.FeatherRadius != nil {
		p.FeatherRadius = *c.FeatherRadius
	}
	if c.Contrast != nil {
		p.Contrast = *c.Contrast
	}
	if c.EdgeShift != nil {
		p.EdgeShift = *c.EdgeShift
	}
	if c.FringeBand != nil {
		p.FringeBand = *c.FringeBand
	}
	if c.FringeStrength != nil {
		p.FringeStrength = *c.FringeStrength
	}
	if c.AlphaThreshold != nil {
		p.AlphaThreshold = *c.AlphaThreshold
	}
	return p, nil
}

// launcherPresets converts config presets, sorted by name.
func launcherPresets(cfg *config.Config) ([]launcher.Preset, error) {
	names := slices.Sorted(maps.Keys(cfg.Launcher.Presets))
	out := make([]launcher.Preset, 0, len(names))
	for _, name := range names {
		p := cfg.Launcher.Presets[name]
		env, err := launcher.ParseEnv(p.Env)
		if err != nil {
			return nil, fmt.Errorf("launcher preset %q: %w", name, err)
		}
		out = append(out, launcher.Preset{Name: name, Command: p.Command, Args: p.Args, Dir: p.Dir, Env: env})
	}
	return out, nil
}

// jobBoard opens the board at --root or the configured root.
func jobBoard(app *AppContext, cmd *cli.Command) *jobcard.Board {
	root := app.Config.Jobs.Root
	if cmd.IsSet("root") {
		root = cmd.String("root")
	}
	return jobcard.NewBoard(root, app.Config.Jobs.Roles)
}

// parseVars reads repeated --var key=value flags.
func parseVars(entries []string) (map[string]string, error) {
	vars := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--var %q: want key=value", e)
		}
		vars[strings.TrimSpace(k)] = v
	}
	return vars, nil
}
