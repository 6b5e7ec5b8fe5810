package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/aistudio/studio/internal/config"
	"github.com/aistudio/studio/internal/tui"
)

// ConfigShowFlags choose the output format.
func ConfigShowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Usage: "yaml or json", Value: "yaml"},
	}
}

// ConfigShowAction prints the effective configuration.
func ConfigShowAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if app.Config.Source != "" {
		fmt.Fprintf(app.Out, "# %s\n", app.Config.Source)
	} else {
		fmt.Fprintln(app.Out, "# built-in defaults")
	}
	return config.Encode(app.Out, app.Config, cmd.String("format"))
}

// ConfigInitFlags configure config init.
func ConfigInitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
	}
}

// ConfigInitAction writes the default configuration: studio config init
// [path].
func ConfigInitAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("config init: %s already exists (use --force)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg := config.Default()
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintln(stdout(cmd), tui.Success("wrote "+path))
	return nil
}
