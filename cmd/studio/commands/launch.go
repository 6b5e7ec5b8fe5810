package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/aistudio/studio/internal/launcher"
)

func newLauncher(app *AppContext, opts ...launcher.Option) (*launcher.Launcher, error) {
	presets, err := launcherPresets(app.Config)
	if err != nil {
		return nil, err
	}
	return launcher.New(presets, opts...)
}

// LaunchListAction prints the configured presets.
func LaunchListAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	l, err := newLauncher(app)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(app.Out)
	table.Header("Name", "Command", "Args", "Dir")
	for _, name := range l.Names() {
		p, _ := l.Preset(name)
		_ = table.Append(name, p.Command, strings.Join(p.Args, " "), p.Dir)
	}
	return table.Render()
}

// LaunchRunFlags configure a launch.
func LaunchRunFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "attach", Usage: "pass the program's output straight to this terminal instead of the log"},
	}
}

// LaunchRunAction starts a preset and waits for it: studio launch run
// <name> [-- extra args].
func LaunchRunAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if cmd.NArg() < 1 {
		return fmt.Errorf("launch run: expected <preset>")
	}
	var opts []launcher.Option
	if cmd.Bool("attach") {
		opts = append(opts, launcher.WithOutput(app.Out, app.Err))
	}
	l, err := newLauncher(app, opts...)
	if err != nil {
		return err
	}
	args := cmd.Args().Slice()
	return l.Run(ctx, args[0], args[1:]...)
}
