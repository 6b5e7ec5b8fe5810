package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/aistudio/studio/internal/prompt"
	"github.com/aistudio/studio/internal/tui"
)

// PromptsFlags are shared by the prompts commands.
func PromptsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "dir", Usage: "template folder (default: prompts.dir from config)"},
		&cli.StringSliceFlag{Name: "var", Usage: "template variable key=value, repeatable"},
	}
}

func promptLibrary(app *AppContext, cmd *cli.Command) (*prompt.Library, error) {
	dir := app.Config.Prompts.Dir
	if cmd.IsSet("dir") {
		dir = cmd.String("dir")
	}
	return prompt.Load(dir)
}

// clipboard returns the system clipboard, or an in-memory one with a
// warning when no clipboard tool is installed.
func clipboard(app *AppContext) prompt.Clipboard {
	sys := prompt.SystemClipboard{}
	if sys.Available() {
		return sys
	}
	app.Logger.Warn("prompts: no system clipboard found, copies stay inside the session")
	return &prompt.MemoryClipboard{}
}

// PromptsListAction prints the template library.
func PromptsListAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	lib, err := promptLibrary(app, cmd)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(app.Out)
	table.Header("Name", "Role", "Title", "Defaults")
	for _, name := range lib.Names() {
		t, _ := lib.Get(name)
		_ = table.Append(name, t.Role, t.Title, strings.Join(slices.Sorted(maps.Keys(t.Vars)), ", "))
	}
	return table.Render()
}

// PromptsRenderFlags configure a single render.
func PromptsRenderFlags() []cli.Flag {
	return append(PromptsFlags(), &cli.BoolFlag{Name: "copy", Usage: "also copy the result to the clipboard"})
}

// PromptsRenderAction renders one template: studio prompts render <name>.
func PromptsRenderAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if cmd.NArg() != 1 {
		return fmt.Errorf("prompts render: expected <template>")
	}
	vars, err := parseVars(cmd.StringSlice("var"))
	if err != nil {
		return err
	}
	lib, err := promptLibrary(app, cmd)
	if err != nil {
		return err
	}
	t, err := lib.Get(cmd.Args().First())
	if err != nil {
		return err
	}
	text, err := t.Render(vars)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, text)
	if cmd.Bool("copy") {
		if err := clipboard(app).WriteAll(text); err != nil {
			return fmt.Errorf("prompts: copy: %w", err)
		}
	}
	return nil
}

// PromptsRunFlags configure the sequencer.
func PromptsRunFlags() []cli.Flag {
	return append(PromptsFlags(), &cli.BoolFlag{Name: "print", Usage: "print every step instead of opening the sequencer"})
}

// PromptsRunAction walks a sequence file: studio prompts run <sequence>.
func PromptsRunAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if cmd.NArg() != 1 {
		return fmt.Errorf("prompts run: expected <sequence file>")
	}
	vars, err := parseVars(cmd.StringSlice("var"))
	if err != nil {
		return err
	}
	lib, err := promptLibrary(app, cmd)
	if err != nil {
		return err
	}
	seq, err := prompt.LoadSequence(cmd.Args().First())
	if err != nil {
		return err
	}
	steps, err := seq.Render(lib, vars)
	if err != nil {
		return err
	}

	if cmd.Bool("print") {
		for _, st := range steps {
			fmt.Fprintf(app.Out, "## %d/%d %s\n", st.Index, len(steps), st.Template)
			if st.Note != "" {
				fmt.Fprintf(app.Out, "> %s\n", st.Note)
			}
			fmt.Fprintf(app.Out, "\n%s\n\n", st.Text)
		}
		return nil
	}
	clip := clipboard(app)
	defer detachLogger()()
	return tui.RunSequencer(ctx, seq.Name, steps, clip)
}
