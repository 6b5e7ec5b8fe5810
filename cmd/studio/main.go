// Command studio bundles the AI studio tools: image cleanup and checks,
// sprite splitting, job cards, prompt templates and model launchers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/aistudio/studio/cmd/studio/commands"
	"github.com/aistudio/studio/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, tui.Failure(err.Error()))
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "studio",
		Usage: "toolbox for an AI content studio",
		Flags: commands.GlobalFlags(),
		Commands: []*cli.Command{
			{
				Name:      "clean",
				Usage:     "remove background fringes and halos from cutouts",
				ArgsUsage: "<folder|image>",
				Flags:     commands.CleanFlags(),
				Action:    commands.CleanAction,
			},
			{
				Name:      "resize",
				Usage:     "scale every image in a folder",
				ArgsUsage: "<folder|image>",
				Flags:     commands.ResizeFlags(),
				Action:    commands.ResizeAction,
			},
			{
				Name:      "seamless",
				Usage:     "check whether textures tile without visible seams",
				ArgsUsage: "<image>...",
				Flags:     commands.SeamlessFlags(),
				Action:    commands.SeamlessAction,
			},
			{
				Name:      "split",
				Usage:     "cut a sprite sheet into tiles",
				ArgsUsage: "<sheet>",
				Flags:     commands.SplitFlags(),
				Action:    commands.SplitAction,
			},
			{
				Name:  "jobs",
				Usage: "job cards routed to role folders",
				Flags: commands.JobsFlags(),
				Commands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "create the status folders",
						Action: commands.JobsInitAction,
					},
					{
						Name:      "new",
						Usage:     "create a card",
						ArgsUsage: "[title words]",
						Flags:     commands.JobsNewFlags(),
						Action:    commands.JobsNewAction,
					},
					{
						Name:   "list",
						Usage:  "list cards",
						Flags:  commands.JobsListFlags(),
						Action: commands.JobsListAction,
					},
					{
						Name:      "move",
						Usage:     "move a card to another status",
						ArgsUsage: "<id> <status>",
						Action:    commands.JobsMoveAction,
					},
					{
						Name:      "show",
						Usage:     "print a card",
						ArgsUsage: "<id>",
						Action:    commands.JobsShowAction,
					},
					{
						Name:      "delete",
						Usage:     "delete a card",
						ArgsUsage: "<id>",
						Action:    commands.JobsDeleteAction,
					},
					{
						Name:  "board",
						Usage: "interactive board",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "role", Usage: "only this role"},
						},
						Action: commands.JobsBoardAction,
					},
				},
			},
			{
				Name:  "prompts",
				Usage: "prompt templates and sequences",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list templates",
						Flags:  commands.PromptsFlags(),
						Action: commands.PromptsListAction,
					},
					{
						Name:      "render",
						Usage:     "render one template",
						ArgsUsage: "<template>",
						Flags:     commands.PromptsRenderFlags(),
						Action:    commands.PromptsRenderAction,
					},
					{
						Name:      "run",
						Usage:     "step through a prompt sequence",
						ArgsUsage: "<sequence file>",
						Flags:     commands.PromptsRunFlags(),
						Action:    commands.PromptsRunAction,
					},
				},
			},
			{
				Name:  "launch",
				Usage: "start local model front-ends",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list launch presets",
						Action: commands.LaunchListAction,
					},
					{
						Name:      "run",
						Usage:     "run a preset until it exits",
						ArgsUsage: "<preset> [-- args]",
						Flags:     commands.LaunchRunFlags(),
						Action:    commands.LaunchRunAction,
					},
				},
			},
			{
				Name:  "config",
				Usage: "inspect and create the config file",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "print the effective configuration",
						Flags:  commands.ConfigShowFlags(),
						Action: commands.ConfigShowAction,
					},
					{
						Name:      "init",
						Usage:     "write the default configuration",
						ArgsUsage: "[path]",
						Flags:     commands.ConfigInitFlags(),
						Action:    commands.ConfigInitAction,
					},
				},
			},
		},
	}
}
