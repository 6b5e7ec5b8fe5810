package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/aistudio/studio/internal/jobcard"
	"github.com/aistudio/studio/internal/tui"
)

func rootFlag() cli.Flag {
	return &cli.StringFlag{Name: "root", Usage: "job board folder (default: jobs.root from config)"}
}

// JobsFlags lists the flags of the jobs command group.
func JobsFlags() []cli.Flag { return []cli.Flag{rootFlag()} }

// JobsInitAction creates the status folders.
func JobsInitAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	board := jobBoard(app, cmd)
	if err := board.Init(); err != nil {
		return err
	}
	fmt.Fprintln(app.Out, tui.Success("job board ready at "+board.Root()))
	return nil
}

// JobsNewFlags configure a new card.
func JobsNewFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "role", Usage: "role the card is routed to", Required: true},
		&cli.StringFlag{Name: "title", Usage: "card title (default: the arguments)"},
		&cli.StringFlag{Name: "priority", Usage: "low, normal, high or urgent", Value: "normal"},
		&cli.StringFlag{Name: "status", Usage: "initial status", Value: string(jobcard.StatusInbox)},
		&cli.StringFlag{Name: "notes", Usage: "free-form notes"},
		&cli.StringSliceFlag{Name: "tag", Usage: "tag, repeatable"},
	}
}

// JobsNewAction creates a card.
func JobsNewAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	title := cmd.String("title")
	if title == "" {
		title = strings.Join(cmd.Args().Slice(), " ")
	}
	priority, err := jobcard.ParsePriority(cmd.String("priority"))
	if err != nil {
		return err
	}
	status, err := jobcard.ParseStatus(cmd.String("status"))
	if err != nil {
		return err
	}

	board := jobBoard(app, cmd)
	card, err := board.Create(jobcard.Card{
		Role:     strings.ToLower(cmd.String("role")),
		Title:    title,
		Priority: priority,
		Status:   status,
		Notes:    cmd.String("notes"),
		Tags:     cmd.StringSlice("tag"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, card.ID)
	return nil
}

// JobsListFlags filter the listing.
func JobsListFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "status", Usage: "only this status"},
		&cli.StringFlag{Name: "role", Usage: "only this role"},
		&cli.StringFlag{Name: "tag", Usage: "only cards with this tag"},
		&cli.BoolFlag{Name: "json", Usage: "print cards as JSON"},
	}
}

func jobFilter(cmd *cli.Command) (jobcard.Filter, error) {
	f := jobcard.Filter{Role: cmd.String("role"), Tag: cmd.String("tag")}
	if s := cmd.String("status"); s != "" {
		st, err := jobcard.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	return f, nil
}

// JobsListAction prints cards sorted by priority and age.
func JobsListAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	filter, err := jobFilter(cmd)
	if err != nil {
		return err
	}
	cards, problems, err := jobBoard(app, cmd).List(filter)
	if err != nil {
		return err
	}
	for _, p := range problems {
		app.Logger.Warn("jobs: unreadable card", "err", p)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		if cards == nil {
			cards = []jobcard.Card{}
		}
		return enc.Encode(cards)
	}

	table := tablewriter.NewWriter(app.Out)
	table.Header("ID", "Status", "Priority", "Role", "Title", "Updated")
	for _, c := range cards {
		_ = table.Append(c.ShortID(), tui.Heading(string(c.Status)), string(c.Priority), c.Role, c.Title,
			c.Updated.Local().Format("2006-01-02 15:04"))
	}
	return table.Render()
}

// JobsMoveAction moves a card: studio jobs move <id> <status>.
func JobsMoveAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if cmd.NArg() != 2 {
		return fmt.Errorf("jobs move: expected <id> <status>")
	}
	status, err := jobcard.ParseStatus(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	card, err := jobBoard(app, cmd).Move(cmd.Args().First(), status)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, tui.Success(fmt.Sprintf("%s %q is now %s", card.ShortID(), card.Title, card.Status)))
	return nil
}

// JobsShowAction prints one card as JSON.
func JobsShowAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if cmd.NArg() != 1 {
		return fmt.Errorf("jobs show: expected <id>")
	}
	card, err := jobBoard(app, cmd).Get(cmd.Args().First())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(card)
}

// JobsDeleteAction removes a card.
func JobsDeleteAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	if cmd.NArg() != 1 {
		return fmt.Errorf("jobs delete: expected <id>")
	}
	if err := jobBoard(app, cmd).Delete(cmd.Args().First()); err != nil {
		return err
	}
	fmt.Fprintln(app.Out, tui.Success("deleted "+cmd.Args().First()))
	return nil
}

// JobsBoardAction opens the interactive board.
func JobsBoardAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	board := jobBoard(app, cmd)
	if err := board.Init(); err != nil {
		return err
	}
	defer detachLogger()()
	return tui.RunBoard(ctx, board, jobcard.Filter{Role: cmd.String("role")})
}
