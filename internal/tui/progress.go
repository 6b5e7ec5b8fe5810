package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aistudio/studio/internal/batch"
)

const defaultBarWidth = 28

// Bar renders a text progress bar: [████░░░░] 3/8.
func Bar(done, total, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}
	filled := 0
	if total > 0 {
		filled = min(done*width/total, width)
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}

// ProgressLine describes one finished batch item, for printing after each
// result without taking over the screen.
func ProgressLine(done, total int, r batch.Result) string {
	var mark string
	switch r.Status {
	case batch.StatusOK:
		mark = successStyle.Render("ok  ")
	case batch.StatusSkipped:
		mark = pendingStyle.Render("skip")
	default:
		mark = errorStyle.Render("fail")
	}
	line := fmt.Sprintf("%s %s %s %s", accentStyle.Render(Bar(done, total, 0)), mark, r.Input,
		mutedStyle.Render(r.Duration.Round(time.Millisecond).String()))
	if r.Err != nil && r.Status != batch.StatusOK {
		line += " " + mutedStyle.Render(r.Err.Error())
	}
	return line
}

// Summary renders the totals of a batch report in a panel.
func Summary(title string, rep *batch.Report) string {
	lines := []string{
		titleStyle.Render(title),
		fmt.Sprintf("%s %d  %s %d  %s %d  %s %d",
			successStyle.Render("✔"), rep.Succeeded,
			pendingStyle.Render("•"), rep.Skipped,
			errorStyle.Render("✖"), rep.Failed,
			accentStyle.Render("Total"), rep.Total),
		mutedStyle.Render("elapsed " + rep.Elapsed.Round(time.Millisecond).String()),
	}
	return Panel(strings.Join(lines, "\n"))
}
