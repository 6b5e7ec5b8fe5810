package tui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aistudio/studio/internal/batch"
	"github.com/aistudio/studio/internal/jobcard"
	"github.com/aistudio/studio/internal/prompt"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// drive feeds msg to m and then runs the returned commands until none is
// left, the way the bubbletea runtime would for synchronous commands.
func drive(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	for range 10 {
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		if cmd == nil {
			return m
		}
		msg = cmd()
		if msg == nil {
			return m
		}
		if _, quit := msg.(tea.QuitMsg); quit {
			return m
		}
	}
	t.Fatal("command chain did not settle")
	return m
}

func newTestBoard(t *testing.T) *jobcard.Board {
	t.Helper()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := jobcard.NewBoard(t.TempDir(), nil, jobcard.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	require.NoError(t, b.Init())
	for _, c := range []jobcard.Card{
		{Role: "writer", Title: "A", Priority: jobcard.PriorityUrgent},
		{Role: "artist", Title: "B"},
		{Role: "writer", Title: "C", Status: jobcard.StatusTodo},
	} {
		_, err := b.Create(c)
		require.NoError(t, err)
	}
	return b
}

func loadedBoard(t *testing.T, b *jobcard.Board) BoardModel {
	t.Helper()
	m := NewBoardModel(b, jobcard.Filter{})
	return drive(t, m, m.Init()()).(BoardModel)
}

func TestBoardLoadsColumns(t *testing.T) {
	m := loadedBoard(t, newTestBoard(t))

	assert.Equal(t, 2, m.Count(jobcard.StatusInbox))
	assert.Equal(t, 1, m.Count(jobcard.StatusTodo))
	assert.Equal(t, 0, m.Count(jobcard.StatusDone))
	assert.Equal(t, jobcard.StatusInbox, m.Focused())

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "A", sel.Title, "urgent card sorts first")

	view := m.View()
	assert.Contains(t, view, "Inbox (2)")
	assert.Contains(t, view, "Todo (1)")
	assert.Contains(t, view, "B")
}

func TestBoardNavigation(t *testing.T) {
	m := loadedBoard(t, newTestBoard(t))

	m = drive(t, m, keyMsg("down")).(BoardModel)
	sel, _ := m.Selected()
	assert.Equal(t, "B", sel.Title)

	m = drive(t, m, keyMsg("left")).(BoardModel)
	assert.Equal(t, jobcard.StatusInbox, m.Focused(), "left edge stays put")

	m = drive(t, m, keyMsg("right")).(BoardModel)
	assert.Equal(t, jobcard.StatusTodo, m.Focused())
	sel, _ = m.Selected()
	assert.Equal(t, "C", sel.Title)

	for range 10 {
		m = drive(t, m, keyMsg("right")).(BoardModel)
	}
	assert.Equal(t, jobcard.StatusDone, m.Focused())
	_, ok := m.Selected()
	assert.False(t, ok, "done column is empty")

	m = drive(t, m, keyMsg("]")).(BoardModel)
	assert.Equal(t, jobcard.StatusDone, m.Focused(), "nothing to move")
}

func TestBoardMovesCards(t *testing.T) {
	b := newTestBoard(t)
	m := loadedBoard(t, b)
	m = drive(t, m, keyMsg("down")).(BoardModel)

	m = drive(t, m, keyMsg("]")).(BoardModel)
	assert.Equal(t, jobcard.StatusTodo, m.Focused(), "focus follows the card")
	assert.Equal(t, 1, m.Count(jobcard.StatusInbox))
	assert.Equal(t, 2, m.Count(jobcard.StatusTodo))
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "B", sel.Title)
	assert.Equal(t, jobcard.StatusTodo, sel.Status)
	assert.Contains(t, m.View(), "moved")

	_, err := os.Stat(filepath.Join(b.Root(), "todo", sel.ID+".json"))
	assert.NoError(t, err)

	m = drive(t, m, keyMsg("[")).(BoardModel)
	assert.Equal(t, jobcard.StatusInbox, m.Focused())
	assert.Equal(t, 2, m.Count(jobcard.StatusInbox))

	m = drive(t, m, keyMsg("up")).(BoardModel)
	m = drive(t, m, keyMsg("[")).(BoardModel)
	assert.Equal(t, 2, m.Count(jobcard.StatusInbox), "inbox has no previous column")
}

func TestBoardReloadPicksUpExternalChanges(t *testing.T) {
	b := newTestBoard(t)
	m := loadedBoard(t, b)

	_, err := b.Create(jobcard.Card{Role: "editor", Title: "D", Status: jobcard.StatusDone})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Count(jobcard.StatusDone))

	m = drive(t, m, keyMsg("r")).(BoardModel)
	assert.Equal(t, 1, m.Count(jobcard.StatusDone))
}

func TestBoardReportsProblems(t *testing.T) {
	b := newTestBoard(t)
	require.NoError(t, os.WriteFile(filepath.Join(b.Root(), "inbox", "broken.json"), []byte("{"), 0o644))

	m := loadedBoard(t, b)
	assert.Equal(t, 2, m.Count(jobcard.StatusInbox))
	assert.Contains(t, m.View(), "1 unreadable card file")
}

func TestBoardQuit(t *testing.T) {
	m := loadedBoard(t, newTestBoard(t))
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

type failingClipboard struct{}

func (failingClipboard) WriteAll(string) error    { return errors.New("no display") }
func (failingClipboard) ReadAll() (string, error) { return "", nil }

func testSteps() []prompt.Rendered {
	return []prompt.Rendered{
		{Index: 1, Template: "outline", Text: "first prompt", Note: "start here"},
		{Index: 2, Template: "caption", Text: "second prompt"},
		{Index: 3, Template: "review", Text: "third prompt"},
	}
}

func TestSequencerSteps(t *testing.T) {
	clip := &prompt.MemoryClipboard{}
	var m tea.Model = NewSequencerModel("story", testSteps(), clip)

	assert.Contains(t, m.View(), "step 1/3")
	assert.Contains(t, m.View(), "start here")

	m = drive(t, m, keyMsg("c"))
	text, err := clip.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "first prompt", text)
	assert.True(t, m.(SequencerModel).Copied(0))
	assert.Contains(t, m.View(), "step 1 copied")

	m = drive(t, m, keyMsg("n"))
	m = drive(t, m, keyMsg("n"))
	m = drive(t, m, keyMsg("n"))
	assert.Equal(t, 2, m.(SequencerModel).Index(), "stops at the last step")
	assert.Contains(t, m.View(), "third prompt")

	m = drive(t, m, keyMsg("p"))
	assert.Equal(t, 1, m.(SequencerModel).Index())

	m = drive(t, m, keyMsg("c"))
	text, _ = clip.ReadAll()
	assert.Equal(t, "second prompt", text)
	assert.False(t, m.(SequencerModel).Copied(2))
}

func TestSequencerCopyFailure(t *testing.T) {
	var m tea.Model = NewSequencerModel("s", testSteps(), failingClipboard{})
	m = drive(t, m, keyMsg("c"))
	assert.Contains(t, m.View(), "copy failed: no display")
	assert.False(t, m.(SequencerModel).Copied(0))
}

func TestSequencerEmpty(t *testing.T) {
	var m tea.Model = NewSequencerModel("empty", nil, &prompt.MemoryClipboard{})
	m = drive(t, m, keyMsg("c"))
	m = drive(t, m, keyMsg("n"))
	assert.Contains(t, m.View(), "sequence has no steps")
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[███░░░] 3/6", Bar(3, 6, 6))
	assert.Equal(t, "[░░░░] 0/0", Bar(0, 0, 4))
	assert.Equal(t, "[████] 9/5", Bar(9, 5, 4))
}

func TestProgressLine(t *testing.T) {
	line := ProgressLine(2, 4, batch.Result{Input: "in/a.png", Status: batch.StatusFailed, Err: errors.New("bad header")})
	assert.Contains(t, line, "2/4")
	assert.Contains(t, line, "fail")
	assert.Contains(t, line, "in/a.png")
	assert.Contains(t, line, "bad header")

	line = ProgressLine(4, 4, batch.Result{Input: "in/b.png", Status: batch.StatusOK, Duration: 12 * time.Millisecond})
	assert.Contains(t, line, "ok")
	assert.Contains(t, line, "12ms")
}

func TestSummary(t *testing.T) {
	out := Summary("clean", &batch.Report{Total: 5, Succeeded: 3, Failed: 1, Skipped: 1})
	assert.Contains(t, out, "clean")
	assert.Contains(t, out, "Total 5")
}

func TestHeading(t *testing.T) {
	assert.Equal(t, "Inbox", Heading("inbox"))
	assert.Equal(t, "Concept Artist", Heading("concept artist"))
}
