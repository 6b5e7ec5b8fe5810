package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aistudio/studio/internal/jobcard"
)

// cardItem adapts a card to bubbles/list.Item.
type cardItem struct {
	card jobcard.Card
}

func (i cardItem) Title() string       { return i.card.Title }
func (i cardItem) Description() string { return i.card.Role }
func (i cardItem) FilterValue() string { return i.card.Title }

// cardDelegate renders a card on one line: marker, priority, title, role.
type cardDelegate struct {
	focused *bool
}

func (d cardDelegate) Height() int                         { return 1 }
func (d cardDelegate) Spacing() int                        { return 0 }
func (d cardDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d cardDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(cardItem)
	if !ok {
		return
	}
	line := fmt.Sprintf("%s %s %s", priorityMark(it.card.Priority), it.card.Title, mutedStyle.Render(it.card.Role))
	prefix := "  "
	if index == m.Index() && d.focused != nil && *d.focused {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+line)
}

func priorityMark(p jobcard.Priority) string {
	switch p {
	case jobcard.PriorityUrgent:
		return errorStyle.Render("!!")
	case jobcard.PriorityHigh:
		return pendingStyle.Render("! ")
	case jobcard.PriorityLow:
		return mutedStyle.Render("· ")
	default:
		return "  "
	}
}

type column struct {
	status  jobcard.Status
	list    list.Model
	focused *bool
}

type boardKeys struct {
	left, right, forward, back, reload, quit key.Binding
}

var boardKeyMap = boardKeys{
	left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "column")),
	right:   key.NewBinding(key.WithKeys("right", "l")),
	forward: key.NewBinding(key.WithKeys("]"), key.WithHelp("]/[", "move card")),
	back:    key.NewBinding(key.WithKeys("[")),
	reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Messages produced by board commands.
type (
	cardsLoadedMsg struct {
		cards    []jobcard.Card
		problems []error
		err      error
	}
	cardMovedMsg struct {
		card jobcard.Card
		err  error
	}
)

// BoardModel shows job cards in one column per status.
type BoardModel struct {
	board   *jobcard.Board
	filter  jobcard.Filter
	columns []column
	focus   int

	width, height int
	message       string
	problems      []error
	err           error
	selectID      string
}

// NewBoardModel builds the board view. Cards are loaded by Init.
func NewBoardModel(board *jobcard.Board, filter jobcard.Filter) BoardModel {
	m := BoardModel{board: board, filter: filter}
	for _, st := range jobcard.Statuses() {
		focused := new(bool)
		l := list.New(nil, cardDelegate{focused: focused}, 0, 0)
		l.SetShowHelp(false)
		l.SetShowStatusBar(false)
		l.SetShowPagination(true)
		l.SetFilteringEnabled(false)
		l.DisableQuitKeybindings()
		l.Styles.Title = titleStyle
		l.Styles.TitleBar = lipgloss.NewStyle()
		m.columns = append(m.columns, column{status: st, list: l, focused: focused})
	}
	*m.columns[0].focused = true
	m.resize(80, 24)
	return m
}

// Init loads the cards.
func (m BoardModel) Init() tea.Cmd { return m.load() }

func (m BoardModel) load() tea.Cmd {
	board, filter := m.board, m.filter
	return func() tea.Msg {
		cards, problems, err := board.List(filter)
		return cardsLoadedMsg{cards: cards, problems: problems, err: err}
	}
}

func (m BoardModel) move(card jobcard.Card, to jobcard.Status) tea.Cmd {
	board := m.board
	return func() tea.Msg {
		moved, err := board.Move(card.ID, to)
		return cardMovedMsg{card: moved, err: err}
	}
}

// Update implements tea.Model.
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case cardsLoadedMsg:
		m.err = msg.err
		m.problems = msg.problems
		if msg.err == nil {
			m.setCards(msg.cards)
		}
		return m, nil

	case cardMovedMsg:
		if msg.err != nil {
			m.message = errorStyle.Render(msg.err.Error())
			return m, nil
		}
		m.message = successStyle.Render(fmt.Sprintf("moved %q to %s", msg.card.Title, msg.card.Status))
		m.selectID = msg.card.ID
		m.setFocus(m.columnIndex(msg.card.Status))
		return m, m.load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, boardKeyMap.quit):
			return m, tea.Quit
		case key.Matches(msg, boardKeyMap.left):
			m.setFocus(m.focus - 1)
			return m, nil
		case key.Matches(msg, boardKeyMap.right):
			m.setFocus(m.focus + 1)
			return m, nil
		case key.Matches(msg, boardKeyMap.reload):
			m.message = ""
			return m, m.load()
		case key.Matches(msg, boardKeyMap.forward), key.Matches(msg, boardKeyMap.back):
			card, ok := m.Selected()
			if !ok {
				return m, nil
			}
			to := card.Status.Next()
			if key.Matches(msg, boardKeyMap.back) {
				to = card.Status.Prev()
			}
			if to == card.Status {
				return m, nil
			}
			return m, m.move(card, to)
		}
	}

	var cmd tea.Cmd
	col := &m.columns[m.focus]
	col.list, cmd = col.list.Update(msg)
	return m, cmd
}

// Selected returns the highlighted card in the focused column.
func (m BoardModel) Selected() (jobcard.Card, bool) {
	it, ok := m.columns[m.focus].list.SelectedItem().(cardItem)
	return it.card, ok
}

// Focused returns the status of the focused column.
func (m BoardModel) Focused() jobcard.Status { return m.columns[m.focus].status }

// Count returns the number of cards shown in a column.
func (m BoardModel) Count(s jobcard.Status) int {
	if i := m.columnIndex(s); i >= 0 {
		return len(m.columns[i].list.Items())
	}
	return 0
}

func (m *BoardModel) setCards(cards []jobcard.Card) {
	byStatus := make(map[jobcard.Status][]list.Item)
	for _, c := range cards {
		byStatus[c.Status] = append(byStatus[c.Status], cardItem{card: c})
	}
	for i := range m.columns {
		col := &m.columns[i]
		items := byStatus[col.status]
		col.list.SetItems(items)
		col.list.Title = fmt.Sprintf("%s (%d)", Heading(string(col.status)), len(items))
		if m.selectID == "" {
			continue
		}
		for j, it := range items {
			if it.(cardItem).card.ID == m.selectID {
				col.list.Select(j)
			}
		}
	}
	m.selectID = ""
}

func (m *BoardModel) setFocus(i int) {
	if i < 0 || i >= len(m.columns) {
		return
	}
	*m.columns[m.focus].focused = false
	m.focus = i
	*m.columns[m.focus].focused = true
}

func (m BoardModel) columnIndex(s jobcard.Status) int {
	for i, c := range m.columns {
		if c.status == s {
			return i
		}
	}
	return -1
}

func (m *BoardModel) resize(w, h int) {
	m.width, m.height = w, h
	colWidth := max(w/len(m.columns)-4, 12)
	colHeight := max(h-6, 3)
	for i := range m.columns {
		m.columns[i].list.SetSize(colWidth, colHeight)
	}
}

// View implements tea.Model.
func (m BoardModel) View() string {
	header := titleStyle.Render("Job board") + "  " + mutedStyle.Render(m.board.Root())
	if m.filter.Role != "" {
		header += "  " + accentStyle.Render("role: "+m.filter.Role)
	}

	if m.err != nil {
		return header + "\n\n" + errorStyle.Render(m.err.Error()) + "\n"
	}

	cols := make([]string, 0, len(m.columns))
	for i, c := range m.columns {
		style := columnStyle
		if i == m.focus {
			style = focusedColumnStyle
		}
		cols = append(cols, style.Render(c.list.View()))
	}

	var footer []string
	if len(m.problems) > 0 {
		footer = append(footer, pendingStyle.Render(fmt.Sprintf("%d unreadable card file(s), first: %v", len(m.problems), m.problems[0])))
	}
	if m.message != "" {
		footer = append(footer, m.message)
	}
	footer = append(footer, helpStyle.Render("←/→ column • ↑/↓ select • ]/[ move card • r reload • q quit"))

	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, cols...) + "\n" + strings.Join(footer, "\n")
}

// RunBoard runs the job board until the user quits or ctx is done.
func RunBoard(ctx context.Context, board *jobcard.Board, filter jobcard.Filter) error {
	p := tea.NewProgram(NewBoardModel(board, filter), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
