package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aistudio/studio/internal/prompt"
)

type sequencerKeys struct {
	copy, next, prev, quit key.Binding
}

var sequencerKeyMap = sequencerKeys{
	copy: key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "copy")),
	next: key.NewBinding(key.WithKeys("n", "right", "tab"), key.WithHelp("n", "next")),
	prev: key.NewBinding(key.WithKeys("p", "left", "shift+tab"), key.WithHelp("p", "previous")),
	quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type copiedMsg struct {
	index int
	err   error
}

// SequencerModel steps through rendered prompts and copies each one to the
// clipboard on request.
type SequencerModel struct {
	name     string
	steps    []prompt.Rendered
	index    int
	clip     prompt.Clipboard
	copied   map[int]bool
	message  string
	viewport viewport.Model
	bar      progress.Model
}

// NewSequencerModel builds the sequencer view over already rendered steps.
func NewSequencerModel(name string, steps []prompt.Rendered, clip prompt.Clipboard) SequencerModel {
	m := SequencerModel{
		name:     name,
		steps:    steps,
		clip:     clip,
		copied:   map[int]bool{},
		viewport: viewport.New(80, 16),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
	m.show()
	return m
}

// Init implements tea.Model.
func (m SequencerModel) Init() tea.Cmd { return nil }

func (m SequencerModel) copyStep() tea.Cmd {
	clip, index, text := m.clip, m.index, m.steps[m.index].Text
	return func() tea.Msg {
		return copiedMsg{index: index, err: clip.WriteAll(text)}
	}
}

// Update implements tea.Model.
func (m SequencerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-8, 3)
		m.bar.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.message = errorStyle.Render("copy failed: " + msg.err.Error())
			return m, nil
		}
		m.copied[msg.index] = true
		m.message = successStyle.Render(fmt.Sprintf("step %d copied", msg.index+1))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, sequencerKeyMap.quit):
			return m, tea.Quit
		case key.Matches(msg, sequencerKeyMap.copy):
			if len(m.steps) == 0 {
				return m, nil
			}
			return m, m.copyStep()
		case key.Matches(msg, sequencerKeyMap.next):
			m.step(1)
			return m, nil
		case key.Matches(msg, sequencerKeyMap.prev):
			m.step(-1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *SequencerModel) step(delta int) {
	i := m.index + delta
	if i < 0 || i >= len(m.steps) {
		return
	}
	m.index = i
	m.message = ""
	m.show()
}

func (m *SequencerModel) show() {
	if len(m.steps) == 0 {
		m.viewport.SetContent(mutedStyle.Render("sequence has no steps"))
		return
	}
	m.viewport.SetContent(m.steps[m.index].Text)
	m.viewport.GotoTop()
}

// Index is the zero-based current step.
func (m SequencerModel) Index() int { return m.index }

// Copied reports whether step i was copied during this session.
func (m SequencerModel) Copied(i int) bool { return m.copied[i] }

// View implements tea.Model.
func (m SequencerModel) View() string {
	total := len(m.steps)
	header := titleStyle.Render(m.name)
	if total > 0 {
		st := m.steps[m.index]
		header += fmt.Sprintf("  %s %s", accentStyle.Render(fmt.Sprintf("step %d/%d", m.index+1, total)), st.Template)
		if m.copied[m.index] {
			header += " " + successStyle.Render("✔")
		}
		if st.Note != "" {
			header += "\n" + mutedStyle.Render(st.Note)
		}
	}

	done := 0
	for i := range m.steps {
		if m.copied[i] {
			done++
		}
	}
	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}

	out := header + "\n" + Panel(m.viewport.View()) + "\n" + m.bar.ViewAs(percent) + "\n"
	if m.message != "" {
		out += m.message + "\n"
	}
	return out + helpStyle.Render("c copy • n/p next/previous • ↑/↓ scroll • q quit")
}

// RunSequencer walks the steps interactively.
func RunSequencer(ctx context.Context, name string, steps []prompt.Rendered, clip prompt.Clipboard) error {
	p := tea.NewProgram(NewSequencerModel(name, steps, clip), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
