// Package tui is the interactive browse view: a text box feeding a search
// orchestrator and a live result list.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lookup-erp/lookup/pkg/search"
)

// Searcher is the part of search.Orchestrator the view drives.
type Searcher[T any] interface {
	SetSearchTerm(term string)
	ClearSearch()
	State() search.State[T]
	Close()
}

// StateMsg carries an orchestrator snapshot into the program.
type StateMsg[T any] struct {
	State search.State[T]
}

// KeyMap lists the view's bindings.
type KeyMap struct {
	Clear key.Binding
	Quit  key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Clear, k.Quit} }

func (k KeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	itemStyle   = lipgloss.NewStyle().PaddingLeft(2)
)

// Model is the browse view for result type T.
type Model[T any] struct {
	Title  string
	KeyMap KeyMap

	searcher Searcher[T]
	render   func(T) string
	input    textinput.Model
	help     help.Model
	state    search.State[T]
	height   int
}

// NewModel creates a focused browse view. render formats one result line.
func NewModel[T any](title string, s Searcher[T], render func(T) string) *Model[T] {
	in := textinput.New()
	in.Placeholder = "type to search"
	in.Prompt = "> "
	in.Focus()

	return &Model[T]{
		Title:    title,
		KeyMap:   DefaultKeyMap(),
		searcher: s,
		render:   render,
		input:    in,
		help:     help.New(),
		state:    s.State(),
	}
}

func (m *Model[T]) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg[T]:
		// Snapshots are delivered from other goroutines and may arrive out of order.
		if msg.State.Version > m.state.Version {
			m.state = msg.State
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 0)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.KeyMap.Quit):
			m.searcher.Close()
			return m, tea.Quit
		case key.Matches(msg, m.KeyMap.Clear):
			m.input.SetValue("")
			m.searcher.ClearSearch()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.searcher.SetSearchTerm(after)
	}
	return m, cmd
}

func (m *Model[T]) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n\n")

	results := m.state.Results
	if limit := m.listHeight(); limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for _, item := range results {
		b.WriteString(itemStyle.Render(m.render(item)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.KeyMap))
	return b.String()
}

func (m *Model[T]) status() string {
	s := m.state
	switch {
	case s.SearchError != nil:
		return errorStyle.Render("error: " + s.SearchError.Error())
	case s.IsSearching:
		return statusStyle.Render("searching…")
	case s.Phase == search.PhaseSettled:
		line := fmt.Sprintf("%d results for %q", len(s.Results), s.Query)
		if s.FromCache {
			line += " (cached)"
		}
		return statusStyle.Render(line)
	default:
		return statusStyle.Render("")
	}
}

// listHeight is the number of result rows that fit, or 0 when unknown.
func (m *Model[T]) listHeight() int {
	if m.height == 0 {
		return 0
	}
	// title, blank, input, status, blank, blank, help
	return max(m.height-7, 1)
}

// State returns the snapshot the view is showing.
func (m *Model[T]) State() search.State[T] {
	return m.state
}
