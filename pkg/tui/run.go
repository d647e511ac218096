package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lookup-erp/lookup/pkg/search"
)

// Run builds an orchestrator wired to a new program and runs the browse view
// until the user quits. build receives the OnChange callback to install.
func Run[T any](title string, render func(T) string, build func(onChange func(search.State[T])) *search.Orchestrator[T]) error {
	var p *tea.Program
	orch := build(func(s search.State[T]) {
		// Send blocks until the event loop reads it, and the loop may be
		// the caller of SetSearchTerm.
		go p.Send(StateMsg[T]{State: s})
	})
	defer orch.Close()

	p = tea.NewProgram(NewModel[T](title, orch, render), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
