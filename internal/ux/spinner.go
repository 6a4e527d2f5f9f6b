package ux

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
)

// Spin runs fn while a spinner with title animates on w. When w is not a
// terminal fn runs without any output.
func Spin(w io.Writer, styles Styles, title string, fn func() error) error {
	if !IsTerminal(w) {
		return fn()
	}

	p := tea.NewProgram(newSpinModel(styles, title),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
		p.Send(spinDoneMsg{})
	}()

	_, _ = p.Run()
	return <-errCh
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

type spinDoneMsg struct{}

type spinModel struct {
	spinner spinner.Model
	title   string
	done    bool
}

func newSpinModel(styles Styles, title string) spinModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Label))
	return spinModel{spinner: s, title: title}
}

func (m spinModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(spinDoneMsg); ok {
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title
}
