package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/regionsync/pkg/progress"
)

const barWidth = 32

// =============================================================================
// ProgressModel - Live progress of a layout operation
// =============================================================================

type progressMsg float64

type doneMsg struct{ err error }

// ProgressModel is the bubbletea model showing the progress of one layout
// operation. Pressing q or ctrl+c asks the operation to stop; the model
// quits once the operation has returned.
type ProgressModel struct {
	Label    string
	Fraction float64
	Stopping bool
	Err      error

	updates <-chan float64
	stop    func()
}

// NewProgressModel creates a model fed by updates. stop is called at most
// once, when the user cancels.
func NewProgressModel(label string, updates <-chan float64, stop func()) ProgressModel {
	return ProgressModel{Label: label, updates: updates, stop: stop}
}

func (m ProgressModel) Init() tea.Cmd {
	return waitForProgress(m.updates)
}

func waitForProgress(updates <-chan float64) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-updates
		if !ok {
			return nil
		}
		return progressMsg(f)
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.Stopping && m.stop != nil {
				m.stop()
			}
			m.Stopping = true
		}
	case progressMsg:
		if f := float64(msg); f > m.Fraction {
			m.Fraction = min(f, 1)
		}
		return m, waitForProgress(m.updates)
	case doneMsg:
		m.Err = msg.err
		if msg.err == nil {
			m.Fraction = 1
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	filled := int(m.Fraction * barWidth)
	bar := StyleHighlight.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", barWidth-filled))

	status := fmt.Sprintf("%3d%%", int(m.Fraction*100))
	if m.Stopping {
		status = StyleWarning.Render("stopping")
	}
	return fmt.Sprintf("%s %s %s %s\n",
		styleIconProgress.Render(iconInfo), m.Label, bar, StyleDim.Render(status))
}

// =============================================================================
// Runner
// =============================================================================

// withProgress runs fn with a progress monitor. On a terminal the progress is
// drawn with a ProgressModel and q or ctrl+c stops the operation; otherwise
// progress is logged at debug level.
func withProgress(logger *log.Logger, label string, fn func(progress.Monitor) error) error {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return fn(progress.LogMonitor{Logger: logger})
	}

	updates := make(chan float64, 16)
	stopCh := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(stopCh) }) }

	p := tea.NewProgram(NewProgressModel(label, updates, stop), tea.WithOutput(os.Stderr))

	errc := make(chan error, 1)
	go func() {
		err := fn(progress.ChanMonitor{C: updates, Stop: stopCh})
		p.Send(doneMsg{err: err})
		errc <- err
	}()

	if _, err := p.Run(); err != nil {
		stop()
		logger.Debug("progress display failed", "err", err)
	}
	return <-errc
}
