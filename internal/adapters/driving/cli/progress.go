package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/skema-cli/internal/core/services"
)

// runOutcome is what the orchestrator goroutine hands back to the
// progress view when the run ends.
type runOutcome struct {
	summary *services.RunSummary
	err     error
}

// tickMsg drives status polling.
type tickMsg time.Time

// doneMsg carries the final outcome into the model.
type doneMsg runOutcome

var progressLabelStyle = lipgloss.NewStyle().Faint(true)

// progressModel renders a live progress bar for an active run. It
// polls the orchestrator snapshot rather than receiving per-file
// events, so the display can never slow the workers down.
type progressModel struct {
	status  func() services.RunStatus
	done    <-chan runOutcome
	bar     progress.Model
	current services.RunStatus
	outcome *runOutcome
}

func newProgressModel(status func() services.RunStatus, done <-chan runOutcome) progressModel {
	return progressModel{
		status: status,
		done:   done,
		bar:    progress.New(progress.WithDefaultGradient()),
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(tick(), waitDone(m.done))
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitDone(done <-chan runOutcome) tea.Cmd {
	return func() tea.Msg {
		return doneMsg(<-done)
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.current = m.status()
		return m, tick()
	case doneMsg:
		outcome := runOutcome(msg)
		m.outcome = &outcome
		m.current = m.status()
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 20
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	s := m.current
	if s.Total == 0 {
		return progressLabelStyle.Render("Scanning manifest...") + "\n"
	}
	ratio := float64(s.Completed) / float64(s.Total)
	counts := fmt.Sprintf(" %d/%d", s.Completed, s.Total)
	return m.bar.ViewAs(ratio) + counts + "\n"
}

// runWithProgress executes run() while rendering a progress bar, and
// returns its outcome once it finishes.
func runWithProgress(status func() services.RunStatus, run func() (*services.RunSummary, error)) (*services.RunSummary, error) {
	done := make(chan runOutcome, 1)
	go func() {
		summary, err := run()
		done <- runOutcome{summary: summary, err: err}
	}()

	p := tea.NewProgram(newProgressModel(status, done))
	final, err := p.Run()
	if err != nil {
		// Rendering failed; the run itself still finishes.
		outcome := <-done
		return outcome.summary, outcome.err
	}

	m := final.(progressModel)
	if m.outcome == nil {
		// Interrupted before the run completed; wait it out.
		outcome := <-done
		return outcome.summary, outcome.err
	}
	return m.outcome.summary, m.outcome.err
}

// runPlain executes run() with carriage-return progress lines, for
// non-interactive output.
func runPlain(w interface{ Printf(string, ...any) }, status func() services.RunStatus, run func() (*services.RunSummary, error)) (*services.RunSummary, error) {
	done := make(chan runOutcome, 1)
	go func() {
		summary, err := run()
		done <- runOutcome{summary: summary, err: err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case outcome := <-done:
			if last >= 0 {
				w.Printf("\n")
			}
			return outcome.summary, outcome.err
		case <-ticker.C:
			s := status()
			if s.Total > 0 && s.Completed > last {
				w.Printf("\rProcessing... %d/%d", s.Completed, s.Total)
				last = s.Completed
			}
		}
	}
}
