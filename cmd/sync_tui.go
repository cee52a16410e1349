package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"workshop-sync/logger"
	"workshop-sync/ui"
	"workshop-sync/workshop"
)

// syncProgressMsg carries one engine progress event into the TUI loop.
type syncProgressMsg workshop.Progress

// syncDoneMsg terminates the TUI once the engine run finished.
type syncDoneMsg struct {
	result workshop.Result
	failed []int64
	err    error
}

// syncModel controls the UI for the sync command.
type syncModel struct {
	spinner      spinner.Model
	progressChan chan tea.Msg
	install      bool

	status    string
	completed []string
	errors    []string
	summary   string
	done      bool
}

func initialSyncModel(install bool) syncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return syncModel{
		spinner:      s,
		progressChan: make(chan tea.Msg, 100),
		install:      install,
		status:       "Initializing...",
	}
}

func (m syncModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startSync(),
		m.waitForActivity(),
	)
}

func (m syncModel) startSync() tea.Cmd {
	return func() tea.Msg {
		go func() {
			defer close(m.progressChan)

			_, engine := bootstrap(".")
			engine.SetProgress(func(p workshop.Progress) {
				m.progressChan <- syncProgressMsg(p)
			})

			res, err := engine.Reconcile()
			var failed []int64
			if err == nil && m.install && len(res.NewIDs) > 0 {
				failed = engine.InstallPending(res.NewIDs, 0, 0)
			}
			m.progressChan <- syncDoneMsg{result: res, failed: failed, err: err}
		}()
		return nil
	}
}

func (m syncModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.progressChan
		if !ok {
			return syncDoneMsg{}
		}
		return msg
	}
}

func (m syncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.done {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case syncProgressMsg:
		switch msg.Type {
		case "plan":
			m.status = msg.Message
		case "deleted":
			m.completed = append(m.completed, fmt.Sprintf("Deleted %d", msg.SteamID))
		case "saved":
			m.completed = append(m.completed, fmt.Sprintf("Saved %s", msg.Name))
		case "download":
			m.status = fmt.Sprintf("Downloading %s...", msg.Name)
		case "skipped":
			m.errors = append(m.errors, fmt.Sprintf("%d: no remote data", msg.SteamID))
		case "failed":
			m.errors = append(m.errors, fmt.Sprintf("%s: %s", msg.Name, msg.Message))
		}
		return m, m.waitForActivity()

	case syncDoneMsg:
		m.done = true
		m.status = "Finished"
		if msg.err != nil {
			m.summary = ui.ErrStyle.Render(fmt.Sprintf("Sync aborted: %v", msg.err))
		} else {
			m.summary = fmt.Sprintf("Deleted %d, updated %d, inserted %d, freed %s",
				msg.result.Deleted, msg.result.Updated, msg.result.Inserted,
				ui.FormatSize(msg.result.FreedBytes))
			if len(msg.failed) > 0 {
				m.summary += ui.ErrStyle.Render(fmt.Sprintf(" (%d downloads failed)", len(msg.failed)))
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m syncModel) View() string {
	var symbol string
	if m.done {
		symbol = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
	} else {
		symbol = m.spinner.View()
	}

	s := fmt.Sprintf("\n %s %s\n\n", symbol, m.status)

	if len(m.errors) > 0 {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("Errors:") + "\n"
		for _, e := range m.errors {
			s += fmt.Sprintf("  • %s\n", e)
		}
		s += "\n"
	}

	if len(m.completed) > 0 {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("Completed:") + "\n"
		start := 0
		if len(m.completed) > 5 && !m.done {
			start = len(m.completed) - 5
		}
		for i := start; i < len(m.completed); i++ {
			s += fmt.Sprintf("  • %s\n", m.completed[i])
		}
		s += "\n"
	}

	if m.done {
		s += lipgloss.NewStyle().Bold(true).Render(m.summary) + "\n"
	}

	return s
}

func runSyncTUI(install bool) {
	p := tea.NewProgram(initialSyncModel(install))
	if _, err := p.Run(); err != nil {
		logger.Log.Fatalw("TUI failed", zap.Error(err))
	}
}
