// Package tui renders suite progress as an interactive terminal UI:
// scenarios appear as they run, failures can be selected and copied to
// the clipboard. Used by `comptest test --tui`.
package tui

import (
	"fmt"
	"strings"

	"comptest/internal/scenario"
	"comptest/pkg/logging"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLogLines bounds the log tail kept for display.
const maxLogLines = 5

// eventMsg wraps one runner progress event.
type eventMsg struct {
	event scenario.Event
}

// eventsClosedMsg signals the reporter channel was closed.
type eventsClosedMsg struct{}

// logMsg wraps one log entry from the logging channel.
type logMsg struct {
	entry logging.LogEntry
}

// logsClosedMsg signals the log channel was closed.
type logsClosedMsg struct{}

// line is one scenario row in the list.
type line struct {
	name    string
	fixture string
	running bool
	result  *scenario.ScenarioResult
}

// Model is the bubbletea model for a suite run.
type Model struct {
	spinner  spinner.Model
	events   <-chan scenario.Event
	logs     <-chan logging.LogEntry
	lines    []line
	logLines []string
	index    map[string]int
	total    int
	suite    *scenario.SuiteResult
	selected int
	width    int
	height   int
	copied   bool
	quitting bool
}

// New creates a model consuming progress events from a ChannelReporter
// and log entries from logging.InitForTUI. logs may be nil.
func New(events <-chan scenario.Event, logs <-chan logging.LogEntry) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		spinner: sp,
		events:  events,
		logs:    logs,
		index:   map[string]int{},
		width:   80,
		height:  24,
	}
}

// Init starts the spinner and the event pumps.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForEvent(m.events)}
	if m.logs != nil {
		cmds = append(cmds, waitForLog(m.logs))
	}
	return tea.Batch(cmds...)
}

func waitForEvent(events <-chan scenario.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func waitForLog(logs <-chan logging.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-logs
		if !ok {
			return logsClosedMsg{}
		}
		return logMsg{entry: entry}
	}
}

// Update handles key input, window resizes and runner events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.applyEvent(msg.event)
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		if m.suite == nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case logMsg:
		m.appendLog(msg.entry)
		return m, waitForLog(m.logs)

	case logsClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) appendLog(entry logging.LogEntry) {
	line := fmt.Sprintf("%s %s: %s", entry.Level, entry.Subsystem, entry.Message)
	if entry.Err != nil {
		line += ": " + entry.Err.Error()
	}
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

func (m *Model) applyEvent(ev scenario.Event) {
	switch ev.Kind {
	case "start":
		m.total = ev.Total
	case "scenario_start":
		m.index[ev.Scenario.Name] = len(m.lines)
		m.lines = append(m.lines, line{
			name:    ev.Scenario.Name,
			fixture: ev.Scenario.Fixture,
			running: true,
		})
	case "scenario_result":
		if ev.Result == nil {
			return
		}
		if i, ok := m.index[ev.Result.Scenario.Name]; ok {
			m.lines[i].running = false
			m.lines[i].result = ev.Result
		}
	case "suite_result":
		m.suite = ev.Suite
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
			m.copied = false
		}
	case "down", "j":
		if m.selected < len(m.lines)-1 {
			m.selected++
			m.copied = false
		}
	case "y":
		if detail := m.selectedFailure(); detail != "" {
			if err := clipboard.WriteAll(detail); err == nil {
				m.copied = true
			}
		}
	}
	return m, nil
}

// selectedFailure returns a copyable description of the selected
// scenario's failure, or empty when it passed or is still running.
func (m Model) selectedFailure() string {
	if m.selected >= len(m.lines) {
		return ""
	}
	l := m.lines[m.selected]
	if l.result == nil || l.result.Result == scenario.ResultPassed {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\nfixture: %s\nresult: %s\n", l.name, l.fixture, l.result.Result)
	if l.result.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", l.result.Error)
	}
	for i, sr := range l.result.StepResults {
		fmt.Fprintf(&b, "step %d (%s): %s", i+1, sr.Step.Action, sr.Result)
		if sr.Error != "" {
			fmt.Fprintf(&b, ": %s", sr.Error)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Done reports whether the suite finished.
func (m Model) Done() bool {
	return m.suite != nil
}

// Suite returns the final result, or nil while running.
func (m Model) Suite() *scenario.SuiteResult {
	return m.suite
}
