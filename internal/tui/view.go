package tui

import (
	"fmt"
	"strings"

	"comptest/internal/scenario"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
	detailStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)
)

// View renders the scenario list, the selected scenario's detail and a
// status footer.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	for i, l := range m.lines {
		b.WriteString(m.renderLine(i, l))
		b.WriteByte('\n')
	}

	if detail := m.renderDetail(); detail != "" {
		b.WriteString("\n")
		b.WriteString(detail)
		b.WriteString("\n")
	}

	if logs := m.renderLogs(); logs != "" {
		b.WriteString("\n")
		b.WriteString(logs)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderLogs shows the tail of the harness log stream below the detail
// pane.
func (m Model) renderLogs() string {
	if len(m.logLines) == 0 {
		return ""
	}
	var lines []string
	for _, l := range m.logLines {
		lines = append(lines, truncate(l, m.width-2))
	}
	return dimStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderHeader() string {
	if m.suite != nil {
		summary := fmt.Sprintf("comptest: %d passed, %d failed, %d errors",
			m.suite.Passed, m.suite.Failed, m.suite.Errors)
		if m.suite.Success() {
			return passStyle.Render(summary)
		}
		return failStyle.Render(summary)
	}
	return titleStyle.Render(fmt.Sprintf("comptest %s running %d scenarios", m.spinner.View(), m.total))
}

func (m Model) renderLine(i int, l line) string {
	var marker, name string
	switch {
	case l.running:
		marker = runningStyle.Render(m.spinner.View())
	case l.result != nil && l.result.Result == scenario.ResultPassed:
		marker = passStyle.Render("✓")
	default:
		marker = failStyle.Render("✗")
	}

	label := fmt.Sprintf("%s  %s", l.name, dimStyle.Render("("+l.fixture+")"))
	name = truncate(label, m.width-6)
	if i == m.selected {
		name = selectedStyle.Render("› " + name)
	} else {
		name = "  " + name
	}
	return fmt.Sprintf(" %s %s", marker, name)
}

func (m Model) renderDetail() string {
	detail := m.selectedFailure()
	if detail == "" {
		return ""
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(detail, "\n"), "\n") {
		lines = append(lines, truncate(l, width))
	}
	return detailStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	help := "↑/↓ select · y copy failure · q quit"
	if m.copied {
		help = "copied to clipboard · " + help
	}
	return dimStyle.Render(help)
}

// truncate cuts s to the given display width, accounting for wide runes.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
