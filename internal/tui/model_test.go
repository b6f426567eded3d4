package tui

import (
	"testing"
	"time"

	"comptest/internal/scenario"
	"comptest/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passResult(name string) *scenario.ScenarioResult {
	return &scenario.ScenarioResult{
		Scenario: scenario.Scenario{Name: name, Fixture: "counter"},
		Result:   scenario.ResultPassed,
		Duration: 5 * time.Millisecond,
	}
}

func failResult(name, errMsg string) *scenario.ScenarioResult {
	return &scenario.ScenarioResult{
		Scenario: scenario.Scenario{Name: name, Fixture: "counter"},
		Result:   scenario.ResultFailed,
		Error:    errMsg,
	}
}

func apply(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		var ok bool
		m, ok = updated.(Model)
		require.True(t, ok)
	}
	return m
}

func TestModelTracksScenarioProgress(t *testing.T) {
	events := make(chan scenario.Event, 8)
	m := New(events, nil)

	m = apply(t, m,
		eventMsg{event: scenario.Event{Kind: "start", Total: 2}},
		eventMsg{event: scenario.Event{Kind: "scenario_start", Scenario: scenario.Scenario{Name: "one", Fixture: "counter"}}},
	)
	require.Len(t, m.lines, 1)
	assert.True(t, m.lines[0].running)

	m = apply(t, m, eventMsg{event: scenario.Event{Kind: "scenario_result", Result: passResult("one")}})
	assert.False(t, m.lines[0].running)
	require.NotNil(t, m.lines[0].result)
	assert.Equal(t, scenario.ResultPassed, m.lines[0].result.Result)
	assert.False(t, m.Done())

	suite := &scenario.SuiteResult{TotalScenarios: 2, Passed: 2}
	m = apply(t, m, eventMsg{event: scenario.Event{Kind: "suite_result", Suite: suite}})
	assert.True(t, m.Done())
	assert.Same(t, suite, m.Suite())
}

func TestModelSelectionAndFailureDetail(t *testing.T) {
	events := make(chan scenario.Event, 8)
	m := New(events, nil)

	m = apply(t, m,
		eventMsg{event: scenario.Event{Kind: "scenario_start", Scenario: scenario.Scenario{Name: "good", Fixture: "counter"}}},
		eventMsg{event: scenario.Event{Kind: "scenario_result", Result: passResult("good")}},
		eventMsg{event: scenario.Event{Kind: "scenario_start", Scenario: scenario.Scenario{Name: "bad", Fixture: "counter"}}},
		eventMsg{event: scenario.Event{Kind: "scenario_result", Result: failResult("bad", "store mismatch")}},
	)

	// Passed scenario selected: nothing to copy.
	assert.Empty(t, m.selectedFailure())

	m = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	detail := m.selectedFailure()
	assert.Contains(t, detail, "bad")
	assert.Contains(t, detail, "store mismatch")

	view := m.View()
	assert.Contains(t, view, "good")
	assert.Contains(t, view, "bad")
}

func TestModelShowsLogTail(t *testing.T) {
	events := make(chan scenario.Event, 1)
	logs := make(chan logging.LogEntry, 8)
	m := New(events, logs)

	m = apply(t, m,
		logMsg{entry: logging.LogEntry{Level: logging.LevelWarn, Subsystem: "Scenario", Message: "slow settle"}},
		logMsg{entry: logging.LogEntry{Level: logging.LevelInfo, Subsystem: "Harness", Message: "mounted counter"}},
	)
	require.Len(t, m.logLines, 2)

	view := m.View()
	assert.Contains(t, view, "slow settle")
	assert.Contains(t, view, "mounted counter")

	// The tail is bounded.
	for i := 0; i < maxLogLines+3; i++ {
		m = apply(t, m, logMsg{entry: logging.LogEntry{Level: logging.LevelDebug, Subsystem: "Scenario", Message: "tick"}})
	}
	assert.Len(t, m.logLines, maxLogLines)
	assert.NotContains(t, m.View(), "slow settle")
}

func TestModelQuitKeys(t *testing.T) {
	events := make(chan scenario.Event)
	m := New(events, nil)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.True(t, updated.(Model).quitting)
}

func TestModelQuitsWhenChannelClosesEarly(t *testing.T) {
	events := make(chan scenario.Event)
	m := New(events, nil)

	updated, cmd := m.Update(eventsClosedMsg{})
	require.NotNil(t, cmd, "closing before the suite result must quit")
	assert.True(t, updated.(Model).quitting)
}
