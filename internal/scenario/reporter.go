package scenario

import (
	"fmt"
	"io"
	"strings"
)

// Reporter receives suite progress. Implementations must be safe to call
// sequentially from the runner goroutine.
type Reporter interface {
	ReportStart(config Config, total int)
	ReportScenarioStart(s Scenario)
	ReportStepResult(s Scenario, step StepResult)
	ReportScenarioResult(result ScenarioResult)
	ReportSuiteResult(result SuiteResult)
}

// NopReporter discards all progress.
type NopReporter struct{}

func (NopReporter) ReportStart(Config, int)                {}
func (NopReporter) ReportScenarioStart(Scenario)           {}
func (NopReporter) ReportStepResult(Scenario, StepResult)  {}
func (NopReporter) ReportScenarioResult(ScenarioResult)    {}
func (NopReporter) ReportSuiteResult(SuiteResult)          {}

// ConsoleReporter writes human-readable progress to an io.Writer.
type ConsoleReporter struct {
	out     io.Writer
	verbose bool
}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter(out io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: out, verbose: verbose}
}

// ReportStart is called once before any scenario runs.
func (r *ConsoleReporter) ReportStart(config Config, total int) {
	fmt.Fprintf(r.out, "🧪 comptest: running %d scenarios\n", total)
	if r.verbose {
		fmt.Fprintf(r.out, "   • scenario filter: %s\n", stringOrDefault(config.Scenario, "all"))
		fmt.Fprintf(r.out, "   • tag filter: %s\n", stringOrDefault(config.Tag, "all"))
		fmt.Fprintf(r.out, "   • fail fast: %t\n", config.FailFast)
		if config.ConfigPath != "" {
			fmt.Fprintf(r.out, "   • extra scenarios: %s\n", config.ConfigPath)
		}
		fmt.Fprintln(r.out)
	}
}

// ReportScenarioStart is called when a scenario begins.
func (r *ConsoleReporter) ReportScenarioStart(s Scenario) {
	if r.verbose {
		fmt.Fprintf(r.out, "🎯 %s (fixture: %s)\n", s.Name, s.Fixture)
		if s.Description != "" {
			fmt.Fprintf(r.out, "   %s\n", s.Description)
		}
	} else {
		fmt.Fprintf(r.out, "🎯 %s... ", s.Name)
	}
}

// ReportStepResult is called after each step.
func (r *ConsoleReporter) ReportStepResult(s Scenario, step StepResult) {
	if !r.verbose {
		return
	}
	fmt.Fprintf(r.out, "   %s %s (%v)\n", symbol(step.Result), describeStep(step.Step), step.Duration)
	if step.Error != "" {
		fmt.Fprintf(r.out, "     ↳ %s\n", step.Error)
	}
}

// ReportScenarioResult is called after a scenario completes.
func (r *ConsoleReporter) ReportScenarioResult(result ScenarioResult) {
	if r.verbose {
		fmt.Fprintf(r.out, "   %s %s (%v)\n\n", symbol(result.Result), result.Result, result.Duration)
		return
	}
	fmt.Fprintf(r.out, "%s\n", symbol(result.Result))
	if result.Error != "" {
		fmt.Fprintf(r.out, "   ↳ %s\n", result.Error)
	}
}

// ReportSuiteResult is called once at the end.
func (r *ConsoleReporter) ReportSuiteResult(result SuiteResult) {
	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("─", 48))
	fmt.Fprintf(r.out, "Total: %d  Passed: %d  Failed: %d  Errors: %d  (%v)\n",
		result.TotalScenarios, result.Passed, result.Failed, result.Errors,
		result.EndTime.Sub(result.StartTime).Round(1e6))
	if result.Success() {
		fmt.Fprintln(r.out, "✅ suite passed")
	} else {
		fmt.Fprintln(r.out, "❌ suite failed")
	}
}

func symbol(r Result) string {
	switch r {
	case ResultPassed:
		return "✅"
	case ResultFailed:
		return "❌"
	case ResultSkipped:
		return "⏭️"
	default:
		return "💥"
	}
}

func stringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Event is one progress notification for channel-based consumers (the
// watch TUI).
type Event struct {
	Kind     string // start | scenario_start | scenario_result | suite_result
	Total    int
	Scenario Scenario
	Result   *ScenarioResult
	Suite    *SuiteResult
}

// ChannelReporter forwards progress into a channel.
type ChannelReporter struct {
	ch chan Event
}

// NewChannelReporter creates a reporter with a buffered event channel.
func NewChannelReporter(buffer int) *ChannelReporter {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelReporter{ch: make(chan Event, buffer)}
}

// Events returns the channel consumers receive on.
func (r *ChannelReporter) Events() <-chan Event {
	return r.ch
}

// Close closes the event channel. Call after the run finished.
func (r *ChannelReporter) Close() {
	close(r.ch)
}

func (r *ChannelReporter) ReportStart(config Config, total int) {
	r.ch <- Event{Kind: "start", Total: total}
}

func (r *ChannelReporter) ReportScenarioStart(s Scenario) {
	r.ch <- Event{Kind: "scenario_start", Scenario: s}
}

func (r *ChannelReporter) ReportStepResult(Scenario, StepResult) {}

func (r *ChannelReporter) ReportScenarioResult(result ScenarioResult) {
	r.ch <- Event{Kind: "scenario_result", Result: &result}
}

func (r *ChannelReporter) ReportSuiteResult(result SuiteResult) {
	r.ch <- Event{Kind: "suite_result", Suite: &result}
}
