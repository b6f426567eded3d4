// Package scenario provides the YAML-driven scenario suite on top of the
// harness: named component fixtures, a loader for scenario definitions, a
// sequential runner with per-scenario isolation and pluggable reporters,
// and an MCP server mode exposing the suite to agent tooling.
package scenario

import "time"

// Result represents the outcome of a scenario or step.
type Result string

const (
	// ResultPassed indicates the scenario passed.
	ResultPassed Result = "PASSED"
	// ResultFailed indicates an expectation was not met.
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the scenario was filtered out.
	ResultSkipped Result = "SKIPPED"
	// ResultError indicates the harness failed before expectations ran
	// (parse error, wire error, missing module mock).
	ResultError Result = "ERROR"
)

// Config defines a suite run.
type Config struct {
	// Scenario filters execution to a single named scenario.
	Scenario string `yaml:"scenario,omitempty"`
	// Tag filters execution to scenarios carrying the tag.
	Tag string `yaml:"tag,omitempty"`
	// ConfigPath points at a directory of additional scenario YAML files.
	ConfigPath string `yaml:"config_path,omitempty"`
	// Timeout bounds the whole run.
	Timeout time.Duration `yaml:"timeout"`
	// FailFast stops execution on the first failure.
	FailFast bool `yaml:"fail_fast"`
	// Verbose enables step-level output.
	Verbose bool `yaml:"verbose"`
}

// Scenario is one mount-interact-assert sequence against a named fixture.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Fixture names a registered component fixture to mount.
	Fixture string   `yaml:"fixture"`
	Tags    []string `yaml:"tags,omitempty"`
	Steps   []Step   `yaml:"steps"`
}

// Step is a single action with an optional expectation evaluated after
// the action settled.
type Step struct {
	Name string `yaml:"name,omitempty"`
	// Action is one of: click, click_outside, type, set_store, settle.
	Action   string `yaml:"action"`
	Selector string `yaml:"selector,omitempty"`
	// Text is the input for the type action.
	Text string `yaml:"text,omitempty"`
	// Store and Value drive the set_store action.
	Store  string       `yaml:"store,omitempty"`
	Value  any          `yaml:"value,omitempty"`
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Expectation describes the asserted state after a step.
type Expectation struct {
	Selector     string       `yaml:"selector,omitempty"`
	TextEquals   *string      `yaml:"text_equals,omitempty"`
	TextContains string       `yaml:"text_contains,omitempty"`
	HTMLContains string       `yaml:"html_contains,omitempty"`
	StoreEquals  *StoreEquals `yaml:"store_equals,omitempty"`
	EventCount   *EventCount  `yaml:"event_count,omitempty"`
}

// StoreEquals asserts the current value of a named fixture store.
type StoreEquals struct {
	Store string `yaml:"store"`
	Value any    `yaml:"value"`
}

// EventCount asserts how often a named fixture recorder fired.
type EventCount struct {
	Event string `yaml:"event"`
	Count int    `yaml:"count"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step     Step
	Result   Result
	Error    string
	Duration time.Duration
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Scenario    Scenario
	Result      Result
	Error       string
	StepResults []StepResult
	Duration    time.Duration
}

// SuiteResult aggregates a whole run.
type SuiteResult struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalScenarios  int
	Passed          int
	Failed          int
	Errors          int
	ScenarioResults []ScenarioResult
	Configuration   Config
}

// Success reports whether every executed scenario passed.
func (r *SuiteResult) Success() bool {
	return r.Failed == 0 && r.Errors == 0
}
