package scenario

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBuiltinSuite(t *testing.T) {
	var out bytes.Buffer
	runner := NewRunner(NewConsoleReporter(&out, true))

	result, err := runner.Run(context.Background(), Config{})
	require.NoError(t, err)

	assert.Equal(t, len(Builtin()), result.TotalScenarios)
	assert.Equal(t, result.TotalScenarios, result.Passed, "builtin suite must pass: %s", out.String())
	assert.True(t, result.Success())
	assert.Contains(t, out.String(), "suite passed")
}

func TestRunSingleScenario(t *testing.T) {
	runner := NewRunner(nil)

	result, err := runner.Run(context.Background(), Config{Scenario: "counter-two-way-binding"})
	require.NoError(t, err)

	require.Len(t, result.ScenarioResults, 1)
	sr := result.ScenarioResults[0]
	assert.Equal(t, ResultPassed, sr.Result, "error: %s", sr.Error)
	assert.Len(t, sr.StepResults, len(sr.Scenario.Steps))
}

func TestRunFailingExpectationReportsStep(t *testing.T) {
	RegisterFixture("failing-counter", func() *Instance {
		f, err := LookupFixture("counter")
		if err != nil {
			t.Fatal(err)
		}
		return f()
	})

	failing := Scenario{
		Name:    "expected-failure",
		Fixture: "failing-counter",
		Steps: []Step{
			{Action: "click", Selector: "[data-testid=digit]",
				Expect: &Expectation{StoreEquals: &StoreEquals{Store: "value", Value: "999"}}},
		},
	}
	require.NoError(t, Validate(&failing))

	runner := NewRunner(nil)
	EnsureAmbientMocks()
	sr := runner.runScenario(context.Background(), failing)

	assert.Equal(t, ResultFailed, sr.Result)
	assert.Contains(t, sr.Error, `store "value"`)
}

func TestRunUnknownSelectorIsAnError(t *testing.T) {
	broken := Scenario{
		Name:    "missing-selector",
		Fixture: "counter",
		Steps:   []Step{{Action: "click", Selector: "#does-not-exist"}},
	}

	runner := NewRunner(nil)
	EnsureAmbientMocks()
	sr := runner.runScenario(context.Background(), broken)

	assert.Equal(t, ResultError, sr.Result)
	assert.Contains(t, sr.Error, "no element matches")
}

func TestFailFastStopsSuite(t *testing.T) {
	RegisterFixture("always-fails", func() *Instance {
		f, _ := LookupFixture("counter")
		return f()
	})

	// A channel reporter sees exactly one scenario result under fail-fast
	// when the first scenario fails.
	reporter := NewChannelReporter(16)
	runner := NewRunner(reporter)

	dir := t.TempDir()
	writeScenarioFile(t, dir, "fail.yaml", `
scenarios:
  - name: aa-first-fails
    fixture: always-fails
    steps:
      - action: settle
        expect:
          store_equals:
            store: value
            value: "never"
`)

	result, err := runner.Run(context.Background(), Config{
		ConfigPath: dir,
		Tag:        "no-such-tag-on-builtins",
		FailFast:   true,
	})
	require.NoError(t, err)
	// Tag filter excluded everything including the loaded scenario.
	assert.Equal(t, 0, result.TotalScenarios)

	result, err = runner.Run(context.Background(), Config{
		ConfigPath: dir,
		Scenario:   "aa-first-fails",
		FailFast:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Success())
}

func TestChannelReporterDeliversEvents(t *testing.T) {
	reporter := NewChannelReporter(64)
	runner := NewRunner(reporter)

	result, err := runner.Run(context.Background(), Config{Scenario: "environment-flag-render-path"})
	require.NoError(t, err)
	require.True(t, result.Success())
	reporter.Close()

	var kinds []string
	for ev := range reporter.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []string{"start", "scenario_start", "scenario_result", "suite_result"}, kinds)
}
