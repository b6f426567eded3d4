package scenario

import (
	"context"
	"fmt"
	"time"

	"comptest/internal/harness"
	"comptest/internal/interact"
	"comptest/internal/query"
	"comptest/internal/store"
	"comptest/pkg/logging"
)

// Runner executes scenarios sequentially. Each scenario gets a fresh
// window and fixture instance; the ambient module mocks are shared across
// the whole run.
type Runner struct {
	reporter Reporter
}

// NewRunner creates a runner reporting to reporter.
func NewRunner(reporter Reporter) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Runner{reporter: reporter}
}

// Collect returns the builtin suite plus any scenarios from
// config.ConfigPath, filtered per config.
func Collect(config Config) ([]Scenario, error) {
	scenarios := Builtin()
	if config.ConfigPath != "" {
		loaded, err := LoadScenarios(config.ConfigPath)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, loaded...)
	}
	return Filter(scenarios, config), nil
}

// Run executes the configured suite.
func (r *Runner) Run(ctx context.Context, config Config) (*SuiteResult, error) {
	EnsureAmbientMocks()

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	scenarios, err := Collect(config)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{
		StartTime:      time.Now(),
		TotalScenarios: len(scenarios),
		Configuration:  config,
	}
	r.reporter.ReportStart(config, len(scenarios))

	for _, s := range scenarios {
		if ctx.Err() != nil {
			break
		}
		r.reporter.ReportScenarioStart(s)
		scenarioResult := r.runScenario(ctx, s)
		result.ScenarioResults = append(result.ScenarioResults, scenarioResult)
		switch scenarioResult.Result {
		case ResultPassed:
			result.Passed++
		case ResultFailed:
			result.Failed++
		case ResultError:
			result.Errors++
		}
		r.reporter.ReportScenarioResult(scenarioResult)

		if config.FailFast && scenarioResult.Result != ResultPassed {
			break
		}
	}

	result.EndTime = time.Now()
	r.reporter.ReportSuiteResult(*result)
	return result, nil
}

func (r *Runner) runScenario(ctx context.Context, s Scenario) ScenarioResult {
	start := time.Now()
	result := ScenarioResult{Scenario: s, Result: ResultPassed}
	defer func() { result.Duration = time.Since(start) }()

	factory, err := LookupFixture(s.Fixture)
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return result
	}
	instance := factory()

	win, err := harness.NewWindow()
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return result
	}

	m, err := harness.Render(win, instance.Fragment, instance.Args...)
	if err != nil {
		result.Result = ResultError
		result.Error = fmt.Sprintf("mounting fixture %q: %v", s.Fixture, err)
		return result
	}
	defer m.Destroy()

	for i, step := range s.Steps {
		if ctx.Err() != nil {
			result.Result = ResultError
			result.Error = ctx.Err().Error()
			return result
		}
		stepResult := r.runStep(m, instance, step)
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(s, stepResult)
		if stepResult.Result != ResultPassed {
			result.Result = stepResult.Result
			result.Error = fmt.Sprintf("step %d (%s): %s", i+1, describeStep(step), stepResult.Error)
			return result
		}
	}
	return result
}

func describeStep(step Step) string {
	if step.Name != "" {
		return step.Name
	}
	return step.Action
}

func (r *Runner) runStep(m *harness.Mounted, instance *Instance, step Step) StepResult {
	start := time.Now()
	result := StepResult{Step: step, Result: ResultPassed}
	defer func() { result.Duration = time.Since(start) }()

	fail := func(err error) StepResult {
		result.Result = ResultFailed
		result.Error = err.Error()
		return result
	}

	switch step.Action {
	case "click":
		if err := interact.Click(m, step.Selector); err != nil {
			result.Result = ResultError
			result.Error = err.Error()
			return result
		}
	case "click_outside":
		sibling := m.Window.Document().CreateElement("button")
		m.Window.Document().Body().AppendChild(sibling)
		if err := interact.ClickElement(sibling); err != nil {
			result.Result = ResultError
			result.Error = err.Error()
			return result
		}
		if err := m.Settle(); err != nil {
			result.Result = ResultError
			result.Error = err.Error()
			return result
		}
	case "type":
		if err := interact.Type(m, step.Selector, step.Text); err != nil {
			result.Result = ResultError
			result.Error = err.Error()
			return result
		}
	case "set_store":
		st, ok := instance.Stores[step.Store]
		if !ok {
			result.Result = ResultError
			result.Error = fmt.Sprintf("fixture has no store %q", step.Store)
			return result
		}
		st.Set(step.Value)
		if err := m.Settle(); err != nil {
			result.Result = ResultError
			result.Error = err.Error()
			return result
		}
	case "settle":
		if err := m.Settle(); err != nil {
			result.Result = ResultError
			result.Error = err.Error()
			return result
		}
	default:
		result.Result = ResultError
		result.Error = fmt.Sprintf("unknown action %q", step.Action)
		return result
	}

	if step.Expect != nil {
		if err := evaluate(m, instance, step.Expect); err != nil {
			return fail(err)
		}
	}
	return result
}

// evaluate checks one expectation against the mounted DOM and the
// fixture's stores and recorders.
func evaluate(m *harness.Mounted, instance *Instance, exp *Expectation) error {
	if exp.TextEquals != nil {
		got, err := query.Text(m, exp.Selector)
		if err != nil {
			return err
		}
		if got != *exp.TextEquals {
			return fmt.Errorf("text of %q = %q, want %q", exp.Selector, got, *exp.TextEquals)
		}
	}
	if exp.TextContains != "" {
		ok, err := query.TextContains(m, exp.Selector, exp.TextContains)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("text of %q does not contain %q", exp.Selector, exp.TextContains)
		}
	}
	if exp.HTMLContains != "" && !query.HTMLContains(m, exp.HTMLContains) {
		return fmt.Errorf("markup does not contain %q", exp.HTMLContains)
	}
	if exp.StoreEquals != nil {
		st, ok := instance.Stores[exp.StoreEquals.Store]
		if !ok {
			return fmt.Errorf("fixture has no store %q", exp.StoreEquals.Store)
		}
		got := store.Get(st)
		if fmt.Sprint(got) != fmt.Sprint(exp.StoreEquals.Value) {
			return fmt.Errorf("store %q = %v, want %v", exp.StoreEquals.Store, got, exp.StoreEquals.Value)
		}
	}
	if exp.EventCount != nil {
		rec, ok := instance.Recorders[exp.EventCount.Event]
		if !ok {
			return fmt.Errorf("fixture has no event recorder %q", exp.EventCount.Event)
		}
		if rec.Count() != exp.EventCount.Count {
			return fmt.Errorf("event %q fired %d times, want %d",
				exp.EventCount.Event, rec.Count(), exp.EventCount.Count)
		}
	}
	logging.Debug("Scenario", "Expectation satisfied: %+v", exp)
	return nil
}
