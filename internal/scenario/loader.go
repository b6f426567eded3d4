package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"comptest/pkg/logging"

	"gopkg.in/yaml.v3"
)

// scenarioFile is the on-disk schema of one scenario definition file.
type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

var validActions = map[string]bool{
	"click":         true,
	"click_outside": true,
	"type":          true,
	"set_store":     true,
	"settle":        true,
}

// LoadScenarios reads every .yaml/.yml file under path (recursively) and
// returns the scenarios they define, validated against the fixture
// registry.
func LoadScenarios(path string) ([]Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path %s: %w", path, err)
	}
	if !info.IsDir() {
		return loadFile(path)
	}

	var scenarios []Scenario
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		loaded, err := loadFile(p)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Debug("Scenario", "Loaded %d scenarios from %s", len(scenarios), path)
	return scenarios, nil
}

func loadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i := range file.Scenarios {
		if err := Validate(&file.Scenarios[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return file.Scenarios, nil
}

// Validate checks a scenario definition against the fixture registry and
// the step action vocabulary.
func Validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario without a name")
	}
	if s.Fixture == "" {
		return fmt.Errorf("scenario %q: fixture is required", s.Name)
	}
	if _, err := LookupFixture(s.Fixture); err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q: at least one step is required", s.Name)
	}
	for i, step := range s.Steps {
		if !validActions[step.Action] {
			return fmt.Errorf("scenario %q step %d: unknown action %q", s.Name, i+1, step.Action)
		}
		switch step.Action {
		case "click", "type":
			if step.Selector == "" {
				return fmt.Errorf("scenario %q step %d: %s requires a selector", s.Name, i+1, step.Action)
			}
		case "set_store":
			if step.Store == "" {
				return fmt.Errorf("scenario %q step %d: set_store requires a store name", s.Name, i+1)
			}
		}
	}
	return nil
}

// Filter applies the config's scenario and tag filters.
func Filter(scenarios []Scenario, config Config) []Scenario {
	var out []Scenario
	for _, s := range scenarios {
		if config.Scenario != "" && s.Name != config.Scenario {
			continue
		}
		if config.Tag != "" && !hasTag(s, config.Tag) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func hasTag(s Scenario, tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Builtin returns the scenario suite that ships with the harness,
// covering the reference fixtures end to end. A run always includes these
// before any scenarios loaded from disk.
func Builtin() []Scenario {
	str := func(s string) *string { return &s }
	return []Scenario{
		{
			Name:        "counter-two-way-binding",
			Description: "Two clicks append digits through the bound store; clear resets it",
			Fixture:     "counter",
			Tags:        []string{"binding"},
			Steps: []Step{
				{Action: "click", Selector: "[data-testid=digit]"},
				{Action: "click", Selector: "[data-testid=digit]",
					Expect: &Expectation{StoreEquals: &StoreEquals{Store: "value", Value: "11"}}},
				{Action: "settle",
					Expect: &Expectation{Selector: "[data-testid=value]", TextEquals: str("11")}},
				{Action: "click", Selector: "[data-testid=clear]",
					Expect: &Expectation{StoreEquals: &StoreEquals{Store: "value", Value: ""}}},
				{Action: "settle",
					Expect: &Expectation{EventCount: &EventCount{Event: "clear", Count: 1}}},
			},
		},
		{
			Name:        "outside-click-directive",
			Description: "A click outside the menu fires the directive handler exactly once",
			Fixture:     "outside-click",
			Tags:        []string{"directive"},
			Steps: []Step{
				{Action: "click_outside",
					Expect: &Expectation{EventCount: &EventCount{Event: "outside", Count: 1}}},
				{Action: "click", Selector: "[data-testid=inside]",
					Expect: &Expectation{EventCount: &EventCount{Event: "outside", Count: 1}}},
				{Action: "click_outside",
					Expect: &Expectation{EventCount: &EventCount{Event: "outside", Count: 2}}},
			},
		},
		{
			Name:        "environment-flag-render-path",
			Description: "The dev badge reflects the mocked environment flag",
			Fixture:     "env-badge",
			Tags:        []string{"modules"},
			Steps: []Step{
				{Action: "settle",
					Expect: &Expectation{Selector: "[data-testid=badge]", TextContains: "development"}},
			},
		},
		{
			Name:        "typing-updates-bound-store",
			Description: "Typing into the input drives the bound text store",
			Fixture:     "echo",
			Tags:        []string{"binding"},
			Steps: []Step{
				{Action: "type", Selector: "input", Text: "hello"},
				{Action: "settle",
					Expect: &Expectation{StoreEquals: &StoreEquals{Store: "text", Value: "hello"}}},
			},
		},
		{
			Name:        "slot-projection-and-context",
			Description: "Named and default slots project; context reaches slot-mounted components",
			Fixture:     "themed",
			Tags:        []string{"slots"},
			Steps: []Step{
				{Action: "settle",
					Expect: &Expectation{Selector: "[data-testid=header]", TextContains: "Dashboard"}},
				{Action: "settle",
					Expect: &Expectation{Selector: "[data-testid=theme]", TextEquals: str("dark")}},
				{Action: "settle",
					Expect: &Expectation{HTMLContains: "welcome"}},
			},
		},
	}
}
