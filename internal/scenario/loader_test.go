package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
scenarios:
  - name: custom-counter
    description: appends one digit
    fixture: counter
    tags: [custom]
    steps:
      - action: click
        selector: "[data-testid=digit]"
        expect:
          store_equals:
            store: value
            value: "1"
`

func TestLoadScenariosFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "counter.yaml", validYAML)
	writeScenarioFile(t, dir, "notes.txt", "ignored")

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	s := scenarios[0]
	assert.Equal(t, "custom-counter", s.Name)
	assert.Equal(t, "counter", s.Fixture)
	require.Len(t, s.Steps, 1)
	require.NotNil(t, s.Steps[0].Expect)
	require.NotNil(t, s.Steps[0].Expect.StoreEquals)
	assert.Equal(t, "value", s.Steps[0].Expect.StoreEquals.Store)
	assert.Equal(t, "1", s.Steps[0].Expect.StoreEquals.Value)
}

func TestLoadScenariosSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenarioFile(t, dir, "one.yml", validYAML)

	scenarios, err := LoadScenarios(path)
	require.NoError(t, err)
	assert.Len(t, scenarios, 1)
}

func TestLoadScenariosValidation(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		contains string
	}{
		{
			"unknown fixture",
			"scenarios:\n  - name: x\n    fixture: nope\n    steps:\n      - action: settle\n",
			"unknown fixture",
		},
		{
			"missing name",
			"scenarios:\n  - fixture: counter\n    steps:\n      - action: settle\n",
			"without a name",
		},
		{
			"unknown action",
			"scenarios:\n  - name: x\n    fixture: counter\n    steps:\n      - action: hover\n",
			"unknown action",
		},
		{
			"click without selector",
			"scenarios:\n  - name: x\n    fixture: counter\n    steps:\n      - action: click\n",
			"requires a selector",
		},
		{
			"no steps",
			"scenarios:\n  - name: x\n    fixture: counter\n",
			"at least one step",
		},
		{
			"malformed yaml",
			"scenarios: [", // unterminated flow sequence
			"parsing",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeScenarioFile(t, dir, "bad.yaml", tc.yaml)
			_, err := LoadScenarios(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestFilterByNameAndTag(t *testing.T) {
	scenarios := Builtin()

	filtered := Filter(scenarios, Config{Scenario: "counter-two-way-binding"})
	require.Len(t, filtered, 1)
	assert.Equal(t, "counter-two-way-binding", filtered[0].Name)

	filtered = Filter(scenarios, Config{Tag: "binding"})
	require.NotEmpty(t, filtered)
	for _, s := range filtered {
		assert.Contains(t, s.Tags, "binding")
	}

	filtered = Filter(scenarios, Config{Scenario: "does-not-exist"})
	assert.Empty(t, filtered)
}

func TestBuiltinScenariosAreValid(t *testing.T) {
	for _, s := range Builtin() {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			assert.NoError(t, Validate(&s))
		})
	}
}
