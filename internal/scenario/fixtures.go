package scenario

import (
	"fmt"
	"sort"
	"sync"

	"comptest/internal/fixtures"
	"comptest/internal/runtime"
	"comptest/internal/store"
)

// Instance is one prepared fixture mount: the fragment and arguments
// handed to the harness, plus the stores and event recorders steps and
// expectations refer to by name.
type Instance struct {
	Fragment  string
	Args      []any
	Stores    map[string]store.Writable
	Recorders map[string]*fixtures.Recorder
}

// Factory builds a fresh Instance per scenario, so no mutable state leaks
// between scenarios.
type Factory func() *Instance

var (
	fixtureMu       sync.RWMutex
	fixtureRegistry = map[string]Factory{}
)

// RegisterFixture makes a component fixture available to scenarios by
// name. Registering an existing name replaces it.
func RegisterFixture(name string, factory Factory) {
	fixtureMu.Lock()
	defer fixtureMu.Unlock()
	fixtureRegistry[name] = factory
}

// LookupFixture resolves a registered fixture factory.
func LookupFixture(name string) (Factory, error) {
	fixtureMu.RLock()
	defer fixtureMu.RUnlock()
	f, ok := fixtureRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown fixture %q (registered: %v)", name, registeredFixtureNames())
	}
	return f, nil
}

// registeredFixtureNames must be called with fixtureMu held.
func registeredFixtureNames() []string {
	names := make([]string, 0, len(fixtureRegistry))
	for name := range fixtureRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FixtureNames returns the sorted names of all registered fixtures.
func FixtureNames() []string {
	fixtureMu.RLock()
	defer fixtureMu.RUnlock()
	return registeredFixtureNames()
}

var mockInstallOnce sync.Once

// EnsureAmbientMocks installs the run-wide runtime module substitutions.
// They are installed once and treated as read-only fixtures afterwards;
// scenarios vary behavior through store state, never by re-registering.
func EnsureAmbientMocks() {
	mockInstallOnce.Do(func() {
		runtime.RegisterEnvironment(runtime.Environment{Dev: true, Browser: true})
		runtime.RegisterNavigation(runtime.NewNavigationRecorder())
		runtime.RegisterStores(runtime.NewAmbientStores(runtime.Page{URL: "/", Status: 200}))
	})
}

func init() {
	RegisterFixture("counter", func() *Instance {
		value := store.New("")
		clears := &fixtures.Recorder{}
		return &Instance{
			Fragment:  `<{0} bind:value={1} on:clear={2}/>`,
			Args:      []any{&fixtures.Counter{}, value, clears.Add},
			Stores:    map[string]store.Writable{"value": value},
			Recorders: map[string]*fixtures.Recorder{"clear": clears},
		}
	})

	RegisterFixture("outside-click", func() *Instance {
		outside := &fixtures.Recorder{}
		return &Instance{
			Fragment:  `<{0} use:{1}/>`,
			Args:      []any{&fixtures.Menu{}, fixtures.ClickOutside(outside.Add)},
			Recorders: map[string]*fixtures.Recorder{"outside": outside},
		}
	})

	RegisterFixture("env-badge", func() *Instance {
		return &Instance{
			Fragment: `<{0}/>`,
			Args:     []any{fixtures.EnvBadge{}},
		}
	})

	RegisterFixture("echo", func() *Instance {
		text := store.New("")
		return &Instance{
			Fragment: `<{0} bind:text={1}/>`,
			Args:     []any{fixtures.Echo{}, text},
			Stores:   map[string]store.Writable{"text": text},
		}
	})

	RegisterFixture("themed", func() *Instance {
		return &Instance{
			Fragment: `
				<{0} theme="dark">
					<h1 slot="header">Dashboard</h1>
					<p>welcome</p>
					<{1}/>
				</{0}>`,
			Args: []any{fixtures.ThemeProvider{}, fixtures.ThemeLabel{}},
		}
	})
}
