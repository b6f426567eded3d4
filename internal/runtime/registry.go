// Package runtime provides the mock registry for ambient runtime modules:
// the framework-provided services (environment flags, navigation, reactive
// page stores) that only exist inside a fully bootstrapped application.
//
// Tests install deterministic substitutes once for the whole run; every
// component mounted afterwards resolves its ambient imports against the
// registry instead of any real runtime. Substitutions are read-only
// fixtures: tests that need different behavior drive it through the mutable
// state of the registered store stubs, not by re-registering modules.
package runtime

import (
	"fmt"
	"sort"
	"sync"
)

// MockResolutionError reports an import of a module or symbol that has no
// registered substitute. It is surfaced during component construction,
// before any assertion runs, so a missing mock never degrades into a
// silent nil value.
type MockResolutionError struct {
	Module string
	Symbol string
}

func (e *MockResolutionError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("runtime module %q is not mocked", e.Module)
	}
	return fmt.Sprintf("runtime module %q has no mock for symbol %q", e.Module, e.Symbol)
}

// Registry holds the mocked runtime modules by name. It provides a
// centralized way for components to reach ambient services without the
// harness threading them through every prop list.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]any
}

// Global registry instance
var globalRegistry = &Registry{modules: make(map[string]map[string]any)}

// Register installs the exported symbols of one runtime module. Calling it
// again for the same name replaces the whole module; symbols are never
// merged, so a registration always describes the complete exported surface.
func Register(name string, exports map[string]any) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	copied := make(map[string]any, len(exports))
	for k, v := range exports {
		copied[k] = v
	}
	globalRegistry.modules[name] = copied
}

// Resolve returns the substitute for one exported symbol. Missing modules
// and missing symbols both fail with a MockResolutionError naming exactly
// what was absent.
func Resolve(name, symbol string) (any, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	exports, ok := globalRegistry.modules[name]
	if !ok {
		return nil, &MockResolutionError{Module: name}
	}
	v, ok := exports[symbol]
	if !ok {
		return nil, &MockResolutionError{Module: name, Symbol: symbol}
	}
	return v, nil
}

// Lookup returns a copy of a whole module's exported surface.
func Lookup(name string) (map[string]any, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	exports, ok := globalRegistry.modules[name]
	if !ok {
		return nil, false
	}
	copied := make(map[string]any, len(exports))
	for k, v := range exports {
		copied[k] = v
	}
	return copied, true
}

// Registered returns the sorted names of all registered modules.
func Registered() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	names := make([]string, 0, len(globalRegistry.modules))
	for name := range globalRegistry.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all registered modules (useful for test teardown of the
// registry itself).
func Clear() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.modules = make(map[string]map[string]any)
}

// Verify checks that every symbol in required is registered, keyed by
// module name. The mount path calls this with a component's declared
// ambient imports so resolution failures surface as construction failures.
func Verify(required map[string][]string) error {
	for module, symbols := range required {
		if len(symbols) == 0 {
			if _, ok := Lookup(module); !ok {
				return &MockResolutionError{Module: module}
			}
			continue
		}
		for _, symbol := range symbols {
			if _, err := Resolve(module, symbol); err != nil {
				return err
			}
		}
	}
	return nil
}
