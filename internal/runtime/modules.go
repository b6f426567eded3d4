package runtime

import (
	"sync"

	"comptest/internal/store"
)

// Canonical names of the ambient runtime modules the harness ships mocks
// for. Components resolve symbols against these names.
const (
	ModuleEnvironment = "environment"
	ModuleNavigation  = "navigation"
	ModuleStores      = "stores"
)

// Environment holds the deterministic flags substituted for real
// environment detection.
type Environment struct {
	Dev     bool
	Browser bool
}

// RegisterEnvironment installs the environment-flags module.
func RegisterEnvironment(env Environment) {
	Register(ModuleEnvironment, map[string]any{
		"dev":     env.Dev,
		"browser": env.Browser,
	})
}

// NavigationRecorder substitutes the runtime's navigation functions with
// recorders. No real navigation ever happens: each call appends to an
// in-memory log and reports success.
type NavigationRecorder struct {
	mu         sync.Mutex
	gotos      []string
	prefetches []string
}

// NewNavigationRecorder creates an empty recorder.
func NewNavigationRecorder() *NavigationRecorder {
	return &NavigationRecorder{}
}

// Goto records the target path and returns immediately.
func (n *NavigationRecorder) Goto(path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gotos = append(n.gotos, path)
	return nil
}

// Prefetch records the target path and returns immediately.
func (n *NavigationRecorder) Prefetch(path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prefetches = append(n.prefetches, path)
	return nil
}

// Gotos returns the recorded goto targets in call order.
func (n *NavigationRecorder) Gotos() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.gotos...)
}

// Prefetches returns the recorded prefetch targets in call order.
func (n *NavigationRecorder) Prefetches() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.prefetches...)
}

// RegisterNavigation installs the navigation module backed by rec.
func RegisterNavigation(rec *NavigationRecorder) {
	Register(ModuleNavigation, map[string]any{
		"goto":     rec.Goto,
		"prefetch": rec.Prefetch,
	})
}

// Page is the value carried by the ambient page store.
type Page struct {
	URL    string
	Params map[string]string
	Status int
}

// AmbientStores bundles the reactive stores the runtime normally provides
// to a bootstrapped application.
type AmbientStores struct {
	// Page is writable so tests can drive route changes.
	Page store.Writable
	// Navigating is writable so tests can simulate an in-flight navigation.
	Navigating store.Writable
	// Updated always reports false; staleness derivation is deliberately
	// not modeled.
	Updated store.Readable
}

// NewAmbientStores creates store stubs with page as the initial page value.
func NewAmbientStores(page Page) *AmbientStores {
	return &AmbientStores{
		Page:       store.New(page),
		Navigating: store.New(nil),
		Updated:    store.Fixed(false),
	}
}

// RegisterStores installs the ambient stores module.
func RegisterStores(s *AmbientStores) {
	Register(ModuleStores, map[string]any{
		"page":       s.Page,
		"navigating": s.Navigating,
		"updated":    s.Updated,
	})
}
