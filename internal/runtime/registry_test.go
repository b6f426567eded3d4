package runtime

import (
	"testing"

	"comptest/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReturnsRegisteredSymbol(t *testing.T) {
	defer Clear()

	Register("environment", map[string]any{"dev": true})

	v, err := Resolve("environment", "dev")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestResolveUnknownModuleFails(t *testing.T) {
	defer Clear()

	_, err := Resolve("navigation", "goto")
	require.Error(t, err)

	var resErr *MockResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "navigation", resErr.Module)
	assert.Contains(t, err.Error(), "navigation")
}

func TestResolveUnknownSymbolFails(t *testing.T) {
	defer Clear()

	Register("environment", map[string]any{"dev": true})

	_, err := Resolve("environment", "browser")
	require.Error(t, err)

	var resErr *MockResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "environment", resErr.Module)
	assert.Equal(t, "browser", resErr.Symbol)
}

func TestRegisterReplacesWholeModule(t *testing.T) {
	defer Clear()

	Register("environment", map[string]any{"dev": true, "browser": true})
	Register("environment", map[string]any{"dev": false})

	v, err := Resolve("environment", "dev")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	// Symbols are not merged across registrations.
	_, err = Resolve("environment", "browser")
	assert.Error(t, err)
}

func TestVerifyReportsFirstMissingSymbol(t *testing.T) {
	defer Clear()

	Register("environment", map[string]any{"dev": true})

	assert.NoError(t, Verify(map[string][]string{"environment": {"dev"}}))

	err := Verify(map[string][]string{"environment": {"dev", "browser"}})
	var resErr *MockResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "browser", resErr.Symbol)

	err = Verify(map[string][]string{"stores": nil})
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "stores", resErr.Module)
}

func TestRegisteredAndClear(t *testing.T) {
	defer Clear()

	Register("stores", map[string]any{})
	Register("environment", map[string]any{})
	assert.Equal(t, []string{"environment", "stores"}, Registered())

	Clear()
	assert.Empty(t, Registered())
}

func TestNavigationRecorderNeverNavigates(t *testing.T) {
	defer Clear()

	rec := NewNavigationRecorder()
	RegisterNavigation(rec)

	v, err := Resolve(ModuleNavigation, "goto")
	require.NoError(t, err)
	goTo, ok := v.(func(string) error)
	require.True(t, ok, "goto export must be a func(string) error")

	require.NoError(t, goTo("/settings"))
	require.NoError(t, goTo("/home"))
	assert.Equal(t, []string{"/settings", "/home"}, rec.Gotos())
	assert.Empty(t, rec.Prefetches())
}

func TestAmbientStoresModule(t *testing.T) {
	defer Clear()

	stores := NewAmbientStores(Page{URL: "/docs", Status: 200})
	RegisterStores(stores)

	v, err := Resolve(ModuleStores, "page")
	require.NoError(t, err)
	page, ok := v.(store.Readable)
	require.True(t, ok)
	assert.Equal(t, Page{URL: "/docs", Status: 200}, store.Get(page))

	// The updated store is a fixed false, not a real derivation.
	v, err = Resolve(ModuleStores, "updated")
	require.NoError(t, err)
	assert.Equal(t, false, store.Get(v.(store.Readable)))

	// Tests drive route changes through the writable page store.
	stores.Page.Set(Page{URL: "/blog", Status: 200})
	assert.Equal(t, "/blog", store.Get(page).(Page).URL)
}
