package component_test

import (
	"fmt"
	"strings"
	"testing"

	"comptest/internal/component"
	"comptest/internal/runtime"

	"github.com/gost-dom/browser/dom"
	"github.com/gost-dom/browser/html"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWindow(t *testing.T) (html.Window, dom.Element) {
	t.Helper()
	win, err := html.NewWindowReader(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"))
	require.NoError(t, err)
	target := win.Document().CreateElement("div")
	win.Document().Body().AppendChild(target)
	return win, target
}

type labelComponent struct{}

func (labelComponent) Render(rc *component.RenderContext) string {
	return fmt.Sprintf(`<p data-testid="label">%s</p>`, rc.StringProp("text"))
}

func TestMountRendersImmediately(t *testing.T) {
	win, target := newWindow(t)

	h, err := component.Mount(win, labelComponent{}, target, &component.MountConfig{
		Props: component.Props{"text": "hello"},
	})
	require.NoError(t, err)
	defer h.Destroy()

	assert.Contains(t, target.InnerHTML(), "hello")
}

func TestSetIsBatchedUntilSettle(t *testing.T) {
	win, target := newWindow(t)

	h, err := component.Mount(win, labelComponent{}, target, &component.MountConfig{
		Props: component.Props{"text": "before"},
	})
	require.NoError(t, err)
	defer h.Destroy()

	h.Set(component.Props{"text": "after"})
	// Re-rendering is batched: the DOM is untouched until the tick flush.
	assert.Contains(t, target.InnerHTML(), "before")

	require.NoError(t, h.Settle())
	assert.Contains(t, target.InnerHTML(), "after")
	assert.NotContains(t, target.InnerHTML(), "before")
}

type clickerComponent struct{}

func (clickerComponent) Render(rc *component.RenderContext) string {
	rc.OnClick("button", func(dom.Element) {
		rc.Dispatch("pressed", "detail-payload")
	})
	return `<button>press</button>`
}

func TestDOMHandlersAndCustomEvents(t *testing.T) {
	win, target := newWindow(t)

	h, err := component.Mount(win, clickerComponent{}, target, nil)
	require.NoError(t, err)
	defer h.Destroy()

	var details []any
	unsubscribe := h.On("pressed", func(detail any) { details = append(details, detail) })

	btn, err := target.QuerySelector("button")
	require.NoError(t, err)
	btn.(html.HTMLElement).Click()
	require.Equal(t, []any{"detail-payload"}, details)

	unsubscribe()
	btn.(html.HTMLElement).Click()
	assert.Len(t, details, 1, "unsubscribed listener must not fire")
}

func TestDestroyIsIdempotentAndOrdered(t *testing.T) {
	win, target := newWindow(t)

	h, err := component.Mount(win, labelComponent{}, target, nil)
	require.NoError(t, err)

	var order []string
	h.OnDestroy(func() { order = append(order, "teardown-1") })
	h.OnDestroy(func() { order = append(order, "teardown-2") })
	h.AddStoreUnsubscribe(func() { order = append(order, "unsubscribe") })

	h.Destroy()
	h.Destroy()
	h.Destroy()

	assert.Equal(t, []string{"teardown-1", "teardown-2", "unsubscribe"}, order)
	assert.Equal(t, "", target.InnerHTML())

	// A destroyed handle stays inert.
	h.Set(component.Props{"text": "zombie"})
	require.NoError(t, h.Settle())
	assert.Equal(t, "", target.InnerHTML())
}

type rootClickComponent struct{}

func (rootClickComponent) Render(rc *component.RenderContext) string {
	rc.OnClick("section", func(dom.Element) {
		rc.Dispatch("rooted", nil)
	})
	mode := rc.StringProp("mode")
	return fmt.Sprintf(`<section data-mode="%s"><span>%s</span></section>`, mode, mode)
}

func TestRootElementPersistsAcrossRenders(t *testing.T) {
	win, target := newWindow(t)

	h, err := component.Mount(win, rootClickComponent{}, target, &component.MountConfig{
		Props: component.Props{"mode": "one"},
	})
	require.NoError(t, err)
	defer h.Destroy()

	root := h.RootElement()
	require.NotNil(t, root)

	h.Set(component.Props{"mode": "two"})
	require.NoError(t, h.Settle())

	assert.Contains(t, target.InnerHTML(), "two")
	require.True(t, root == h.RootElement(),
		"the root node must survive a re-render, not be replaced")
	mode, ok := root.GetAttribute("data-mode")
	require.True(t, ok)
	assert.Equal(t, "two", mode, "root attributes follow the latest render")

	// Handlers are re-attached per pass and the previous pass's listener is
	// removed, so a click on the persistent root fires exactly once.
	var fired int
	h.On("rooted", func(any) { fired++ })
	root.(html.HTMLElement).Click()
	assert.Equal(t, 1, fired)
}

type providerComponent struct{}

func (providerComponent) Render(rc *component.RenderContext) string {
	rc.SetContext("answer", 42)
	return `<div><div data-slot-mount="child"></div></div>`
}

type consumerComponent struct{}

func (consumerComponent) Render(rc *component.RenderContext) string {
	v, ok := rc.Context("answer")
	if !ok {
		return `<span data-testid="ctx">missing</span>`
	}
	return fmt.Sprintf(`<span data-testid="ctx">%v</span>`, v)
}

func TestContextFlowsIntoSlotMounts(t *testing.T) {
	win, target := newWindow(t)

	h, err := component.Mount(win, providerComponent{}, target, &component.MountConfig{
		SlotMounts: []component.SlotMount{
			{Placeholder: "child", Component: consumerComponent{}},
		},
	})
	require.NoError(t, err)
	defer h.Destroy()

	assert.Contains(t, target.InnerHTML(), "42")
	assert.NotContains(t, target.InnerHTML(), "missing")
}

type ambientComponent struct{}

func (ambientComponent) RequiresModules() map[string][]string {
	return map[string][]string{runtime.ModuleEnvironment: {"dev"}}
}

func (ambientComponent) Render(rc *component.RenderContext) string {
	return fmt.Sprintf(`<div>dev=%t</div>`, rc.Flag(runtime.ModuleEnvironment, "dev"))
}

func TestMountFailsOnMissingModuleMock(t *testing.T) {
	runtime.Clear()
	t.Cleanup(runtime.Clear)
	win, target := newWindow(t)

	_, err := component.Mount(win, ambientComponent{}, target, nil)
	require.Error(t, err)

	var resErr *runtime.MockResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, runtime.ModuleEnvironment, resErr.Module)

	// With the mock registered, construction succeeds and the conditional
	// render path follows the substituted flag.
	runtime.RegisterEnvironment(runtime.Environment{Dev: true})
	h, err := component.Mount(win, ambientComponent{}, target, nil)
	require.NoError(t, err)
	defer h.Destroy()
	assert.Contains(t, target.InnerHTML(), "dev=true")
}
