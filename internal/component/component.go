// Package component implements the component model and the single root
// instantiation path the harness funnels every mount through. Components
// render HTML markup into an in-memory gost-dom window; re-rendering is
// batched and flushed at an explicit tick boundary so tests observe the
// same "mutate, await tick, assert" rhythm a real reactive runtime
// enforces.
package component

import (
	"comptest/internal/runtime"
	"comptest/internal/store"

	"github.com/gost-dom/browser/dom"
)

// Props carries the named values a component is constructed with. Bound
// props hold the store itself, so child-side mutation stays observable by
// the test that supplied the store.
type Props map[string]any

// Component is anything that can render itself to HTML markup. Render is
// called once at mount and again on every flush after the handle was
// invalidated; DOM event handlers registered on the RenderContext are
// re-attached after each render.
type Component interface {
	Render(rc *RenderContext) string
}

// ModuleConsumer is implemented by components that import ambient runtime
// modules. Mount verifies every declared symbol against the mock registry
// and fails construction with a MockResolutionError when one is missing.
type ModuleConsumer interface {
	// RequiresModules maps module name to the symbols consumed from it.
	// An empty symbol list requires only the module itself.
	RequiresModules() map[string][]string
}

// Action is a directive: a function attached directly to a mounted DOM
// node, given the node and optional parameters, returning an optional
// teardown function. Attachment happens exactly once per mount, after the
// node exists; teardown runs exactly once, on unmount.
type Action func(node dom.Element, params any) (teardown func())

// domHandler is one DOM event handler registration from a render pass.
type domHandler struct {
	event    string
	selector string
	fn       func(el dom.Element)
}

// RenderContext is handed to Component.Render. It exposes props, slot
// content, ambient module resolution, subtree context values, DOM event
// handler registration and custom event dispatch.
type RenderContext struct {
	h        *Handle
	handlers []domHandler
}

// Prop returns the named prop value, or nil if absent.
func (rc *RenderContext) Prop(name string) any {
	return rc.h.prop(name)
}

// StringProp returns the named prop as a string, or empty.
func (rc *RenderContext) StringProp(name string) string {
	if s, ok := rc.h.prop(name).(string); ok {
		return s
	}
	return ""
}

// Bound returns the writable store behind a two-way bound prop, or nil if
// the prop is absent or not writable.
func (rc *RenderContext) Bound(name string) store.Writable {
	if w, ok := rc.h.prop(name).(store.Writable); ok {
		return w
	}
	return nil
}

// On registers a DOM event handler for the first element matching selector
// in this component's rendered output. Handlers are attached after the
// markup is in the DOM; a selector that matches nothing (a conditional
// branch not rendered this pass) is skipped.
func (rc *RenderContext) On(event, selector string, fn func(el dom.Element)) {
	rc.handlers = append(rc.handlers, domHandler{event: event, selector: selector, fn: fn})
}

// OnClick registers a click handler for selector.
func (rc *RenderContext) OnClick(selector string, fn func(el dom.Element)) {
	rc.On("click", selector, fn)
}

// Dispatch emits a component-level custom event to subscribers registered
// via Handle.On. Safe to call from DOM handlers and from Render itself.
func (rc *RenderContext) Dispatch(name string, detail any) {
	rc.h.emit(name, detail)
}

// Module resolves one exported symbol of a mocked ambient runtime module.
func (rc *RenderContext) Module(module, symbol string) (any, error) {
	return runtime.Resolve(module, symbol)
}

// Flag resolves a boolean module symbol, treating resolution failure or a
// non-bool export as false. Components that declare the symbol via
// RequiresModules never hit the failure path at render time because Mount
// verified it already.
func (rc *RenderContext) Flag(module, symbol string) bool {
	v, err := runtime.Resolve(module, symbol)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Slot returns the projected HTML for a named slot, or the default slot
// for the empty name. Components embed the returned markup verbatim.
func (rc *RenderContext) Slot(name string) string {
	return rc.h.slots[name]
}

// HasSlot reports whether the caller projected content into a slot.
func (rc *RenderContext) HasSlot(name string) bool {
	_, ok := rc.h.slots[name]
	return ok
}

// SetContext publishes a value to this component's subtree. Nested mounts
// (slot-projected components) resolve it through Context.
func (rc *RenderContext) SetContext(key string, value any) {
	rc.h.setContext(key, value)
}

// Context resolves a subtree context value, walking up through parent
// mounts. Independent of explicit prop passing.
func (rc *RenderContext) Context(key string) (any, bool) {
	return rc.h.lookupContext(key)
}
