package component

import (
	"fmt"
	"strings"
	"sync"

	"comptest/internal/runtime"
	"comptest/pkg/logging"

	"github.com/gost-dom/browser/dom"
	"github.com/gost-dom/browser/dom/event"
	"github.com/gost-dom/browser/html"
)

// maxFlushPasses bounds Settle against a component that re-invalidates
// itself on every render.
const maxFlushPasses = 16

// MountConfig carries the optional parts of a mount: initial props, slot
// content, nested slot mounts and the parent handle for context lookup.
type MountConfig struct {
	Props Props
	// Slots maps slot name (empty string for the default slot) to rendered
	// HTML the component projects via RenderContext.Slot.
	Slots map[string]string
	// SlotMounts are components projected inside slot content. Each is
	// mounted into the element carrying the matching data-slot-mount
	// attribute after every render of the parent.
	SlotMounts []SlotMount
	// Parent links nested mounts for subtree context resolution.
	Parent *Handle
}

// SlotMount identifies one component instantiation inside slot content.
type SlotMount struct {
	Placeholder string
	Component   Component
	Props       Props
}

// eventSub is one Handle.On subscription.
type eventSub struct {
	fn      func(detail any)
	removed bool
}

// attachedListener is one DOM listener installed during a render pass,
// tracked so the next pass can remove it before re-attaching. Without the
// removal, listeners would accumulate on the root element, which survives
// re-renders.
type attachedListener struct {
	el      dom.Element
	event   string
	handler event.EventHandler
}

// Handle is the mounted-component handle returned by Mount. It owns the
// component's DOM subtree until Destroy.
type Handle struct {
	mu     sync.Mutex
	win    html.Window
	comp   Component
	target dom.Element

	props      Props
	slots      map[string]string
	slotMounts []SlotMount
	parent     *Handle

	contextValues map[string]any
	events        map[string][]*eventSub
	onDestroy     []func()
	storeUnsubs   []func()
	children      []*Handle
	root          dom.Element
	attached      []attachedListener

	dirty     bool
	destroyed bool
}

// Mount instantiates comp into target. This is the only instantiation
// path: the inline-template renderer, slot projection and direct test
// mounts all come through here, so binding, directive and slot semantics
// stay observable through one code path.
//
// Ambient module requirements are verified before the first render; a
// missing mock surfaces here as a construction failure.
func Mount(win html.Window, comp Component, target dom.Element, cfg *MountConfig) (*Handle, error) {
	if comp == nil {
		return nil, fmt.Errorf("mount: component is nil")
	}
	if target == nil {
		return nil, fmt.Errorf("mount: target element is nil")
	}
	if cfg == nil {
		cfg = &MountConfig{}
	}

	if mc, ok := comp.(ModuleConsumer); ok {
		if err := runtime.Verify(mc.RequiresModules()); err != nil {
			return nil, fmt.Errorf("mount %T: %w", comp, err)
		}
	}

	h := &Handle{
		win:        win,
		comp:       comp,
		target:     target,
		props:      cloneProps(cfg.Props),
		slots:      cfg.Slots,
		slotMounts: cfg.SlotMounts,
		parent:     cfg.Parent,
		events:     make(map[string][]*eventSub),
	}
	if h.slots == nil {
		h.slots = map[string]string{}
	}

	if err := h.render(); err != nil {
		return nil, err
	}
	logging.Debug("Component", "Mounted %T", comp)
	return h, nil
}

func cloneProps(p Props) Props {
	copied := make(Props, len(p))
	for k, v := range p {
		copied[k] = v
	}
	return copied
}

// render runs one synchronous render pass: produce markup, morph the root
// element in place (or replace the subtree when the root shape changed),
// re-attach DOM handlers, remount slot children.
//
// The root element is kept alive across passes whenever the new markup is
// a single element of the same tag. Directives attach their listeners to
// the root exactly once at mount; replacing the node would strand those
// listeners on a detached element.
func (h *Handle) render() error {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return nil
	}
	children := h.children
	h.children = nil
	prevAttached := h.attached
	h.attached = nil
	root := h.root
	h.mu.Unlock()

	// Slot children live inside the subtree being replaced; destroy them
	// before their placeholder nodes go away.
	for _, child := range children {
		child.Destroy()
	}
	for _, a := range prevAttached {
		a.el.RemoveEventListener(a.event, a.handler)
	}

	rc := &RenderContext{h: h}
	markup := h.comp.Render(rc)

	if root == nil || !morphRoot(root, markup) {
		h.target.SetInnerHTML(markup)
		root = querySelector(h.target, "*")
	}
	h.mu.Lock()
	h.root = root
	h.mu.Unlock()

	for _, handler := range rc.handlers {
		el := querySelector(h.target, handler.selector)
		if el == nil {
			continue
		}
		fn := attachDOMHandler(el, handler)
		h.mu.Lock()
		h.attached = append(h.attached, attachedListener{el: el, event: handler.event, handler: fn})
		h.mu.Unlock()
	}

	for _, sm := range h.slotMounts {
		placeholder := querySelector(h.target, fmt.Sprintf("[data-slot-mount=%q]", sm.Placeholder))
		if placeholder == nil {
			return fmt.Errorf("slot mount %q: placeholder not rendered by %T", sm.Placeholder, h.comp)
		}
		child, err := Mount(h.win, sm.Component, placeholder, &MountConfig{Props: sm.Props, Parent: h})
		if err != nil {
			return fmt.Errorf("slot mount %q: %w", sm.Placeholder, err)
		}
		h.mu.Lock()
		h.children = append(h.children, child)
		h.mu.Unlock()
	}
	return nil
}

func attachDOMHandler(el dom.Element, handler domHandler) event.EventHandler {
	fn := event.NewEventHandlerFunc(func(e *event.Event) error {
		handler.fn(el)
		return nil
	})
	el.AddEventListener(handler.event, fn)
	return fn
}

// morphRoot updates root in place when markup is a single element of the
// same tag: attributes from the new open tag are applied and the inner
// content replaced, keeping the node (and the listeners installed on it)
// alive. Returns false when the markup shape rules reuse out: different
// tag, multiple roots, or a self-closing root. Attributes absent from the
// new markup are left as they were.
func morphRoot(root dom.Element, markup string) bool {
	tag, attrs, inner, ok := splitRoot(markup)
	if !ok || !strings.EqualFold(tag, root.TagName()) {
		return false
	}
	for _, a := range attrs {
		root.SetAttribute(a[0], a[1])
	}
	root.SetInnerHTML(inner)
	return true
}

// splitRoot splits single-root markup into its tag name, open-tag
// attributes and inner content.
func splitRoot(markup string) (tag string, attrs [][2]string, inner string, ok bool) {
	s := strings.TrimSpace(markup)
	if len(s) < 3 || s[0] != '<' || !isTagChar(s[1]) {
		return "", nil, "", false
	}
	i := 1
	for i < len(s) && isTagChar(s[i]) {
		i++
	}
	tag = s[1:i]

	openEnd := -1
	for j := i; j < len(s); j++ {
		c := s[j]
		if c == '"' || c == '\'' {
			k := j + 1
			for k < len(s) && s[k] != c {
				k++
			}
			if k >= len(s) {
				return "", nil, "", false
			}
			j = k
			continue
		}
		if c == '>' {
			openEnd = j
			break
		}
	}
	if openEnd < 0 || s[openEnd-1] == '/' {
		return "", nil, "", false
	}

	closing := "</" + tag + ">"
	if !strings.HasSuffix(s, closing) || !rootWraps(s, tag) {
		return "", nil, "", false
	}

	attrs, ok = parseStaticAttrs(s[i:openEnd])
	if !ok {
		return "", nil, "", false
	}
	return tag, attrs, s[openEnd+1 : len(s)-len(closing)], true
}

// rootWraps reports whether the element opened at the start of s closes
// exactly at its end, i.e. one root wrapping all of the content.
func rootWraps(s, tag string) bool {
	depth := 0
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "</"+tag+">") {
			depth--
			i += len(tag) + 3
			if depth == 0 {
				return strings.TrimSpace(s[i:]) == ""
			}
			continue
		}
		if strings.HasPrefix(s[i:], "<"+tag) && i+1+len(tag) < len(s) && !isTagChar(s[i+1+len(tag)]) {
			depth++
			i += len(tag) + 1
			continue
		}
		i++
	}
	return false
}

func parseStaticAttrs(src string) ([][2]string, bool) {
	var attrs [][2]string
	i := 0
	for i < len(src) {
		for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
			i++
		}
		if i >= len(src) {
			break
		}
		start := i
		for i < len(src) && isAttrNameChar(src[i]) {
			i++
		}
		if i == start {
			return nil, false
		}
		name := src[start:i]
		if i < len(src) && src[i] == '=' {
			i++
			if i >= len(src) || (src[i] != '"' && src[i] != '\'') {
				return nil, false
			}
			q := src[i]
			i++
			vs := i
			for i < len(src) && src[i] != q {
				i++
			}
			if i >= len(src) {
				return nil, false
			}
			attrs = append(attrs, [2]string{name, src[vs:i]})
			i++
			continue
		}
		attrs = append(attrs, [2]string{name, ""})
	}
	return attrs, true
}

func isTagChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

func isAttrNameChar(c byte) bool {
	return isTagChar(c) || c == '_' || c == ':'
}

// querySelector wraps gost-dom's QuerySelector, flattening the no-match
// and error cases to nil.
func querySelector(root dom.Element, selector string) dom.Element {
	el, err := root.QuerySelector(selector)
	if err != nil || el == nil {
		return nil
	}
	return el
}

// Invalidate marks the handle dirty. The DOM is not touched until the next
// Settle: reactive re-rendering is batched, not immediate.
func (h *Handle) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.destroyed {
		h.dirty = true
	}
}

// Settle flushes pending re-renders. Tests must settle after any action
// that invalidated the handle (store mutation, Set) before asserting on
// DOM state.
func (h *Handle) Settle() error {
	for pass := 0; pass < maxFlushPasses; pass++ {
		h.mu.Lock()
		if h.destroyed || !h.dirty {
			h.mu.Unlock()
			return nil
		}
		h.dirty = false
		h.mu.Unlock()

		if err := h.render(); err != nil {
			return err
		}
	}
	return fmt.Errorf("settle: %T did not stabilize after %d passes", h.comp, maxFlushPasses)
}

// Set merges newProps into the handle's props and invalidates it, the
// $set(newProps) surface of the instantiation contract.
func (h *Handle) Set(newProps Props) {
	h.mu.Lock()
	for k, v := range newProps {
		h.props[k] = v
	}
	h.mu.Unlock()
	h.Invalidate()
}

func (h *Handle) prop(name string) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.props[name]
}

// On subscribes to a component-level custom event. The returned function
// removes the subscription and is idempotent.
func (h *Handle) On(event string, fn func(detail any)) (unsubscribe func()) {
	sub := &eventSub{fn: fn}
	h.mu.Lock()
	h.events[event] = append(h.events[event], sub)
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		sub.removed = true
	}
}

func (h *Handle) emit(event string, detail any) {
	h.mu.Lock()
	snapshot := make([]*eventSub, len(h.events[event]))
	copy(snapshot, h.events[event])
	h.mu.Unlock()

	for _, sub := range snapshot {
		if !sub.removed {
			sub.fn(detail)
		}
	}
}

// OnDestroy registers fn to run at Destroy, in registration order. The
// harness uses this for directive teardowns.
func (h *Handle) OnDestroy(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDestroy = append(h.onDestroy, fn)
}

// AddStoreUnsubscribe registers a bound-store unsubscribe to run at
// Destroy, after directive teardowns.
func (h *Handle) AddStoreUnsubscribe(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.storeUnsubs = append(h.storeUnsubs, fn)
}

// RootElement returns the root element of the component's rendered
// output, the node directives attach to. The same node persists across
// re-renders as long as the component keeps rendering the same root tag.
func (h *Handle) RootElement() dom.Element {
	h.mu.Lock()
	root := h.root
	h.mu.Unlock()
	if root != nil {
		return root
	}
	return querySelector(h.target, "*")
}

// Target returns the container element the component was mounted into.
func (h *Handle) Target() dom.Element {
	return h.target
}

// Destroy unmounts the component: directive teardowns run first in
// registration order, then bound-store observers are unsubscribed, then
// nested mounts are destroyed and the subtree is cleared. Idempotent; no
// subscription outlives the handle.
func (h *Handle) Destroy() {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return
	}
	h.destroyed = true
	teardowns := h.onDestroy
	unsubs := h.storeUnsubs
	children := h.children
	h.onDestroy = nil
	h.storeUnsubs = nil
	h.children = nil
	h.mu.Unlock()

	for _, fn := range teardowns {
		fn()
	}
	for _, fn := range unsubs {
		fn()
	}
	for _, child := range children {
		child.Destroy()
	}
	h.target.SetInnerHTML("")
	logging.Debug("Component", "Destroyed %T", h.comp)
}

func (h *Handle) setContext(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.contextValues == nil {
		h.contextValues = make(map[string]any)
	}
	h.contextValues[key] = value
}

func (h *Handle) lookupContext(key string) (any, bool) {
	for cur := h; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		v, ok := cur.contextValues[key]
		cur.mu.Unlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}
