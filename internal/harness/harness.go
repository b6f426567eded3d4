// Package harness is the component test harness entry point: it renders
// an inline template fragment into an in-memory DOM window, funneling the
// instantiation through the component runtime's single mount path so
// two-way bindings, directive attachment order and slot projection behave
// exactly as they do for a directly mounted component.
package harness

import (
	"fmt"
	"strings"
	"sync"

	"comptest/internal/component"
	"comptest/internal/store"
	"comptest/internal/template"
	"comptest/pkg/logging"

	"github.com/gost-dom/browser/dom"
	"github.com/gost-dom/browser/html"
)

const emptyDocument = "<!DOCTYPE html><html><head></head><body></body></html>"

// NewWindow creates an empty in-memory browser window to mount into.
func NewWindow() (html.Window, error) {
	win, err := html.NewWindowReader(strings.NewReader(emptyDocument))
	if err != nil {
		return nil, fmt.Errorf("creating in-memory window: %w", err)
	}
	return win, nil
}

// Mounted is the handle a test works against after Render: the component
// handle, the container element it was mounted into and the window.
type Mounted struct {
	Handle    *component.Handle
	Container dom.Element
	Window    html.Window
}

// Settle flushes batched re-renders. Call it after any action that
// mutated a bound store or component props, before asserting on the DOM.
func (m *Mounted) Settle() error {
	return m.Handle.Settle()
}

// Destroy unmounts the component. Directive teardowns and bound-store
// unsubscribes run exactly once no matter how often Destroy is called.
func (m *Mounted) Destroy() {
	m.Handle.Destroy()
}

// InnerHTML returns the current markup of the mounted subtree.
func (m *Mounted) InnerHTML() string {
	return m.Container.InnerHTML()
}

// Query returns the first element matching selector inside the mounted
// subtree, or nil.
func (m *Mounted) Query(selector string) dom.Element {
	el, err := m.Container.QuerySelector(selector)
	if err != nil || el == nil {
		return nil
	}
	return el
}

// Render parses fragment with args and mounts the described component
// into a fresh container under win's body.
//
// Wiring follows the descriptor: static props at construction, bound
// props subscribed on mount and unsubscribed on destroy, directives
// attached to the mounted root node in source order, event handlers
// attached through the handle's event surface, slot content projected
// (nested component tags in slots are mounted recursively and destroyed
// with the parent).
func Render(win html.Window, fragment string, args ...any) (*Mounted, error) {
	desc, err := template.Parse(fragment, args...)
	if err != nil {
		return nil, err
	}
	return mountDescriptor(win, desc)
}

func mountDescriptor(win html.Window, desc *template.Descriptor) (*Mounted, error) {
	container := win.Document().CreateElement("div")
	win.Document().Body().AppendChild(container)

	props := make(component.Props, len(desc.StaticProps)+len(desc.BoundProps))
	for name, v := range desc.StaticProps {
		props[name] = v
	}
	for name, st := range desc.BoundProps {
		props[name] = st
	}

	slots, slotMounts, err := projectSlots(desc.Slots)
	if err != nil {
		return nil, err
	}

	h, err := component.Mount(win, desc.Component, container, &component.MountConfig{
		Props:      props,
		Slots:      slots,
		SlotMounts: slotMounts,
	})
	if err != nil {
		return nil, err
	}

	// A bound store invalidates the handle on every change; the initial
	// synchronous notification from Subscribe is absorbed by the first
	// Settle.
	for _, st := range desc.BoundProps {
		unsubscribe := st.Subscribe(func(any) { h.Invalidate() })
		h.AddStoreUnsubscribe(unsubscribe)
	}

	for event, fn := range desc.Events {
		h.On(event, fn)
	}

	if len(desc.Directives) > 0 {
		node := h.RootElement()
		if node == nil {
			h.Destroy()
			return nil, fmt.Errorf("cannot attach directives: %T rendered no root element", desc.Component)
		}
		for _, binding := range desc.Directives {
			teardown := binding.Action(node, binding.Params)
			if teardown == nil {
				continue
			}
			once := &sync.Once{}
			td := teardown
			h.OnDestroy(func() { once.Do(td) })
		}
	}

	logging.Debug("Harness", "Rendered %T with %d static, %d bound, %d events, %d directives",
		desc.Component, len(desc.StaticProps), len(desc.BoundProps), len(desc.Events), len(desc.Directives))
	return &Mounted{Handle: h, Container: container, Window: win}, nil
}

// projectSlots renders parsed slot fragments to HTML and collects nested
// component instantiations as slot mounts.
func projectSlots(fragments map[string]*template.Fragment) (map[string]string, []component.SlotMount, error) {
	slots := make(map[string]string, len(fragments))
	var mounts []component.SlotMount

	for name, frag := range fragments {
		var b strings.Builder
		if err := renderNodes(&b, frag.Nodes, &mounts); err != nil {
			return nil, nil, err
		}
		slots[name] = b.String()
	}
	return slots, mounts, nil
}

func renderNodes(b *strings.Builder, nodes []template.Node, mounts *[]component.SlotMount) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case template.Text:
			b.WriteString(n.Value)
		case template.Element:
			b.WriteByte('<')
			b.WriteString(n.Tag)
			for _, a := range n.Attrs {
				fmt.Fprintf(b, " %s=%q", a.Name, a.Value)
			}
			b.WriteByte('>')
			if err := renderNodes(b, n.Children, mounts); err != nil {
				return err
			}
			fmt.Fprintf(b, "</%s>", n.Tag)
		case template.ComponentNode:
			// Nested component in slot content: rendered into a
			// placeholder the parent re-fills on every render pass.
			// Only prop wiring is supported at this depth.
			placeholder := fmt.Sprintf("sm%d", len(*mounts))
			props := make(component.Props, len(n.Desc.StaticProps)+len(n.Desc.BoundProps))
			for k, v := range n.Desc.StaticProps {
				props[k] = v
			}
			for k, v := range n.Desc.BoundProps {
				props[k] = v
			}
			*mounts = append(*mounts, component.SlotMount{
				Placeholder: placeholder,
				Component:   n.Desc.Component,
				Props:       props,
			})
			fmt.Fprintf(b, `<div data-slot-mount="%s"></div>`, placeholder)
		}
	}
	return nil
}

// BindValue is a convenience for tests: it creates a writable store with
// an initial value for use as a two-way bound prop.
func BindValue(initial any) store.Writable {
	return store.New(initial)
}
