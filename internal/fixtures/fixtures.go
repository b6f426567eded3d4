// Package fixtures holds the reference components and directives the
// harness is exercised against: a counter with a two-way bound value, an
// outside-click menu, components reading ambient runtime modules, and a
// provider/consumer pair for subtree context. The scenario runner mounts
// them by name; the package tests mount them directly.
package fixtures

import (
	"fmt"
	"sync"

	"comptest/internal/component"
	"comptest/internal/runtime"
	"comptest/internal/store"

	"github.com/gost-dom/browser/dom"
	"github.com/gost-dom/browser/dom/event"
)

// Recorder counts invocations of an event handler or directive callback.
type Recorder struct {
	mu    sync.Mutex
	count int
}

func (r *Recorder) Add() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Counter renders a digit button and a clear button around a two-way
// bound "value" prop. Clicking "1" appends the digit to the bound store;
// clicking "clear" resets it and dispatches a "clear" event.
type Counter struct{}

func (c *Counter) Render(rc *component.RenderContext) string {
	value := ""
	if st := rc.Bound("value"); st != nil {
		value, _ = store.Get(st).(string)
	}

	rc.OnClick("[data-testid=digit]", func(dom.Element) {
		if st := rc.Bound("value"); st != nil {
			st.Update(func(current any) any {
				s, _ := current.(string)
				return s + "1"
			})
		}
	})
	rc.OnClick("[data-testid=clear]", func(dom.Element) {
		if st := rc.Bound("value"); st != nil {
			st.Set("")
		}
		rc.Dispatch("clear", nil)
	})

	return fmt.Sprintf(`<div class="counter">`+
		`<output data-testid="value">%s</output>`+
		`<button data-testid="digit">1</button>`+
		`<button data-testid="clear">clear</button>`+
		`</div>`, value)
}

// Menu is the outside-click target: its root is the menu itself, so
// anything outside the component counts as an outside click. The item
// label can be two-way bound, making the menu re-render while a directive
// stays attached to its root.
type Menu struct{}

func (m *Menu) Render(rc *component.RenderContext) string {
	label := "menu item"
	if st := rc.Bound("label"); st != nil {
		if s, ok := store.Get(st).(string); ok && s != "" {
			label = s
		}
	}
	return fmt.Sprintf(`<nav class="menu"><button data-testid="inside">%s</button></nav>`, label)
}

// ClickOutside is a directive that invokes onOutside for every document
// click that did not pass through the node it is attached to. It tracks
// propagation through the node instead of inspecting event targets, so a
// click inside the node never counts as outside.
func ClickOutside(onOutside func()) component.Action {
	return func(node dom.Element, params any) func() {
		inside := false

		nodeListener := event.NewEventHandlerFunc(func(e *event.Event) error {
			inside = true
			return nil
		})
		docListener := event.NewEventHandlerFunc(func(e *event.Event) error {
			if inside {
				inside = false
				return nil
			}
			onOutside()
			return nil
		})

		node.AddEventListener("click", nodeListener)
		doc := node.OwnerDocument()
		doc.AddEventListener("click", docListener)

		return func() {
			node.RemoveEventListener("click", nodeListener)
			doc.RemoveEventListener("click", docListener)
		}
	}
}

// EnvBadge renders a different badge depending on the ambient "dev"
// environment flag. It declares the flag, so mounting it without a
// registered environment mock fails construction.
type EnvBadge struct{}

func (EnvBadge) RequiresModules() map[string][]string {
	return map[string][]string{runtime.ModuleEnvironment: {"dev"}}
}

func (EnvBadge) Render(rc *component.RenderContext) string {
	if rc.Flag(runtime.ModuleEnvironment, "dev") {
		return `<div data-testid="badge" class="dev">development build</div>`
	}
	return `<div data-testid="badge" class="prod">production build</div>`
}

// NavLink calls the mocked navigation module on click. With the recorder
// mock installed, no real navigation ever happens.
type NavLink struct{}

func (NavLink) RequiresModules() map[string][]string {
	return map[string][]string{runtime.ModuleNavigation: {"goto"}}
}

func (n NavLink) Render(rc *component.RenderContext) string {
	href := rc.StringProp("href")
	rc.OnClick("a", func(dom.Element) {
		v, err := rc.Module(runtime.ModuleNavigation, "goto")
		if err != nil {
			return
		}
		if goTo, ok := v.(func(string) error); ok {
			_ = goTo(href)
		}
	})
	return fmt.Sprintf(`<a data-testid="navlink" href=%q>%s</a>`, href, rc.StringProp("label"))
}

// ThemeProvider publishes its "theme" prop as subtree context and
// projects a header slot and the default slot.
type ThemeProvider struct{}

func (ThemeProvider) Render(rc *component.RenderContext) string {
	rc.SetContext("theme", rc.StringProp("theme"))
	return `<section class="themed">` +
		`<header data-testid="header">` + rc.Slot("header") + `</header>` +
		`<main data-testid="main">` + rc.Slot("") + `</main>` +
		`</section>`
}

// ThemeLabel resolves the theme from subtree context, independent of
// props.
type ThemeLabel struct{}

func (ThemeLabel) Render(rc *component.RenderContext) string {
	theme, ok := rc.Context("theme")
	if !ok {
		theme = "unset"
	}
	return fmt.Sprintf(`<span data-testid="theme">%v</span>`, theme)
}

// Echo renders its bound "text" prop and updates it from an input field,
// exercising Type simulation.
type Echo struct{}

func (Echo) Render(rc *component.RenderContext) string {
	text := ""
	if st := rc.Bound("text"); st != nil {
		text, _ = store.Get(st).(string)
	}
	rc.On("input", "input", func(el dom.Element) {
		if st := rc.Bound("text"); st != nil {
			if v, ok := el.GetAttribute("value"); ok {
				st.Set(v)
			}
		}
	})
	return fmt.Sprintf(`<div><input type="text" value=%q><p data-testid="echo">%s</p></div>`, text, text)
}
