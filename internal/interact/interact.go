// Package interact simulates user gestures against a mounted component.
// Every gesture settles the handle before returning, so sequential
// interactions and the assertions between them always observe flushed DOM
// state.
package interact

import (
	"fmt"

	"comptest/internal/harness"

	"github.com/gost-dom/browser/dom"
	"github.com/gost-dom/browser/dom/event"
	"github.com/gost-dom/browser/html"
)

// Click dispatches a click on the first element matching selector and
// waits for the resulting reactive updates to flush.
func Click(m *harness.Mounted, selector string) error {
	el := m.Query(selector)
	if el == nil {
		return fmt.Errorf("click %q: no element matches", selector)
	}
	if err := ClickElement(el); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return m.Settle()
}

// ClickElement clicks an element the caller already holds, for targets
// outside the mounted subtree (e.g. a sibling used to test an
// outside-click directive). The caller settles afterwards if the click
// can invalidate a handle.
func ClickElement(el dom.Element) error {
	htmlEl, ok := el.(html.HTMLElement)
	if !ok {
		return fmt.Errorf("element %T is not clickable", el)
	}
	htmlEl.Click()
	return nil
}

// Type sets the value of the first element matching selector and
// dispatches an input event, then waits for reactive updates to flush.
func Type(m *harness.Mounted, selector, text string) error {
	el := m.Query(selector)
	if el == nil {
		return fmt.Errorf("type into %q: no element matches", selector)
	}
	el.SetAttribute("value", text)
	el.DispatchEvent(event.New("input", nil))
	return m.Settle()
}
