package harness_test

import (
	"testing"

	"comptest/internal/component"
	"comptest/internal/fixtures"
	"comptest/internal/harness"
	"comptest/internal/interact"
	"comptest/internal/query"
	"comptest/internal/runtime"
	"comptest/internal/store"
	"comptest/internal/template"

	"github.com/gost-dom/browser/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterTwoWayBinding(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	value := store.New("")
	clears := &fixtures.Recorder{}

	m, err := harness.Render(win, `<{0} bind:value={1} on:clear={2}/>`,
		&fixtures.Counter{}, value, clears.Add)
	require.NoError(t, err)
	defer m.Destroy()

	require.NoError(t, interact.Click(m, "[data-testid=digit]"))
	require.NoError(t, interact.Click(m, "[data-testid=digit]"))
	assert.Equal(t, "11", store.Get(value), "child-side mutation is observable through the shared store")

	text, err := query.Text(m, "[data-testid=value]")
	require.NoError(t, err)
	assert.Equal(t, "11", text, "re-render after settle reflects the bound value")

	require.NoError(t, interact.Click(m, "[data-testid=clear]"))
	assert.Equal(t, "", store.Get(value))
	assert.Equal(t, 1, clears.Count(), "clear event reached the on: handler")
}

func TestParentSideStoreMutationReRenders(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	value := store.New("7")
	m, err := harness.Render(win, `<{0} bind:value={1}/>`, &fixtures.Counter{}, value)
	require.NoError(t, err)
	defer m.Destroy()

	value.Set("42")
	// Batched: nothing visible until the tick boundary.
	text, err := query.Text(m, "[data-testid=value]")
	require.NoError(t, err)
	assert.Equal(t, "7", text)

	require.NoError(t, m.Settle())
	text, err = query.Text(m, "[data-testid=value]")
	require.NoError(t, err)
	assert.Equal(t, "42", text)
}

func TestOutsideClickDirective(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	outside := &fixtures.Recorder{}
	m, err := harness.Render(win, `<{0} use:{1}/>`,
		&fixtures.Menu{}, fixtures.ClickOutside(outside.Add))
	require.NoError(t, err)
	defer m.Destroy()

	// A sibling button outside the component's subtree.
	sibling := win.Document().CreateElement("button")
	win.Document().Body().AppendChild(sibling)

	require.NoError(t, interact.ClickElement(sibling))
	require.NoError(t, m.Settle())
	assert.Equal(t, 1, outside.Count(), "outside click fires the handler exactly once")

	require.NoError(t, interact.Click(m, "[data-testid=inside]"))
	assert.Equal(t, 1, outside.Count(), "inside click must not fire the handler")

	require.NoError(t, interact.ClickElement(sibling))
	assert.Equal(t, 2, outside.Count())
}

func TestDirectiveSurvivesReRender(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	label := store.New("menu item")
	outside := &fixtures.Recorder{}
	m, err := harness.Render(win, `<{0} bind:label={1} use:{2}/>`,
		&fixtures.Menu{}, label, fixtures.ClickOutside(outside.Add))
	require.NoError(t, err)
	defer m.Destroy()

	sibling := win.Document().CreateElement("button")
	win.Document().Body().AppendChild(sibling)

	require.NoError(t, interact.ClickElement(sibling))
	require.NoError(t, m.Settle())
	require.Equal(t, 1, outside.Count())

	// Re-render through the bound store; the directive's node listeners
	// must stay live on the root the component keeps rendering.
	label.Set("updated")
	require.NoError(t, m.Settle())
	text, err := query.Text(m, "[data-testid=inside]")
	require.NoError(t, err)
	require.Equal(t, "updated", text)

	require.NoError(t, interact.Click(m, "[data-testid=inside]"))
	assert.Equal(t, 1, outside.Count(),
		"inside click after a re-render must not count as outside")

	require.NoError(t, interact.ClickElement(sibling))
	assert.Equal(t, 2, outside.Count())
}

func TestDirectiveOrderAndTeardownExactlyOnce(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	var events []string
	directive := func(name string) component.Action {
		return func(node dom.Element, params any) func() {
			events = append(events, "attach:"+name)
			return func() { events = append(events, "teardown:"+name) }
		}
	}

	m, err := harness.Render(win, `<{0} use:{1} use:{2} use:{3}/>`,
		&fixtures.Menu{}, directive("a"), directive("b"), directive("c"))
	require.NoError(t, err)

	assert.Equal(t, []string{"attach:a", "attach:b", "attach:c"}, events,
		"attachment runs in source order, after the node exists")

	m.Destroy()
	m.Destroy()
	m.Handle.Destroy()

	assert.Equal(t, []string{
		"attach:a", "attach:b", "attach:c",
		"teardown:a", "teardown:b", "teardown:c",
	}, events, "teardown preserves attachment order and runs exactly once")
}

func TestDirectiveReceivesMountedRootNode(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	var attachedTo string
	directive := func(node dom.Element, params any) func() {
		attachedTo = node.TagName()
		return nil
	}

	m, err := harness.Render(win, `<{0} use:{1}/>`, &fixtures.Menu{}, directive)
	require.NoError(t, err)
	defer m.Destroy()

	assert.Equal(t, "NAV", attachedTo)
}

func TestEnvironmentFlagSubstitution(t *testing.T) {
	runtime.Clear()
	t.Cleanup(runtime.Clear)

	win, err := harness.NewWindow()
	require.NoError(t, err)

	// Without the mock, construction fails fast, before any assertion.
	_, err = harness.Render(win, `<{0}/>`, fixtures.EnvBadge{})
	var resErr *runtime.MockResolutionError
	require.ErrorAs(t, err, &resErr)

	runtime.RegisterEnvironment(runtime.Environment{Dev: true})
	m, err := harness.Render(win, `<{0}/>`, fixtures.EnvBadge{})
	require.NoError(t, err)
	defer m.Destroy()

	text, err := query.Text(m, "[data-testid=badge]")
	require.NoError(t, err)
	assert.Equal(t, "development build", text,
		"conditional render path follows the substituted flag, no real detection")
}

func TestMockedNavigationNeverNavigates(t *testing.T) {
	runtime.Clear()
	t.Cleanup(runtime.Clear)

	rec := runtime.NewNavigationRecorder()
	runtime.RegisterNavigation(rec)

	win, err := harness.NewWindow()
	require.NoError(t, err)

	m, err := harness.Render(win, `<{0} href="/settings" label="Settings"/>`, fixtures.NavLink{})
	require.NoError(t, err)
	defer m.Destroy()

	require.NoError(t, interact.Click(m, "[data-testid=navlink]"))
	assert.Equal(t, []string{"/settings"}, rec.Gotos())
}

func TestSlotProjectionAndContext(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	m, err := harness.Render(win, `
		<{0} theme="dark">
			<h1 slot="header">Dashboard</h1>
			<p>welcome</p>
			<{1}/>
		</{0}>`, fixtures.ThemeProvider{}, fixtures.ThemeLabel{})
	require.NoError(t, err)
	defer m.Destroy()

	ok, err := query.TextContains(m, "[data-testid=header]", "Dashboard")
	require.NoError(t, err)
	assert.True(t, ok, "named slot content projects into the header region")

	ok, err = query.TextContains(m, "[data-testid=main]", "welcome")
	require.NoError(t, err)
	assert.True(t, ok, "unslotted content collects into the default slot")

	theme, err := query.Text(m, "[data-testid=theme]")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme, "slot-mounted component resolves subtree context")
}

func TestTypeSimulation(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	text := store.New("")
	m, err := harness.Render(win, `<{0} bind:text={1}/>`, fixtures.Echo{}, text)
	require.NoError(t, err)
	defer m.Destroy()

	require.NoError(t, interact.Type(m, "input", "hello world"))
	assert.Equal(t, "hello world", store.Get(text))

	echoed, err := query.Text(m, "[data-testid=echo]")
	require.NoError(t, err)
	assert.Equal(t, "hello world", echoed)
}

func TestDestroyUnsubscribesBoundStores(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	value := store.New("")
	m, err := harness.Render(win, `<{0} bind:value={1}/>`, &fixtures.Counter{}, value)
	require.NoError(t, err)

	m.Destroy()
	// No dangling subscription: mutating the store after unmount must not
	// panic or touch the removed DOM.
	value.Set("after-destroy")
	assert.Equal(t, "", m.InnerHTML())
}

func TestRenderWireErrors(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	_, err = harness.Render(win, `<{0} bind:value={1}/>`, &fixtures.Counter{}, "not a store")
	var wireErr *template.WireError
	require.ErrorAs(t, err, &wireErr)

	_, err = harness.Render(win, `<{0} use:{1}/>`, &fixtures.Menu{}, "not an action")
	require.ErrorAs(t, err, &wireErr)
}

func TestRenderParseError(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	_, err = harness.Render(win, `<{0}><p></{0}>`, &fixtures.Counter{})
	var parseErr *template.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestQueryHelpers(t *testing.T) {
	win, err := harness.NewWindow()
	require.NoError(t, err)

	value := store.New("9")
	m, err := harness.Render(win, `<{0} bind:value={1}/>`, &fixtures.Counter{}, value)
	require.NoError(t, err)
	defer m.Destroy()

	n, err := query.Count(m, "button")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	texts, err := query.ByText(m, "button")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "clear"}, texts)

	assert.True(t, query.HTMLContains(m, `data-testid="value"`))
}
