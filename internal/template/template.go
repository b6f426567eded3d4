// Package template parses the inline fragment mini-language tests use to
// instantiate a component together with constructs that have no literal
// syntax as plain function arguments: two-way bound props, event handler
// attachment, imperative directives and slotted child content.
//
// A fragment is ordinary markup with positional interpolation holes
// ({0}, {1}, ...) indexing into the argument list, the Go analog of a
// tagged template's chunks and interpolated values:
//
//	template.Parse(`
//	  <{0} bind:value={1} on:clear={2} use:{3} label="Count">
//	    <span slot="header">history</span>
//	    <p>default content</p>
//	  </{0}>`, comp, valueStore, onClear, clickOutside)
//
// Fragments are parsed once per call, never cached.
package template

import (
	"fmt"
	"strings"
	"unicode"

	"comptest/internal/component"
	"comptest/internal/store"

	"github.com/gost-dom/browser/dom"
)

// Node is one piece of parsed fragment content.
type Node interface{ node() }

// Text is literal character data, with text-position holes already
// interpolated.
type Text struct {
	Value string
}

// Element is a plain markup tag with static attributes only.
type Element struct {
	Tag      string
	Attrs    []Attr
	SlotName string
	Children []Node
}

// Attr is one static attribute on an Element.
type Attr struct {
	Name  string
	Value string
}

// ComponentNode is a component instantiation inside a fragment.
type ComponentNode struct {
	Desc *Descriptor
}

func (Text) node()          {}
func (Element) node()       {}
func (ComponentNode) node() {}

// Fragment is parsed slot content: an ordered list of nodes.
type Fragment struct {
	Nodes []Node
}

// DirectiveBinding pairs a directive with its params. Order is
// significant: attachment side effects run in source order.
type DirectiveBinding struct {
	Action component.Action
	Params any
}

// Descriptor is the component instantiation descriptor a fragment parses
// to. A prop name appears in at most one of StaticProps and BoundProps.
type Descriptor struct {
	Component   component.Component
	StaticProps map[string]any
	BoundProps  map[string]store.Writable
	Events      map[string]func(detail any)
	Directives  []DirectiveBinding
	Slots       map[string]*Fragment
}

// ParseError reports a malformed fragment: unmatched tags, malformed
// attributes, holes that do not exist. Always fatal, nothing is wired.
type ParseError struct {
	Fragment string
	Offset   int
	Msg      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template parse error at offset %d: %s\nfragment: %s",
		e.Offset, e.Msg, strings.TrimSpace(e.Fragment))
}

// WireError reports a hole whose argument has the wrong type for its
// position: bind: without a writable store, on: without a handler func,
// use: without a directive. Fatal at render time.
type WireError struct {
	Attr string
	Want string
	Got  any
}

func (e *WireError) Error() string {
	return fmt.Sprintf("cannot wire %s: want %s, got %T", e.Attr, e.Want, e.Got)
}

type parser struct {
	src  string
	pos  int
	args []any
}

// Parse parses a fragment whose root is a single component tag and
// returns its descriptor.
func Parse(fragment string, args ...any) (*Descriptor, error) {
	p := &parser{src: fragment, args: args}
	nodes, err := p.parseNodes("")
	if err != nil {
		return nil, err
	}

	var root *Descriptor
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			if strings.TrimSpace(n.Value) != "" {
				return nil, p.errAt(0, "unexpected top-level text %q", strings.TrimSpace(n.Value))
			}
		case ComponentNode:
			if root != nil {
				return nil, p.errAt(0, "fragment must contain exactly one root component tag")
			}
			root = n.Desc
		default:
			return nil, p.errAt(0, "fragment root must be a component tag, not a plain element")
		}
	}
	if root == nil {
		return nil, p.errAt(0, "fragment contains no component tag")
	}
	return root, nil
}

func (p *parser) errAt(offset int, format string, a ...any) *ParseError {
	return &ParseError{Fragment: p.src, Offset: offset, Msg: fmt.Sprintf(format, a...)}
}

// parseNodes consumes content until the matching close tag for closing, or
// end of input at the top level (closing == "").
func (p *parser) parseNodes(closing string) ([]Node, error) {
	var nodes []Node
	for p.pos < len(p.src) {
		if strings.HasPrefix(p.src[p.pos:], "</") {
			start := p.pos
			tag, err := p.parseCloseTag()
			if err != nil {
				return nil, err
			}
			if closing == "" {
				return nil, p.errAt(start, "close tag </%s> without matching open tag", tag)
			}
			if tag != closing {
				return nil, p.errAt(start, "close tag </%s> does not match open tag <%s>", tag, closing)
			}
			return nodes, nil
		}
		if p.src[p.pos] == '<' {
			n, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			continue
		}
		text, err := p.parseText()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, text)
	}
	if closing != "" {
		return nil, p.errAt(len(p.src), "open tag <%s> is never closed", closing)
	}
	return nodes, nil
}

func (p *parser) parseText() (Text, error) {
	var b strings.Builder
	for p.pos < len(p.src) && p.src[p.pos] != '<' {
		if p.src[p.pos] == '{' {
			idx, err := p.parseHole()
			if err != nil {
				return Text{}, err
			}
			b.WriteString(fmt.Sprint(p.args[idx]))
			continue
		}
		b.WriteByte(p.src[p.pos])
		p.pos++
	}
	return Text{Value: b.String()}, nil
}

func (p *parser) parseCloseTag() (string, error) {
	p.pos += len("</")
	tag, err := p.parseTagName()
	if err != nil {
		return "", err
	}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '>' {
		return "", p.errAt(p.pos, "malformed close tag </%s", tag)
	}
	p.pos++
	return tag, nil
}

// parseTagName reads either a literal tag name or a hole spelled out as
// its literal text ("{0}"), which is how open and close tags are matched
// for component references.
func (p *parser) parseTagName() (string, error) {
	if p.pos < len(p.src) && p.src[p.pos] == '{' {
		start := p.pos
		if _, err := p.parseHole(); err != nil {
			return "", err
		}
		return p.src[start:p.pos], nil
	}
	start := p.pos
	for p.pos < len(p.src) && isNameChar(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errAt(start, "expected tag name")
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseTag() (Node, error) {
	tagStart := p.pos
	p.pos++ // consume '<'

	isComponent := p.pos < len(p.src) && p.src[p.pos] == '{'
	var compRef component.Component
	tag, err := func() (string, error) {
		if !isComponent {
			return p.parseTagName()
		}
		start := p.pos
		idx, err := p.parseHole()
		if err != nil {
			return "", err
		}
		c, ok := p.args[idx].(component.Component)
		if !ok {
			return "", p.errAt(start, "tag-position hole {%d} is not a component (got %T)", idx, p.args[idx])
		}
		compRef = c
		return p.src[start:p.pos], nil
	}()
	if err != nil {
		return nil, err
	}

	attrs, selfClosed, err := p.parseAttrs(tag)
	if err != nil {
		return nil, err
	}

	var children []Node
	if !selfClosed {
		children, err = p.parseNodes(tag)
		if err != nil {
			return nil, err
		}
	}

	if isComponent {
		desc, err := p.buildDescriptor(tagStart, compRef, attrs, children)
		if err != nil {
			return nil, err
		}
		return ComponentNode{Desc: desc}, nil
	}

	el := Element{Tag: tag, Children: children}
	for _, a := range attrs {
		if a.kind != attrStatic {
			return nil, p.errAt(a.offset, "%s is only valid on component tags, not <%s>", a.name, tag)
		}
		if a.name == "slot" {
			s, ok := a.value.(string)
			if !ok || s == "" {
				return nil, p.errAt(a.offset, "slot attribute must be a non-empty string")
			}
			el.SlotName = s
			continue
		}
		el.Attrs = append(el.Attrs, Attr{Name: a.name, Value: fmt.Sprint(a.value)})
	}
	return el, nil
}

type attrKind int

const (
	attrStatic attrKind = iota
	attrBound
	attrEvent
	attrDirective
)

type rawAttr struct {
	kind   attrKind
	name   string // prop/event name, or the full source text for errors
	value  any
	params any // directive params
	offset int
}

func (p *parser) parseAttrs(tag string) ([]rawAttr, bool, error) {
	var attrs []rawAttr
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, false, p.errAt(p.pos, "open tag <%s> is never closed", tag)
		}
		if strings.HasPrefix(p.src[p.pos:], "/>") {
			p.pos += 2
			return attrs, true, nil
		}
		if p.src[p.pos] == '>' {
			p.pos++
			return attrs, false, nil
		}
		a, err := p.parseAttr()
		if err != nil {
			return nil, false, err
		}
		attrs = append(attrs, a)
	}
}

func (p *parser) parseAttr() (rawAttr, error) {
	offset := p.pos

	// use:{N} and use:{N}={M}: the directive itself is a hole.
	if strings.HasPrefix(p.src[p.pos:], "use:") {
		p.pos += len("use:")
		if p.pos >= len(p.src) || p.src[p.pos] != '{' {
			return rawAttr{}, p.errAt(offset, "use: must be followed by a directive hole, e.g. use:{0}")
		}
		holeStart := p.pos
		idx, err := p.parseHole()
		if err != nil {
			return rawAttr{}, err
		}
		a := rawAttr{kind: attrDirective, name: "use:" + p.src[holeStart:p.pos], value: p.args[idx], offset: offset}
		if p.pos < len(p.src) && p.src[p.pos] == '=' {
			p.pos++
			params, err := p.parseAttrValue()
			if err != nil {
				return rawAttr{}, err
			}
			a.params = params
		}
		return a, nil
	}

	start := p.pos
	for p.pos < len(p.src) && (isNameChar(p.src[p.pos]) || p.src[p.pos] == ':') {
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return rawAttr{}, p.errAt(offset, "expected attribute name, found %q", string(p.src[p.pos]))
	}

	kind := attrStatic
	switch {
	case strings.HasPrefix(name, "bind:"):
		kind = attrBound
		name = strings.TrimPrefix(name, "bind:")
	case strings.HasPrefix(name, "on:"):
		kind = attrEvent
		name = strings.TrimPrefix(name, "on:")
	case strings.Contains(name, ":"):
		return rawAttr{}, p.errAt(offset, "unknown attribute prefix in %q", name)
	}
	if name == "" {
		return rawAttr{}, p.errAt(offset, "attribute prefix without a name")
	}

	if p.pos >= len(p.src) || p.src[p.pos] != '=' {
		if kind != attrStatic {
			return rawAttr{}, p.errAt(offset, "%s:%s requires a value", kindPrefix(kind), name)
		}
		// Valueless static attribute, HTML boolean style.
		return rawAttr{kind: attrStatic, name: name, value: true, offset: offset}, nil
	}
	p.pos++
	value, err := p.parseAttrValue()
	if err != nil {
		return rawAttr{}, err
	}
	return rawAttr{kind: kind, name: name, value: value, offset: offset}, nil
}

func kindPrefix(k attrKind) string {
	switch k {
	case attrBound:
		return "bind"
	case attrEvent:
		return "on"
	default:
		return "use"
	}
}

// parseAttrValue reads a quoted literal or an interpolation hole.
func (p *parser) parseAttrValue() (any, error) {
	if p.pos >= len(p.src) {
		return nil, p.errAt(p.pos, "attribute value missing")
	}
	switch c := p.src[p.pos]; c {
	case '"', '\'':
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != c {
			p.pos++
		}
		if p.pos >= len(p.src) {
			return nil, p.errAt(start, "unterminated attribute value")
		}
		v := p.src[start:p.pos]
		p.pos++
		return v, nil
	case '{':
		idx, err := p.parseHole()
		if err != nil {
			return nil, err
		}
		return p.args[idx], nil
	default:
		return nil, p.errAt(p.pos, "attribute value must be quoted or a {N} hole")
	}
}

func (p *parser) parseHole() (int, error) {
	offset := p.pos
	p.pos++ // consume '{'
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start || p.pos >= len(p.src) || p.src[p.pos] != '}' {
		return 0, p.errAt(offset, "malformed interpolation hole, expected {N}")
	}
	idx := 0
	for _, c := range p.src[start:p.pos] {
		idx = idx*10 + int(c-'0')
	}
	p.pos++ // consume '}'
	if idx >= len(p.args) {
		return 0, p.errAt(offset, "hole {%d} has no argument (%d supplied)", idx, len(p.args))
	}
	return idx, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

// buildDescriptor classifies a component tag's attributes and routes its
// children into slots.
func (p *parser) buildDescriptor(offset int, comp component.Component, attrs []rawAttr, children []Node) (*Descriptor, error) {
	desc := &Descriptor{
		Component:   comp,
		StaticProps: map[string]any{},
		BoundProps:  map[string]store.Writable{},
		Events:      map[string]func(detail any){},
		Slots:       map[string]*Fragment{},
	}

	for _, a := range attrs {
		switch a.kind {
		case attrStatic:
			if _, dup := desc.BoundProps[a.name]; dup {
				return nil, p.errAt(a.offset, "prop %q is both bound and static", a.name)
			}
			if _, dup := desc.StaticProps[a.name]; dup {
				return nil, p.errAt(a.offset, "duplicate prop %q", a.name)
			}
			desc.StaticProps[a.name] = a.value
		case attrBound:
			if _, dup := desc.StaticProps[a.name]; dup {
				return nil, p.errAt(a.offset, "prop %q is both bound and static", a.name)
			}
			if _, dup := desc.BoundProps[a.name]; dup {
				return nil, p.errAt(a.offset, "duplicate bound prop %q", a.name)
			}
			w, ok := a.value.(store.Writable)
			if !ok {
				return nil, &WireError{Attr: "bind:" + a.name, Want: "store.Writable", Got: a.value}
			}
			desc.BoundProps[a.name] = w
		case attrEvent:
			fn, err := normalizeHandler(a)
			if err != nil {
				return nil, err
			}
			if _, dup := desc.Events[a.name]; dup {
				return nil, p.errAt(a.offset, "duplicate event handler on:%s", a.name)
			}
			desc.Events[a.name] = fn
		case attrDirective:
			action, err := normalizeAction(a)
			if err != nil {
				return nil, err
			}
			desc.Directives = append(desc.Directives, DirectiveBinding{Action: action, Params: a.params})
		}
	}

	if err := p.routeSlots(desc, children); err != nil {
		return nil, err
	}
	return desc, nil
}

func normalizeHandler(a rawAttr) (func(detail any), error) {
	switch fn := a.value.(type) {
	case func(detail any):
		return fn, nil
	case func():
		return func(any) { fn() }, nil
	default:
		return nil, &WireError{Attr: "on:" + a.name, Want: "func() or func(any)", Got: a.value}
	}
}

func normalizeAction(a rawAttr) (component.Action, error) {
	switch fn := a.value.(type) {
	case component.Action:
		return fn, nil
	case func(node dom.Element, params any) func():
		return component.Action(fn), nil
	default:
		return nil, &WireError{Attr: a.name, Want: "component.Action", Got: a.value}
	}
}

// routeSlots distributes a component tag's children: elements carrying a
// slot attribute go to that named slot, everything else collects into the
// default slot.
func (p *parser) routeSlots(desc *Descriptor, children []Node) error {
	appendTo := func(name string, n Node) {
		frag := desc.Slots[name]
		if frag == nil {
			frag = &Fragment{}
			desc.Slots[name] = frag
		}
		frag.Nodes = append(frag.Nodes, n)
	}

	for _, n := range children {
		switch n := n.(type) {
		case Text:
			if strings.TrimSpace(n.Value) == "" {
				continue
			}
			appendTo("", n)
		case Element:
			name := n.SlotName
			n.SlotName = ""
			appendTo(name, n)
		case ComponentNode:
			name := ""
			if s, ok := n.Desc.StaticProps["slot"].(string); ok {
				name = s
				delete(n.Desc.StaticProps, "slot")
			}
			appendTo(name, n)
		}
	}
	return nil
}
