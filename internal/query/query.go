// Package query provides DOM query helpers for assertions against a
// mounted component: live-element lookups through the in-memory window
// and goquery-backed matching over the rendered markup.
package query

import (
	"fmt"
	"strings"

	"comptest/internal/harness"

	"github.com/PuerkitoBio/goquery"
)

// Text returns the text content of the first live element matching
// selector, or an error if nothing matches.
func Text(m *harness.Mounted, selector string) (string, error) {
	el := m.Query(selector)
	if el == nil {
		return "", fmt.Errorf("query %q: no element matches", selector)
	}
	return strings.TrimSpace(el.TextContent()), nil
}

// document parses the mounted subtree's current markup for structural
// matching.
func document(m *harness.Mounted) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(m.InnerHTML()))
	if err != nil {
		return nil, fmt.Errorf("parsing mounted markup: %w", err)
	}
	return doc, nil
}

// Count returns how many elements match selector in the rendered markup.
func Count(m *harness.Mounted, selector string) (int, error) {
	doc, err := document(m)
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

// TextContains reports whether the first element matching selector
// contains want in its text.
func TextContains(m *harness.Mounted, selector, want string) (bool, error) {
	doc, err := document(m)
	if err != nil {
		return false, err
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return false, fmt.Errorf("query %q: no element matches", selector)
	}
	return strings.Contains(sel.First().Text(), want), nil
}

// HTMLContains reports whether the rendered markup contains the literal
// fragment.
func HTMLContains(m *harness.Mounted, fragment string) bool {
	return strings.Contains(m.InnerHTML(), fragment)
}

// ByText returns a CSS-free lookup: the text of every element matching
// selector, in document order. Useful for asserting lists.
func ByText(m *harness.Mounted, selector string) ([]string, error) {
	doc, err := document(m)
	if err != nil {
		return nil, err
	}
	var texts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	return texts, nil
}
