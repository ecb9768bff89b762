package vtest

import (
	"strings"
	"testing"

	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/render"
)

// RenderToString renders a live subtree, live values included.
func RenderToString(n *dom.Node) string {
	r := render.NewRenderer(render.RendererConfig{LiveValues: true})
	html, err := r.RenderToString(n)
	if err != nil {
		return ""
	}
	return html
}

// ExpectContains asserts that rendered output contains expected substring.
func ExpectContains(tb testing.TB, n *dom.Node, expected string) {
	tb.Helper()
	html := RenderToString(n)
	if !strings.Contains(html, expected) {
		tb.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(tb testing.TB, n *dom.Node, unexpected string) {
	tb.Helper()
	html := RenderToString(n)
	if strings.Contains(html, unexpected) {
		tb.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that rendered output contains a specific tag.
func ExpectElement(tb testing.TB, n *dom.Node, tag string) {
	tb.Helper()
	html := RenderToString(n)
	if !strings.Contains(html, "<"+tag) {
		tb.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that rendered output contains an attribute value.
func ExpectAttribute(tb testing.TB, n *dom.Node, attr, value string) {
	tb.Helper()
	html := RenderToString(n)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		tb.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
