package catalog

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy

	linkPolicyOnce sync.Once
	linkPolicy     *bluemonday.Policy
)

// plainText strips markup from a user-entered value and returns literal text.
func plainText(s string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// safeURL reports whether u survives a policy that only admits standard URL
// schemes (http, https, mailto) and relative links on anchors.
func safeURL(u string) bool {
	linkPolicyOnce.Do(func() {
		linkPolicy = bluemonday.NewPolicy()
		linkPolicy.AllowStandardURLs()
		linkPolicy.AllowRelativeURLs(true)
		linkPolicy.AllowAttrs("href").OnElements("a")
	})
	out := linkPolicy.Sanitize(`<a href="` + html.EscapeString(u) + `">x</a>`)
	return strings.Contains(out, "href=")
}
