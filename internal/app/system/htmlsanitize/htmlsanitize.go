// Package htmlsanitize cleans user-supplied text before it reaches a page.
//
// Card text is stored exactly as submitted and passed through the card
// policy when rendered. Room and category names are reduced to plain text
// when they are written.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	cardPolicy   = newCardPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// newCardPolicy allows the small set of inline and block formatting that
// makes sense on a sticky note.
func newCardPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "s", "code", "pre", "ul", "ol", "li", "blockquote")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize runs s through the card policy.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return cardPolicy.Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for direct use in templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes every tag from s and returns unescaped plain text.
// The result must still be escaped on output (html/template does this).
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// IsPlainText reports whether s looks like it contains no markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and turns newlines into <br>, wrapped in <p>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders card text: plain text is escaped with line
// breaks kept, anything with markup goes through the card policy.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
