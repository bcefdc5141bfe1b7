// Package htmlsanitize cleans user-supplied HTML, such as Edir descriptions
// submitted with a creation request, before it is stored or rendered.
package htmlsanitize

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
)

func policies() {
	rich = bluemonday.UGCPolicy()
	rich.AllowAttrs("class").OnElements("table", "tr", "td", "th", "p", "span")
	rich.AllowElements("u", "s", "mark")
	rich.RequireNoFollowOnLinks(false)

	strict = bluemonday.StrictPolicy()
}

// Sanitize keeps basic formatting (paragraphs, emphasis, lists, tables,
// links) and drops scripts, styles, frames and event handlers.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	once.Do(policies)
	return strings.TrimSpace(rich.Sanitize(s))
}

// SanitizeToHTML sanitizes s and marks it safe for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes all markup and returns plain text.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	once.Do(policies)
	return strings.TrimSpace(strict.Sanitize(s))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<")
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into line breaks.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = template.HTMLEscapeString(l)
	}
	return "<p>" + strings.Join(lines, "<br>") + "</p>"
}

// PrepareForDisplay renders stored text as safe HTML: plain text becomes a
// paragraph, markup is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
