package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/dalemusser/edirhub/internal/app/system/htmlsanitize"
)

func TestSanitize_KeepsFormatting(t *testing.T) {
	for _, in := range []string{
		"",
		"Burial support for families in Kebele 07.",
		"<p><strong>Monthly</strong> dues and <em>emergency</em> aid</p>",
		"<ul><li>Tents</li><li>Chairs</li></ul>",
	} {
		if got := htmlsanitize.Sanitize(in); got != in {
			t.Errorf("Sanitize(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestSanitize_DropsDangerousMarkup(t *testing.T) {
	tests := []struct {
		in, mustNotContain string
	}{
		{"<p>Hello</p><script>alert('xss')</script>", "<script"},
		{`<button onclick="alert(1)">Click</button>`, "onclick"},
		{`<a href="javascript:alert(1)">x</a>`, "javascript:"},
		{`<img src="x" onerror="alert(1)">`, "onerror"},
		{`<iframe src="https://example.com"></iframe>`, "<iframe"},
		{`<form action="/x"><input name="a"></form>`, "<form"},
		{`<style>body{display:none}</style>`, "<style"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.Sanitize(tt.in); strings.Contains(got, tt.mustNotContain) {
			t.Errorf("Sanitize(%q) = %q, still contains %q", tt.in, got, tt.mustNotContain)
		}
	}
}

func TestSanitize_AllowsSafeLinks(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="https://example.com">Site</a>`)
	if !strings.Contains(got, `href="https://example.com"`) {
		t.Errorf("expected link preserved, got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := htmlsanitize.StripTags("<b>Addis</b> <script>x()</script>Edir"); got != "Addis Edir" {
		t.Errorf("expected tags stripped, got %q", got)
	}
	if got := htmlsanitize.StripTags(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"Line 1\nLine 2":     "<p>Line 1<br>Line 2</p>",
		"Line 1\r\nLine 2":   "<p>Line 1<br>Line 2</p>",
		"A & B":              "<p>A &amp; B</p>",
		"<script>x</script>": "<p>&lt;script&gt;x&lt;/script&gt;</p>",
	}
	for in, want := range tests {
		if got := htmlsanitize.PlainTextToHTML(in); got != want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrepareForDisplay(t *testing.T) {
	tests := map[string]template.HTML{
		"":                                 "",
		"Hello":                            "<p>Hello</p>",
		"<p>Hello</p>":                     "<p>Hello</p>",
		"<p>Hello</p><script>x()</script>": "<p>Hello</p>",
	}
	for in, want := range tests {
		if got := htmlsanitize.PrepareForDisplay(in); got != want {
			t.Errorf("PrepareForDisplay(%q) = %q, want %q", in, got, want)
		}
	}
}
