package convert

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// renderer parses markdown with raw HTML passthrough enabled; sanitization
// is the policy's job, not the parser's.
var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(ghtml.WithUnsafe()),
)

var policy = newPolicy()

// newPolicy builds the sanitizer: UGC defaults (so script tags and inline
// event handlers are stripped) plus width/height on images and class for
// spoiler and mention styling.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("width", "height").OnElements("img")
	p.AllowAttrs("class").OnElements("span", "div", "code", "pre")
	p.AllowElements("u", "s", "del", "ins", "cite", "details", "summary")
	return p
}

// renderMarkdown renders markdown to sanitized HTML. It cannot fail: if the
// parser rejects the input, the text is escaped and wrapped as a paragraph.
func renderMarkdown(markdown string) string {
	if markdown == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := renderer.Convert([]byte(markdown), &buf); err != nil {
		return policy.Sanitize("<p>" + html.EscapeString(markdown) + "</p>")
	}
	return policy.Sanitize(buf.String())
}
