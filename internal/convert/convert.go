// Package convert normalizes the legacy forum's four rich-text encodings
// (Quill delta JSON, bbcode, raw HTML, markdown) into markdown and renders a
// sanitized HTML version. Conversion cannot fail, only degrade: malformed
// input falls back to passthrough because legacy corpora routinely contain
// near-miss encodings.
package convert

import (
	"regexp"
	"strings"
)

// Result holds the two persisted representations of one piece of content.
type Result struct {
	Markdown string
	HTML     string
}

var htmlTagRe = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// Convert maps (content, format) to normalized markdown plus its sanitized
// render. format is matched case-insensitively; unknown formats go through
// shape detection.
func Convert(content, format string) Result {
	markdown := normalize(content, format)
	return Result{Markdown: markdown, HTML: renderMarkdown(markdown)}
}

func normalize(content, format string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown":
		// WYSIWYG editors left angle-bracket markup inside some
		// markdown bodies; down-convert those.
		if htmlTagRe.MatchString(content) {
			return htmlToMarkdown(content)
		}
		return content
	case "wysiwyg":
		return htmlToMarkdown(content)
	case "text", "textex":
		return content
	case "bbcode":
		return htmlToMarkdown(bbcodeToHTML(content))
	case "rich":
		if out, ok := deltaToMarkdown(content); ok {
			return out
		}
		return content
	case "html":
		return htmlToMarkdown(content)
	default:
		return normalizeByShape(content)
	}
}

// normalizeByShape guesses the encoding of content carrying an unknown
// format tag.
func normalizeByShape(content string) string {
	if looksLikeDelta(content) {
		if out, ok := deltaToMarkdown(content); ok {
			return out
		}
	}
	if strings.Contains(content, "<") {
		return htmlToMarkdown(content)
	}
	return content
}
