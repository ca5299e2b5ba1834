package convert

import (
	"strings"
	"testing"
)

func TestBBCodeToHTML(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "bold italic underline strike",
			content: "[b]a[/b] [i]b[/i] [u]c[/u] [s]d[/s]",
			want:    []string{"<strong>a</strong>", "<em>b</em>", "<u>c</u>", "<del>d</del>"},
		},
		{
			name:    "url without label",
			content: "[url]https://example.org[/url]",
			want:    []string{`<a href="https://example.org">https://example.org</a>`},
		},
		{
			name:    "url with label",
			content: "[url=https://example.org]docs[/url]",
			want:    []string{`<a href="https://example.org">docs</a>`},
		},
		{
			name:    "image",
			content: "[img]https://example.org/x.png[/img]",
			want:    []string{`<img src="https://example.org/x.png">`},
		},
		{
			name:    "quote with attribution",
			content: "[quote=alice]hello[/quote]",
			want:    []string{"<blockquote><cite>alice</cite>hello</blockquote>"},
		},
		{
			name:    "quote without attribution",
			content: "[quote]hello[/quote]",
			want:    []string{"<blockquote>hello</blockquote>"},
		},
		{
			name:    "color stripped content kept",
			content: "[color=red]warm[/color]",
			want:    []string{"warm"},
		},
		{
			name:    "size stripped content kept",
			content: "[size=200]big[/size]",
			want:    []string{"big"},
		},
		{
			name:    "list markers",
			content: "[list]\n[*] one\n[*] two\n[/list]",
			want:    []string{"<ul>", "<li>one</li>", "<li>two</li>", "</ul>"},
		},
		{
			name:    "unrecognized tag passes through literally",
			content: "[glow]shiny[/glow]",
			want:    []string{"[glow]shiny[/glow]"},
		},
		{
			name:    "case insensitive tags",
			content: "[B]loud[/B]",
			want:    []string{"<strong>loud</strong>"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := bbcodeToHTML(tc.content)
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("bbcodeToHTML(%q) = %q, want it to contain %q", tc.content, got, w)
				}
			}
		})
	}
}

func TestBBCodeToHTML_CodeBodySurvivesVerbatim(t *testing.T) {
	got := bbcodeToHTML("[code]\nif x [b]and[/b] y {\n}\n[/code]")

	if !strings.Contains(got, "<pre><code>") {
		t.Fatalf("missing code block: %q", got)
	}
	if strings.Contains(got, "<strong>") {
		t.Errorf("bbcode inside code body was substituted: %q", got)
	}
	if strings.Contains(got, "[/code]") {
		t.Errorf("code closing tag leaked: %q", got)
	}
}

func TestConvert_BBCodeEndToEnd(t *testing.T) {
	got := Convert("[quote=bob]as I said[/quote]\n[b]indeed[/b]", "bbcode")

	if !strings.Contains(got.Markdown, "**bob wrote:**") {
		t.Errorf("quote attribution lost: %q", got.Markdown)
	}
	if !strings.Contains(got.Markdown, "> ") {
		t.Errorf("blockquote prefix lost: %q", got.Markdown)
	}
	if !strings.Contains(got.Markdown, "**indeed**") {
		t.Errorf("bold lost: %q", got.Markdown)
	}
	if !strings.Contains(got.HTML, "<blockquote>") {
		t.Errorf("rendered HTML missing blockquote: %q", got.HTML)
	}
}
