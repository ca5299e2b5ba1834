package convert

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// bbcodeCodeRe is applied before the main substitution table so code bodies
// escape the newline rewriting below.
var bbcodeCodeRe = regexp.MustCompile(`(?is)\[code\](.*?)\[/code\]`)

// bbcodeRules maps known bbcode constructs to HTML. Unrecognized tags are
// left alone and pass through literally; color and size tags keep their
// content and lose the tag.
var bbcodeRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?is)\[b\](.*?)\[/b\]`), "<strong>$1</strong>"},
	{regexp.MustCompile(`(?is)\[i\](.*?)\[/i\]`), "<em>$1</em>"},
	{regexp.MustCompile(`(?is)\[u\](.*?)\[/u\]`), "<u>$1</u>"},
	{regexp.MustCompile(`(?is)\[s\](.*?)\[/s\]`), "<del>$1</del>"},
	{regexp.MustCompile(`(?is)\[url=["']?(.*?)["']?\](.*?)\[/url\]`), `<a href="$1">$2</a>`},
	{regexp.MustCompile(`(?is)\[url\](.*?)\[/url\]`), `<a href="$1">$1</a>`},
	{regexp.MustCompile(`(?is)\[img\](.*?)\[/img\]`), `<img src="$1">`},
	{regexp.MustCompile(`(?is)\[quote=["']?(.*?)["']?\](.*?)\[/quote\]`), "<blockquote><cite>$1</cite>$2</blockquote>"},
	{regexp.MustCompile(`(?is)\[quote\](.*?)\[/quote\]`), "<blockquote>$1</blockquote>"},
	{regexp.MustCompile(`(?is)\[spoiler\](.*?)\[/spoiler\]`), `<div class="spoiler">$1</div>`},
	{regexp.MustCompile(`(?is)\[color=[^\]]*\](.*?)\[/color\]`), "$1"},
	{regexp.MustCompile(`(?is)\[size=[^\]]*\](.*?)\[/size\]`), "$1"},
	{regexp.MustCompile(`(?is)\[list\](.*?)\[/list\]`), "<ul>$1</ul>"},
	{regexp.MustCompile(`(?m)^\[\*\][ \t]*(.*)$`), "<li>$1</li>"},
}

// bbcodeToHTML converts known bbcode tags to HTML via fixed pattern
// substitution. The result is meant to be fed to htmlToMarkdown.
func bbcodeToHTML(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	// Carve out code bodies; they must survive verbatim.
	var codes []string
	content = bbcodeCodeRe.ReplaceAllStringFunc(content, func(m string) string {
		inner := bbcodeCodeRe.FindStringSubmatch(m)[1]
		codes = append(codes, inner)
		return fmt.Sprintf("\x00code%d\x00", len(codes)-1)
	})

	for _, rule := range bbcodeRules {
		content = rule.re.ReplaceAllString(content, rule.repl)
	}

	content = strings.ReplaceAll(content, "\n", "<br>")

	for i, code := range codes {
		block := "<pre><code>" + html.EscapeString(strings.Trim(code, "\n")) + "</code></pre>"
		content = strings.Replace(content, fmt.Sprintf("\x00code%d\x00", i), block, 1)
	}

	return content
}
