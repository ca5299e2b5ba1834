package convert

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// downConverter turns legacy HTML into markdown. Beyond the standard
// structural rules it keeps quote attributions ("name wrote:") and spoiler
// blocks (a fixed marker plus a reveal-wrapped body the sanitizer's class
// allowlist preserves).
var downConverter = newDownConverter()

func newDownConverter() *md.Converter {
	conv := md.NewConverter("", true, nil)

	conv.AddRules(
		md.Rule{
			Filter: []string{"cite"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				content = strings.TrimSpace(content)
				if content == "" {
					return md.String("")
				}
				return md.String("**" + content + " wrote:**\n\n")
			},
		},
		md.Rule{
			Filter: []string{"div", "span", "details"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				if !isSpoiler(selec) {
					return nil
				}
				body := strings.TrimSpace(content)
				body = strings.TrimPrefix(body, "Spoiler")
				body = strings.TrimSpace(strings.TrimPrefix(body, ":"))
				out := "\n\nSpoiler: <span class=\"spoiler\">" + body + "</span>\n\n"
				return md.String(out)
			},
		},
	)

	return conv
}

func isSpoiler(selec *goquery.Selection) bool {
	if goquery.NodeName(selec) == "details" {
		return true
	}
	class, _ := selec.Attr("class")
	return strings.Contains(class, "spoiler")
}

// htmlToMarkdown down-converts HTML to markdown, returning the input
// unchanged when the converter rejects it.
func htmlToMarkdown(h string) string {
	out, err := downConverter.ConvertString(h)
	if err != nil {
		return h
	}
	return strings.TrimSpace(out)
}
