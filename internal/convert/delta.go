package convert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// deltaOp is one operation in a Quill delta document. Insert is a string for
// text or an object for embeds (images).
type deltaOp struct {
	Insert     any            `json:"insert"`
	Attributes map[string]any `json:"attributes"`
}

// blockLine is a completed line of text plus the block attributes carried by
// the newline that terminated it. In the delta model a lone newline's
// attributes apply retroactively to the preceding line.
type blockLine struct {
	text  string
	attrs map[string]any
}

// looksLikeDelta reports whether content is plausibly a delta op array.
func looksLikeDelta(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "[") && strings.Contains(trimmed, `"insert"`)
}

// deltaToMarkdown converts a delta op sequence to markdown. ok is false when
// content fails to parse as JSON or is not delta-shaped; callers then keep
// the content unmodified.
func deltaToMarkdown(content string) (markdown string, ok bool) {
	var ops []deltaOp
	if err := json.Unmarshal([]byte(content), &ops); err != nil {
		return content, false
	}
	if len(ops) == 0 {
		return content, false
	}

	shaped := false
	for i := range ops {
		if ops[i].Insert != nil {
			shaped = true
			break
		}
	}
	if !shaped {
		return content, false
	}

	var lines []blockLine
	var cur strings.Builder

	flush := func(attrs map[string]any) {
		lines = append(lines, blockLine{text: cur.String(), attrs: attrs})
		cur.Reset()
	}

	for i := range ops {
		op := &ops[i]
		switch ins := op.Insert.(type) {
		case string:
			if ins == "\n" {
				flush(blockAttrs(op.Attributes))
				continue
			}
			parts := strings.Split(ins, "\n")
			for j, part := range parts {
				if part != "" {
					cur.WriteString(applyInline(part, op.Attributes))
				}
				if j < len(parts)-1 {
					flush(nil)
				}
			}
		case map[string]any:
			cur.WriteString(embedMarkdown(ins, op.Attributes))
		}
	}
	if cur.Len() > 0 {
		flush(nil)
	}

	return assembleLines(lines), true
}

// blockAttrs filters attrs down to the block-level keys a terminating
// newline may carry.
func blockAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	block := map[string]any{}
	for _, key := range []string{"header", "list", "blockquote", "code-block"} {
		if v, found := attrs[key]; found {
			block[key] = v
		}
	}
	if len(block) == 0 {
		return nil
	}
	return block
}

// applyInline wraps text with the markdown for its active inline attributes.
func applyInline(text string, attrs map[string]any) string {
	if len(attrs) == 0 {
		return text
	}
	if boolAttr(attrs, "code") {
		text = "`" + text + "`"
	}
	if boolAttr(attrs, "bold") {
		text = "**" + text + "**"
	}
	if boolAttr(attrs, "italic") {
		text = "*" + text + "*"
	}
	if boolAttr(attrs, "strike") {
		text = "~~" + text + "~~"
	}
	if link, found := attrs["link"].(string); found && link != "" {
		text = "[" + text + "](" + link + ")"
	}
	return text
}

// embedMarkdown renders a non-string insert, interpreted as an image embed.
// Sized images keep their dimensions via an HTML img tag, which the
// sanitizer's width/height allowlist preserves.
func embedMarkdown(ins map[string]any, attrs map[string]any) string {
	src, found := ins["image"].(string)
	if !found || src == "" {
		return ""
	}

	width := stringAttr(attrs, "width")
	height := stringAttr(attrs, "height")
	if width == "" && height == "" {
		return "![](" + src + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<img src=%q", src)
	if width != "" {
		fmt.Fprintf(&b, " width=%q", width)
	}
	if height != "" {
		fmt.Fprintf(&b, " height=%q", height)
	}
	b.WriteString(">")
	return b.String()
}

// assembleLines renders block lines to markdown, merging consecutive
// code-block lines into one fence.
func assembleLines(lines []blockLine) string {
	var out []string

	for i := 0; i < len(lines); i++ {
		l := lines[i]
		switch {
		case l.attrs == nil:
			out = append(out, l.text)
		case l.attrs["header"] != nil:
			level := intAttr(l.attrs, "header")
			if level < 1 || level > 6 {
				level = 1
			}
			out = append(out, strings.Repeat("#", level)+" "+l.text)
		case l.attrs["list"] == "ordered":
			out = append(out, "1. "+l.text)
		case l.attrs["list"] != nil:
			out = append(out, "- "+l.text)
		case boolAttr(l.attrs, "blockquote"):
			out = append(out, "> "+l.text)
		case l.attrs["code-block"] != nil:
			var code []string
			for ; i < len(lines) && lines[i].attrs != nil && lines[i].attrs["code-block"] != nil; i++ {
				code = append(code, lines[i].text)
			}
			i--
			out = append(out, "```\n"+strings.Join(code, "\n")+"\n```")
		default:
			out = append(out, l.text)
		}
	}

	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n\n")
}

func boolAttr(attrs map[string]any, key string) bool {
	v, found := attrs[key].(bool)
	return found && v
}

func intAttr(attrs map[string]any, key string) int {
	if f, found := attrs[key].(float64); found {
		return int(f)
	}
	return 0
}

func stringAttr(attrs map[string]any, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}
