package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(goldhtml.WithHardWraps(), goldhtml.WithXHTML()),
	)
	sanitizer = buildSanitizer()
)

// Rendered is the derived, never persisted view of an article body.
type Rendered struct {
	HTML string
	TOC  string
}

// heading 是目录中的一个条目
type heading struct {
	level int
	id    string
	title string
}

func buildSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "div")
	return policy
}

// Render converts body markdown into sanitized HTML and a table of contents.
// The result depends on body alone. A conversion fault keeps whatever was
// produced and appends the escaped source instead of failing the read.
func Render(body string) Rendered {
	source := []byte(body)
	doc := markdownEngine.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := markdownEngine.Renderer().Render(&buf, source, doc); err != nil {
		buf.WriteString("<pre>")
		buf.WriteString(html.EscapeString(body))
		buf.WriteString("</pre>")
	}

	return Rendered{
		HTML: sanitizer.Sanitize(buf.String()),
		TOC:  buildTOC(collectHeadings(doc, source)),
	}
}

func collectHeadings(doc ast.Node, source []byte) []heading {
	var headings []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var id string
		if raw, found := h.AttributeString("id"); found {
			switch v := raw.(type) {
			case []byte:
				id = string(v)
			case string:
				id = v
			}
		}

		headings = append(headings, heading{
			level: h.Level,
			id:    id,
			title: strings.TrimSpace(plainText(h, source)),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(plainText(child, source))
		}
	}
	return sb.String()
}

// buildTOC renders nested lists the same way for any heading sequence;
// a jump of more than one level opens a single nested list.
func buildTOC(headings []heading) string {
	var sb strings.Builder
	sb.WriteString("<div class=\"toc\">\n")
	if len(headings) == 0 {
		sb.WriteString("<ul></ul>\n</div>\n")
		return sb.String()
	}

	var stack []int
	for i, h := range headings {
		switch {
		case len(stack) == 0:
			sb.WriteString("<ul>\n")
			stack = append(stack, h.level)
		case h.level > stack[len(stack)-1]:
			sb.WriteString("\n<ul>\n")
			stack = append(stack, h.level)
		default:
			sb.WriteString("</li>\n")
			for len(stack) > 1 && h.level < stack[len(stack)-1] {
				// 介于两层之间的标题留在当前子列表里
				if h.level > stack[len(stack)-2] {
					stack[len(stack)-1] = h.level
					break
				}
				stack = stack[:len(stack)-1]
				sb.WriteString("</ul>\n</li>\n")
			}
		}

		sb.WriteString("<li><a href=\"#")
		sb.WriteString(html.EscapeString(h.id))
		sb.WriteString("\">")
		sb.WriteString(html.EscapeString(h.title))
		sb.WriteString("</a>")

		if i == len(headings)-1 {
			sb.WriteString("</li>\n")
			for len(stack) > 1 {
				stack = stack[:len(stack)-1]
				sb.WriteString("</ul>\n</li>\n")
			}
			sb.WriteString("</ul>\n")
		}
	}

	sb.WriteString("</div>\n")
	return sb.String()
}
