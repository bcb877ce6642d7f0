package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const snippetLength = 200

// RenderedContent is a post body converted for display.
type RenderedContent struct {
	HTML    string
	Snippet string
}

// ContentRenderer converts post content, written in markdown, into HTML.
type ContentRenderer interface {
	Render(content string) (*RenderedContent, error)
}

type imageLinkTransformer struct {
	prefix string
}

// Transform points relative image references at the image route.
func (t *imageLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(img.Destination)
		if isRelativeLink(dest) {
			img.Destination = []byte(t.prefix + "/" + path.Base(dest))
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if dest == "" {
		return false
	}

	if strings.HasPrefix(dest, "/") {
		return !strings.HasPrefix(dest, "//")
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}

type markdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer returns a GFM renderer. Raw HTML in content is dropped
// and relative images resolve under imagePrefix (e.g. "/images").
func NewMarkdownRenderer(imagePrefix string) ContentRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&imageLinkTransformer{prefix: strings.TrimSuffix(imagePrefix, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &markdownRenderer{md: md}
}

func (r *markdownRenderer) Render(content string) (*RenderedContent, error) {
	source := []byte(content)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &RenderedContent{
		HTML:    buf.String(),
		Snippet: extractSnippet(doc, source),
	}, nil
}

// extractSnippet returns the plain text of the first top-level paragraph
// that has any, cut at a word boundary once it exceeds snippetLength runes.
func extractSnippet(doc ast.Node, source []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() != ast.KindParagraph {
			continue
		}
		if plain := plainText(n, source); plain != "" {
			return truncateWords(plain, snippetLength)
		}
	}
	return ""
}

// plainText joins the text of n's inline children with single spaces.
// Images and raw HTML contribute nothing.
func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := child.(type) {
		case *ast.Image, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			sb.Write(node.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(node.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(sb.String()), " ")
}

func truncateWords(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	cut := string([]rune(s)[:limit])
	if lastSpace := strings.LastIndexByte(cut, ' '); lastSpace > 0 {
		cut = cut[:lastSpace]
	}
	return cut + "..."
}
