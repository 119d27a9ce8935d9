// Package markdown renders markdown posts into vdom trees.
//
// Parsing is done by goldmark with the GFM extensions. Instead of letting
// goldmark write HTML, the AST is walked and turned into nodes so that the
// result can be diffed and keyed like any other component output. Raw HTML
// in the source is passed through untouched.
package markdown

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/matthewriabinin/blog/pkg/vdom"
)

// Document is a rendered post
type Document struct {
	// Meta holds the front matter, empty when the post has none
	Meta map[string]any
	Body *vdom.VNode
}

// Title returns the front matter title or the text of the first h1
func (d Document) Title() string {
	if t, ok := d.Meta["title"].(string); ok && t != "" {
		return t
	}

	var title string
	d.Body.Walk(func(n *vdom.VNode) bool {
		if title != "" {
			return false
		}
		if n.Kind == vdom.KindElement && n.Tag == "h1" {
			title = n.TextContent()
			return false
		}
		return true
	})
	return title
}

// Renderer converts markdown source to vdom
type Renderer struct {
	md       goldmark.Markdown
	resolver Resolver
	logger   *slog.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithResolver sets the image resolver. The default only accepts direct URLs.
func WithResolver(r Resolver) Option {
	return func(rd *Renderer) {
		if r != nil {
			rd.resolver = r
		}
	}
}

// WithLogger sets the logger used for image resolution misses
func WithLogger(l *slog.Logger) Option {
	return func(rd *Renderer) {
		if l != nil {
			rd.logger = l
		}
	}
}

// New creates a renderer
func New(opts ...Option) *Renderer {
	r := &Renderer{
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		resolver: Direct(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts source into a <div class="markdown"> tree. base is the
// directory of the post, used to resolve relative image references.
func (r *Renderer) Render(source, base string) *vdom.VNode {
	return r.RenderDocument(source, base).Body
}

// RenderDocument is like Render but also returns the front matter
func (r *Renderer) RenderDocument(source, base string) Document {
	meta, body := r.splitFrontMatter(source)

	src := []byte(body)
	root := r.md.Parser().Parse(text.NewReader(src))

	c := converter{r: r, src: src, base: base}
	return Document{
		Meta: meta,
		Body: vdom.NewElement("div", vdom.Props{"class": "markdown"}, c.children(root)...),
	}
}

func (r *Renderer) splitFrontMatter(source string) (map[string]any, string) {
	meta := map[string]any{}
	if !strings.HasPrefix(source, "---") && !strings.HasPrefix(source, "+++") {
		return meta, source
	}

	rest, err := frontmatter.Parse(strings.NewReader(source), &meta)
	if err != nil {
		// Malformed front matter is rendered as markdown.
		r.logger.Debug("front matter not parsed", "error", err)
		return map[string]any{}, source
	}
	return meta, string(rest)
}

type converter struct {
	r    *Renderer
	src  []byte
	base string
}

func (c *converter) children(n ast.Node) []*vdom.VNode {
	var out []*vdom.VNode
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.node(child)...)
	}
	return out
}

func el(tag string, props vdom.Props, kids []*vdom.VNode) []*vdom.VNode {
	return []*vdom.VNode{vdom.NewElement(tag, props, kids...)}
}

// node converts one AST node. Most nodes map to one element; text with a
// hard line break maps to two.
func (c *converter) node(n ast.Node) []*vdom.VNode {
	switch n := n.(type) {
	case *ast.Heading:
		return el("h"+strconv.Itoa(n.Level), nil, c.children(n))

	case *ast.Paragraph:
		return el("p", nil, c.children(n))

	case *ast.TextBlock:
		// Tight list items have no paragraph wrapper.
		return c.children(n)

	case *ast.Text:
		out := []*vdom.VNode{vdom.NewText(string(n.Segment.Value(c.src)))}
		switch {
		case n.HardLineBreak():
			out = append(out, vdom.NewElement("br", nil))
		case n.SoftLineBreak():
			out = append(out, vdom.NewText("\n"))
		}
		return out

	case *ast.String:
		return []*vdom.VNode{vdom.NewText(string(n.Value))}

	case *ast.Emphasis:
		tag := "em"
		if n.Level >= 2 {
			tag = "strong"
		}
		return el(tag, nil, c.children(n))

	case *ast.Link:
		props := vdom.Props{"href": string(n.Destination)}
		if len(n.Title) > 0 {
			props["title"] = string(n.Title)
		}
		return el("a", props, c.children(n))

	case *ast.AutoLink:
		url := string(n.URL(c.src))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			url = "mailto:" + url
		}
		return el("a", vdom.Props{"href": url}, []*vdom.VNode{vdom.NewText(string(n.Label(c.src)))})

	case *ast.Image:
		return c.image(n)

	case *ast.CodeSpan:
		return el("code", nil, []*vdom.VNode{vdom.NewText(c.plain(n))})

	case *ast.FencedCodeBlock:
		var props vdom.Props
		if lang := n.Language(c.src); len(lang) > 0 {
			props = vdom.Props{"class": "language-" + string(lang)}
		}
		code := vdom.NewElement("code", props, vdom.NewText(c.lines(n)))
		return el("pre", nil, []*vdom.VNode{code})

	case *ast.CodeBlock:
		code := vdom.NewElement("code", nil, vdom.NewText(c.lines(n)))
		return el("pre", nil, []*vdom.VNode{code})

	case *ast.Blockquote:
		return el("blockquote", nil, c.children(n))

	case *ast.List:
		if !n.IsOrdered() {
			return el("ul", nil, c.children(n))
		}
		var props vdom.Props
		if n.Start != 1 {
			props = vdom.Props{"start": strconv.Itoa(n.Start)}
		}
		return el("ol", props, c.children(n))

	case *ast.ListItem:
		return el("li", nil, c.children(n))

	case *ast.ThematicBreak:
		return el("hr", nil, nil)

	case *ast.HTMLBlock:
		raw := c.lines(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(c.src))
		}
		return []*vdom.VNode{vdom.NewRaw(raw)}

	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(c.src))
		}
		return []*vdom.VNode{vdom.NewRaw(buf.String())}

	case *east.Strikethrough:
		return el("del", nil, c.children(n))

	case *east.TaskCheckBox:
		props := vdom.Props{"type": "checkbox", "disabled": true}
		if n.IsChecked {
			props["checked"] = true
		}
		return el("input", props, nil)

	case *east.Table:
		return el("table", nil, c.table(n))

	case *east.TableHeader:
		row := vdom.NewElement("tr", nil, c.cells(n, "th")...)
		return el("thead", nil, []*vdom.VNode{row})

	case *east.TableRow:
		return el("tr", nil, c.cells(n, "td"))

	default:
		return c.children(n)
	}
}

// table groups body rows under a single tbody
func (c *converter) table(t *east.Table) []*vdom.VNode {
	var head *vdom.VNode
	var rows []*vdom.VNode
	for child := t.FirstChild(); child != nil; child = child.NextSibling() {
		converted := c.node(child)
		if _, ok := child.(*east.TableHeader); ok && len(converted) > 0 {
			head = converted[0]
			continue
		}
		rows = append(rows, converted...)
	}

	out := []*vdom.VNode{head}
	if len(rows) > 0 {
		out = append(out, vdom.NewElement("tbody", nil, rows...))
	}
	return out
}

func (c *converter) cells(row ast.Node, tag string) []*vdom.VNode {
	var out []*vdom.VNode
	for child := row.FirstChild(); child != nil; child = child.NextSibling() {
		cell, ok := child.(*east.TableCell)
		if !ok {
			continue
		}
		var props vdom.Props
		if cell.Alignment != east.AlignNone {
			props = vdom.Props{"style": "text-align:" + cell.Alignment.String()}
		}
		out = append(out, vdom.NewElement(tag, props, c.children(cell)...))
	}
	return out
}

// image asks the resolver exactly once. A miss renders nothing.
func (c *converter) image(n *ast.Image) []*vdom.VNode {
	ref := string(n.Destination)
	src, ok := c.r.resolver.Resolve(c.base, ref)
	if !ok {
		c.r.logger.Debug("image not resolved", "ref", ref, "base", c.base)
		return nil
	}

	props := vdom.Props{"src": src, "alt": c.plain(n)}
	if len(n.Title) > 0 {
		props["title"] = string(n.Title)
	}
	return el("img", props, nil)
}

// plain returns the text beneath n without markup
func (c *converter) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(c.src))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// lines joins the raw lines of a block node
func (c *converter) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(c.src))
	}
	return buf.String()
}
