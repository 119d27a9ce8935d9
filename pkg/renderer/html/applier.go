package html

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/matthewriabinin/blog/pkg/vdom"
)

// voidElements are HTML elements that cannot have children
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// booleanAttributes are HTML attributes that are boolean flags
var booleanAttributes = map[string]bool{
	"checked":  true,
	"disabled": true,
	"readonly": true,
	"selected": true,
	"defer":    true,
	"async":    true,
	"hidden":   true,
}

// HTMLApplier renders VNodes to HTML
type HTMLApplier struct {
	w   io.Writer
	err error
}

// NewHTMLApplier creates a new HTML applier
func NewHTMLApplier(w io.Writer) *HTMLApplier {
	return &HTMLApplier{w: w}
}

// Apply renders a VNode tree to HTML. Only full renders are supported.
func (a *HTMLApplier) Apply(prev, next *vdom.VNode) error {
	if prev != nil {
		return fmt.Errorf("html applier does not support incremental updates")
	}
	if next == nil {
		return nil
	}

	a.renderNode(next)
	return a.err
}

func (a *HTMLApplier) write(s string) {
	if a.err != nil {
		return
	}
	_, a.err = io.WriteString(a.w, s)
}

func (a *HTMLApplier) renderNode(node *vdom.VNode) {
	if node == nil || a.err != nil {
		return
	}

	switch node.Kind {
	case vdom.KindText:
		a.write(html.EscapeString(node.Text))
	case vdom.KindRaw:
		a.write(node.Text)
	case vdom.KindElement:
		a.renderElement(node)
	case vdom.KindFragment:
		for i := range node.Kids {
			a.renderNode(&node.Kids[i])
		}
	}
}

func (a *HTMLApplier) renderElement(node *vdom.VNode) {
	a.write("<")
	a.write(node.Tag)

	keys := make([]string, 0, len(node.Props))
	for key := range node.Props {
		if key == "key" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := node.Props[key]

		if booleanAttributes[key] {
			if v, ok := value.(bool); ok && v {
				a.write(" ")
				a.write(key)
			}
			continue
		}

		valueStr := fmt.Sprintf("%v", value)

		// javascript: URLs never reach href/src
		if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(valueStr)), "javascript:") {
			valueStr = "#"
		}

		a.write(" ")
		a.write(key)
		a.write(`="`)
		a.write(html.EscapeString(valueStr))
		a.write(`"`)
	}

	a.write(">")

	if voidElements[node.Tag] {
		return
	}

	rawText := node.Tag == "script" || node.Tag == "style"
	for i := range node.Kids {
		if rawText && node.Kids[i].Kind == vdom.KindText {
			a.write(node.Kids[i].Text)
			continue
		}
		a.renderNode(&node.Kids[i])
	}

	a.write("</")
	a.write(node.Tag)
	a.write(">")
}

// RenderToString is a convenience function to render a VNode to a string
func RenderToString(node *vdom.VNode) (string, error) {
	var buf strings.Builder
	if err := NewHTMLApplier(&buf).Apply(nil, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderDocument writes a full HTML document with the given title, head
// markup and body tree.
func RenderDocument(w io.Writer, title string, head []*vdom.VNode, body *vdom.VNode) error {
	doc := vdom.NewFragment(
		vdom.NewRaw("<!DOCTYPE html>"),
		vdom.NewElement("html", vdom.Props{"lang": "en"},
			vdom.NewElement("head", nil,
				append([]*vdom.VNode{
					vdom.NewElement("meta", vdom.Props{"charset": "utf-8"}),
					vdom.NewElement("meta", vdom.Props{"name": "viewport", "content": "width=device-width, initial-scale=1"}),
					vdom.NewElement("title", nil, vdom.NewText(title)),
				}, head...)...,
			),
			vdom.NewElement("body", nil, body),
		),
	)
	return NewHTMLApplier(w).Apply(nil, doc)
}
