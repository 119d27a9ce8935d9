// Package builder is a fluent way of building vdom elements.
//
//	builder.Div().Class("card").Children(
//		builder.H3().Text(title).Build(),
//	).Build()
package builder

import "github.com/matthewriabinin/blog/pkg/vdom"

// ElementBuilder accumulates an element's props and children
type ElementBuilder struct {
	tag      string
	props    vdom.Props
	children []*vdom.VNode
	key      string
}

// New starts an element with the given tag
func New(tag string) *ElementBuilder {
	return &ElementBuilder{tag: tag, props: vdom.Props{}}
}

// Class sets the class attribute. Empty names are skipped.
func (b *ElementBuilder) Class(names ...string) *ElementBuilder {
	if class := joinClasses(names...); class != "" {
		b.props["class"] = class
	}
	return b
}

// ID sets the id attribute
func (b *ElementBuilder) ID(id string) *ElementBuilder {
	b.props["id"] = id
	return b
}

// Key sets the reconciliation key
func (b *ElementBuilder) Key(key string) *ElementBuilder {
	b.key = key
	return b
}

// Text appends a text child
func (b *ElementBuilder) Text(text string) *ElementBuilder {
	b.children = append(b.children, vdom.NewText(text))
	return b
}

// Children appends children; nils are ignored
func (b *ElementBuilder) Children(children ...*vdom.VNode) *ElementBuilder {
	b.children = append(b.children, children...)
	return b
}

// Build returns the element
func (b *ElementBuilder) Build() *vdom.VNode {
	var props vdom.Props
	if len(b.props) > 0 {
		props = b.props
	}
	node := vdom.NewElement(b.tag, props, b.children...)
	if b.key != "" {
		node = node.WithKey(b.key)
	}
	return node
}

func joinClasses(classes ...string) string {
	out := ""
	for _, c := range classes {
		if c == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += c
	}
	return out
}

// Div creates a div element
func Div() *ElementBuilder { return New("div") }

// Span creates a span element
func Span() *ElementBuilder { return New("span") }

// P creates a paragraph
func P() *ElementBuilder { return New("p") }

// A creates an anchor
func A() *ElementBuilder { return New("a") }

// H1 creates an h1 heading
func H1() *ElementBuilder { return New("h1") }

// H2 creates an h2 heading
func H2() *ElementBuilder { return New("h2") }

// H3 creates an h3 heading
func H3() *ElementBuilder { return New("h3") }

// H6 creates an h6 heading
func H6() *ElementBuilder { return New("h6") }

// Img creates an image
func Img() *ElementBuilder { return New("img") }

// Ul creates an unordered list
func Ul() *ElementBuilder { return New("ul") }

// Li creates a list item
func Li() *ElementBuilder { return New("li") }

// Hr creates a horizontal rule
func Hr() *ElementBuilder { return New("hr") }

// Header creates a header element
func Header() *ElementBuilder { return New("header") }

// Footer creates a footer element
func Footer() *ElementBuilder { return New("footer") }

// Nav creates a nav element
func Nav() *ElementBuilder { return New("nav") }

// Main creates a main element
func Main() *ElementBuilder { return New("main") }

// Aside creates an aside element
func Aside() *ElementBuilder { return New("aside") }

// Article creates an article element
func Article() *ElementBuilder { return New("article") }

// Section creates a section element
func Section() *ElementBuilder { return New("section") }

// Time creates a time element
func Time() *ElementBuilder { return New("time") }
