package components

import (
	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/pkg/vdom"
	"github.com/matthewriabinin/blog/pkg/vex/builder"
)

// Header renders the site title and, when configured, the section links
func Header(chrome content.Chrome) *vdom.VNode {
	toolbar := builder.Div().Class("header-toolbar").Children(
		builder.H2().Class("header-title").Children(
			builder.A().Href("/").Text(chrome.Title).Build(),
		).Build(),
	).Build()

	var nav *vdom.VNode
	if len(chrome.Sections) > 0 {
		links := make([]*vdom.VNode, 0, len(chrome.Sections))
		for _, s := range chrome.Sections {
			links = append(links, builder.A().Class("header-section").Href(s.URL).Text(s.Title).Build())
		}
		nav = builder.Nav().Class("header-sections").Children(links...).Build()
	}

	return builder.Header().Class("blog-header").Children(toolbar, nav).Build()
}

// Footer renders the footer title and description
func Footer(chrome content.Chrome) *vdom.VNode {
	return builder.Footer().Class("blog-footer").Children(
		builder.H6().Class("footer-title").Text(chrome.FooterTitle).Build(),
		builder.P().Class("footer-description").Text(chrome.FooterDescription).Build(),
	).Build()
}

// Shell wraps a page body in the site header and footer
func Shell(chrome content.Chrome) func(child *vdom.VNode) *vdom.VNode {
	header := Header(chrome)
	footer := Footer(chrome)
	return func(child *vdom.VNode) *vdom.VNode {
		return builder.Div().Class("container").Children(header, child, footer).Build()
	}
}

// NotFound is the body of the 404 page
func NotFound() *vdom.VNode {
	return builder.Main().Class("not-found").Children(
		builder.H1().Text("Not found").Build(),
		builder.P().Children(builder.A().Href("/").Text("Back to the blog").Build()).Build(),
	).Build()
}

// ErrorPage is the body of the 500 page
func ErrorPage() *vdom.VNode {
	return builder.Main().Class("error").Children(
		builder.H1().Text("Something went wrong").Build(),
	).Build()
}
