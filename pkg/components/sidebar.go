package components

import (
	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/pkg/vdom"
	"github.com/matthewriabinin/blog/pkg/vex/builder"
)

// Sidebar renders the about box, archive links and social links.
// Entries appear exactly in the order given.
func Sidebar(sb content.SidebarConfig) *vdom.VNode {
	archives := make([]*vdom.VNode, 0, len(sb.Archives))
	for _, a := range sb.Archives {
		archives = append(archives, builder.Li().Children(
			builder.A().Href(a.URL).Text(a.Title).Build(),
		).Build())
	}

	social := make([]*vdom.VNode, 0, len(sb.Social))
	for _, s := range sb.Social {
		social = append(social, builder.Li().Children(
			builder.A().Href("#").Data("icon", s.Icon).Children(
				builder.Span().Class("social-icon").Data("icon", s.Icon).Build(),
				builder.Span().Class("social-name").Text(s.Name).Build(),
			).Build(),
		).Build())
	}

	return builder.Aside().Class("sidebar").Children(
		builder.Div().Class("sidebar-about").Children(
			builder.H6().Text(sb.Title).Build(),
			builder.P().Text(sb.Description).Build(),
		).Build(),
		builder.H6().Class("sidebar-heading").Text("Archives").Build(),
		builder.Ul().Class("sidebar-archives").Children(archives...).Build(),
		builder.H6().Class("sidebar-heading").Text("Social").Build(),
		builder.Ul().Class("sidebar-social").Children(social...).Build(),
	).Build()
}
