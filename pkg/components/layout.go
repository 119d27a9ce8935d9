package components

import (
	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/pkg/vdom"
	"github.com/matthewriabinin/blog/pkg/vex/builder"
)

// IndexProps is everything the index page shows
type IndexProps struct {
	MainFeatured content.MainFeatured
	Featured     []content.PostSummary
	Feed         []FeedItem
	Sidebar      content.SidebarConfig
}

// Index composes the index page body
func Index(props IndexProps) *vdom.VNode {
	return builder.Main().Class("index").Children(
		MainFeaturedPost(props.MainFeatured),
		FeaturedGrid(props.Featured),
		builder.Div().Class("main-grid").Children(
			Firehose(props.Feed),
			Sidebar(props.Sidebar),
		).Build(),
	).Build()
}

// Post wraps a single markdown body. A nil body renders an empty page.
func Post(body *vdom.VNode) *vdom.VNode {
	return builder.Main().Class("post").Children(body).Build()
}
