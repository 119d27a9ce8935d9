package components

import (
	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/pkg/vdom"
	"github.com/matthewriabinin/blog/pkg/vex/builder"
)

// MainFeaturedPost renders the hero block at the top of the index
func MainFeaturedPost(post content.MainFeatured) *vdom.VNode {
	var img *vdom.VNode
	if post.Image != "" {
		img = builder.Img().Class("main-featured-image").Src(post.Image).Alt(post.ImageText).Build()
	}

	return builder.Section().Class("main-featured").Children(
		img,
		builder.Div().Class("main-featured-content").Children(
			builder.H1().Text(post.Title).Build(),
			builder.P().Class("lede").Text(post.Description).Build(),
			builder.A().Href("#").Text(post.LinkText).Build(),
		).Build(),
	).Build()
}

// FeaturedPost renders one summary card linking to the post's page.
// Cards are keyed by their link slug.
func FeaturedPost(post content.PostSummary) *vdom.VNode {
	var img *vdom.VNode
	if post.Image != "" {
		img = builder.Img().Class("featured-post-image").Src(post.Image).Alt(post.ImageText).Loading("lazy").Build()
	}

	return builder.Article().Class("featured-post").Key(post.Link).Children(
		builder.A().Href(post.Href()).Children(
			builder.Div().Class("featured-post-body").Children(
				builder.H2().Text(post.Title).Build(),
				builder.Time().Class("featured-post-date").Text(post.Date).Build(),
				builder.P().Class("featured-post-description").Text(post.Description).Build(),
				builder.Span().Class("featured-post-continue").Text("Continue reading...").Build(),
			).Build(),
			img,
		).Build(),
	).Build()
}

// FeaturedGrid lays out the featured cards in configuration order
func FeaturedGrid(posts []content.PostSummary) *vdom.VNode {
	cards := make([]*vdom.VNode, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, FeaturedPost(p))
	}
	return builder.Div().Class("featured-grid").Children(cards...).Build()
}
