package page

import (
	"context"
	"path"

	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/components"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

// IndexData is the loaded state of the index page
type IndexData struct {
	// Contents holds the raw markdown, aligned with the configured locators
	Contents []string
	Feed     []components.FeedItem
}

// Index composes the front page: the main featured post, the featured
// cards, every configured post in the feed and the sidebar.
type Index struct {
	*composer[IndexData]
	site *content.Site
}

var _ Page = (*Index)(nil)

// NewIndex creates an index composer for site
func NewIndex(site *content.Site, opts Options) *Index {
	idx := &Index{site: site}
	locators := site.Posts()
	md := opts.renderer()

	load := func(ctx context.Context) (IndexData, []fetch.Result, error) {
		contents, results, err := fetch.All(ctx, opts.Fetcher, locators)
		if err != nil {
			return IndexData{}, results, err
		}

		feed := make([]components.FeedItem, len(contents))
		for i, text := range contents {
			feed[i] = components.FeedItem{
				Source: text,
				Body:   md.Render(text, path.Dir(locators[i])),
			}
		}
		return IndexData{Contents: contents, Feed: feed}, results, nil
	}

	idx.composer = newComposer("index", opts, load, idx.view)
	return idx
}

func (idx *Index) view(s Snapshot[IndexData]) *vdom.VNode {
	return components.Index(components.IndexProps{
		MainFeatured: idx.site.MainFeatured(),
		Featured:     idx.site.Featured(),
		Feed:         s.Data.Feed,
		Sidebar:      idx.site.Sidebar(),
	})
}

// Contents returns the fetched posts in configuration order. It is empty
// unless every fetch succeeded.
func (idx *Index) Contents() []string {
	return append([]string(nil), idx.Snapshot().Data.Contents...)
}

// Results returns the per-locator outcome of the last load
func (idx *Index) Results() []fetch.Result {
	return append([]fetch.Result(nil), idx.Snapshot().Results...)
}

// Title implements Page
func (idx *Index) Title() string {
	return ""
}
