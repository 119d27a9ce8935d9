package page

import (
	"context"
	"path"

	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/components"
	"github.com/matthewriabinin/blog/pkg/markdown"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

// SingleData is the loaded state of a single-post page
type SingleData struct {
	Content string
	Doc     markdown.Document
}

// Single composes a page showing one post
type Single struct {
	*composer[SingleData]
	locator string
}

var _ Page = (*Single)(nil)

// NewSingle creates a composer for the post at locator
func NewSingle(locator string, opts Options) *Single {
	s := &Single{locator: locator}
	md := opts.renderer()

	load := func(ctx context.Context) (SingleData, []fetch.Result, error) {
		contents, results, err := fetch.All(ctx, opts.Fetcher, []string{locator})
		if err != nil {
			return SingleData{}, results, err
		}
		text := contents[0]
		return SingleData{
			Content: text,
			Doc:     md.RenderDocument(text, path.Dir(locator)),
		}, results, nil
	}

	s.composer = newComposer("single:"+locator, opts, load, singleView)
	return s
}

func singleView(s Snapshot[SingleData]) *vdom.VNode {
	return components.Post(s.Data.Doc.Body)
}

// Locator returns the post this page shows
func (s *Single) Locator() string {
	return s.locator
}

// Content returns the fetched markdown, empty until loaded
func (s *Single) Content() string {
	return s.Snapshot().Data.Content
}

// Title implements Page
func (s *Single) Title() string {
	snap := s.Snapshot()
	if snap.Phase != PhaseLoaded {
		return ""
	}
	return snap.Data.Doc.Title()
}
