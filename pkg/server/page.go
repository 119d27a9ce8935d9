package server

import (
	"github.com/matthewriabinin/blog/pkg/page"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

// PageFactory builds a fresh composer for each request
type PageFactory func() page.Page

// PageHandler serves a page composer: it mounts a new composer, waits for
// it to settle within the request context, renders it and unmounts it.
// A page that fails to load still renders, without its content.
func PageHandler(factory PageFactory) HandlerFunc {
	return func(ctx Ctx) (*vdom.VNode, error) {
		p := factory()
		if err := p.Mount(ctx.Context()); err != nil {
			return nil, err
		}
		defer p.Unmount()

		if err := p.Wait(ctx.Context()); err != nil {
			ctx.Logger().Debug("page not settled", "error", err, "phase", p.Phase())
		}

		if title := p.Title(); title != "" {
			ctx.SetTitle(title)
		}
		return p.Render(), nil
	}
}
