// Package feed publishes the single-post pages as an Atom feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	atom "github.com/thomas11/atomgenerator"

	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/markdown"
	"github.com/matthewriabinin/blog/pkg/renderer/html"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

// Builder renders the feed on demand
type Builder struct {
	site    *content.Site
	fetcher fetch.Fetcher
	md      *markdown.Renderer
	logger  *slog.Logger

	// Updated is used for entries without a date
	Updated time.Time
}

// New creates a feed builder. md may be nil.
func New(site *content.Site, f fetch.Fetcher, md *markdown.Renderer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if md == nil {
		md = markdown.New(markdown.WithLogger(logger))
	}
	return &Builder{
		site:    site,
		fetcher: f,
		md:      md,
		logger:  logger.With("component", "feed"),
		Updated: time.Now(),
	}
}

// Build fetches every page's post and returns the feed XML. Links are
// made absolute against baseURL.
func (b *Builder) Build(ctx context.Context, baseURL string) ([]byte, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	pages := b.site.Pages()

	locators := make([]string, len(pages))
	for i, p := range pages {
		locators[i] = p.Post
	}
	contents, _, err := fetch.All(ctx, b.fetcher, locators)
	if err != nil {
		return nil, fmt.Errorf("fetch feed posts: %w", err)
	}

	cfg := b.site.Feed()
	feed := atom.Feed{
		Title:   cfg.Title,
		Link:    baseURL + "/",
		PubDate: b.Updated,
	}
	feed.AddAuthor(atom.Author{
		Name: cfg.Author,
		Uri:  cfg.AuthorURI,
	})

	for i, p := range pages {
		entry, err := b.entry(p, contents[i], baseURL)
		if err != nil {
			return nil, err
		}
		if entry.PubDate.After(feed.PubDate) {
			feed.PubDate = entry.PubDate
		}
		feed.AddEntry(entry)
	}

	if errs := feed.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid feed: %w", errors.Join(errs...))
	}
	return feed.GenXml()
}

func (b *Builder) entry(p content.SinglePage, source, baseURL string) (*atom.Entry, error) {
	doc := b.md.RenderDocument(source, path.Dir(p.Post))

	body, err := html.RenderToString(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", p.Post, err)
	}

	title := doc.Title()
	if title == "" {
		title = p.Path
	}

	description, _ := doc.Meta["description"].(string)
	if description == "" {
		description = firstParagraph(doc.Body)
	}

	return &atom.Entry{
		Title:       title,
		Description: description,
		Link:        baseURL + p.Path,
		PubDate:     b.date(doc.Meta),
		Content:     body,
	}, nil
}

// date reads a "date" front matter value, either a YAML timestamp or
// YYYY-MM-DD text
func (b *Builder) date(meta map[string]any) time.Time {
	switch d := meta["date"].(type) {
	case time.Time:
		return d
	case string:
		if t, err := time.Parse(time.DateOnly, d); err == nil {
			return t
		}
		b.logger.Debug("unparsed post date", "date", d)
	}
	return b.Updated
}

func firstParagraph(body *vdom.VNode) string {
	var text string
	body.Walk(func(n *vdom.VNode) bool {
		if text != "" {
			return false
		}
		if n.Kind == vdom.KindElement && n.Tag == "p" {
			text = strings.Join(strings.Fields(n.TextContent()), " ")
			return false
		}
		return true
	})
	return text
}

// ServeHTTP writes the feed, using the request's host as the base URL
func (b *Builder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	xml, err := b.Build(r.Context(), BaseURL(r))
	if err != nil {
		b.logger.Warn("feed not built", "error", err)
		http.Error(w, "feed unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	_, _ = w.Write(xml)
}

// BaseURL returns scheme://host for r, honouring X-Forwarded-Proto
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
