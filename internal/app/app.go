// Package app wires the blog together: site manifest, content source,
// markdown renderer, page routes and the outer HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/matthewriabinin/blog/internal/config"
	"github.com/matthewriabinin/blog/internal/content"
	"github.com/matthewriabinin/blog/internal/feed"
	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/internal/livereload"
	"github.com/matthewriabinin/blog/internal/metrics"
	"github.com/matthewriabinin/blog/pkg/components"
	"github.com/matthewriabinin/blog/pkg/markdown"
	"github.com/matthewriabinin/blog/pkg/page"
	"github.com/matthewriabinin/blog/pkg/scheduler"
	"github.com/matthewriabinin/blog/pkg/server"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

// Paths of the non-page endpoints
const (
	ContentPrefix = "/content/"
	MetricsPath   = "/metrics"
	LivePath      = "/live"
	FeedPath      = "/feed.xml"
)

// Options adjust how the app is assembled
type Options struct {
	Logger *slog.Logger

	// Content replaces the embedded asset bundle
	Content fs.FS

	// Watch enables the live reload endpoint and client script
	Watch bool

	// ExactRoot registers "/" so that it only matches itself; other
	// unmatched paths then get the not-found page
	ExactRoot bool
}

// App is an assembled blog
type App struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	site    *content.Site
	assets  fs.FS
	fetcher fetch.Fetcher
	md      *markdown.Renderer
	metrics *metrics.Metrics
	feed    *feed.Builder
	hub     *livereload.Hub
	router  *server.Router

	// factories maps route patterns to the composer they render
	factories map[string]func(page.Options) page.Page
}

// New assembles the app from cfg
func New(cfg *config.Config, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	a := &App{
		cfg:       cfg,
		opts:      opts,
		logger:    opts.Logger,
		assets:    opts.Content,
		metrics:   metrics.New(),
		factories: make(map[string]func(page.Options) page.Page),
	}
	if a.assets == nil {
		a.assets = content.Assets()
	}

	site, err := a.loadSite()
	if err != nil {
		return nil, err
	}
	a.site = site

	fetcher, err := a.newFetcher()
	if err != nil {
		return nil, err
	}
	a.fetcher = fetch.Observed(fetcher, a.metrics.ObserveFetch)

	a.md = markdown.New(
		markdown.WithResolver(markdown.Chain(
			markdown.Catalog(a.assets, ContentPrefix),
			markdown.Direct(),
		)),
		markdown.WithLogger(a.logger),
	)

	a.feed = feed.New(a.site, a.fetcher, a.md, a.logger)
	if opts.Watch {
		a.hub = livereload.NewHub(a.logger)
	}

	a.router = a.newRouter()
	return a, nil
}

func (a *App) loadSite() (*content.Site, error) {
	var (
		site *content.Site
		err  error
	)
	if m := a.cfg.Site.Manifest; m != "" {
		site, err = content.LoadFile(os.DirFS(filepath.Dir(m)), filepath.Base(m))
	} else {
		site, err = content.LoadFile(a.assets, "site.yaml")
	}
	if err != nil {
		return nil, err
	}

	// Posts served over HTTP cannot be checked up front.
	if a.cfg.Content.Mode == config.ModeEmbed {
		if err := site.Check(a.assets); err != nil {
			return nil, err
		}
	}
	return site, nil
}

func (a *App) newFetcher() (fetch.Fetcher, error) {
	switch a.cfg.Content.Mode {
	case config.ModeEmbed:
		return fetch.FSFetcher{FS: a.assets}, nil
	case config.ModeHTTP:
		return fetch.NewHTTPFetcher(a.cfg.Content.BaseURL, a.cfg.Content.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: content mode %q", config.ErrInvalid, a.cfg.Content.Mode)
	}
}

// PageOptions returns the options every composer is built with. sched may
// be nil.
func (a *App) PageOptions(sched *scheduler.Scheduler) page.Options {
	return page.Options{
		Fetcher:   a.fetcher,
		Renderer:  a.md,
		Scheduler: sched,
		Logger:    a.logger,
		OnSettle:  a.metrics.ObserveSettle,
	}
}

func (a *App) newRouter() *server.Router {
	r := server.NewRouter()
	r.SetLogger(a.logger)

	// Single-post pages come first: "/" would otherwise shadow them.
	for _, p := range a.site.Pages() {
		locator := p.Post
		a.addPage(r, p.Path, "single", func(opts page.Options) page.Page {
			return page.NewSingle(locator, opts)
		})
	}

	var rootOpts []server.RouteOption
	if a.opts.ExactRoot {
		rootOpts = append(rootOpts, server.Exact())
	}
	a.addPage(r, "/", "index", func(opts page.Options) page.Page {
		return page.NewIndex(a.site, opts)
	}, rootOpts...)

	chrome := a.site.Chrome()
	r.SetLayout(server.LayoutFunc(components.Shell(chrome)))
	r.SetNotFound(func(ctx server.Ctx) (*vdom.VNode, error) {
		ctx.SetTitle("Not found")
		return components.NotFound(), nil
	})
	r.SetErrorPage(func(ctx server.Ctx) (*vdom.VNode, error) {
		return components.ErrorPage(), nil
	})
	r.SetDocument(chrome.Title, a.head()...)
	return r
}

func (a *App) addPage(r *server.Router, pattern, component string, factory func(page.Options) page.Page, opts ...server.RouteOption) {
	a.factories[pattern] = factory
	handler := server.PageHandler(func() page.Page {
		return factory(a.PageOptions(nil))
	})
	r.AddRoute(pattern, handler, append(opts, server.Component(component))...)
}

func (a *App) head() []*vdom.VNode {
	head := []*vdom.VNode{
		components.Stylesheet().Node(),
		vdom.NewElement("link", vdom.Props{
			"rel":   "alternate",
			"type":  "application/atom+xml",
			"title": a.site.Feed().Title,
			"href":  FeedPath,
		}),
	}
	if a.hub != nil {
		head = append(head, livereload.Script(LivePath))
	}
	return head
}

// Page builds the composer that would serve path, without mounting it
func (a *App) Page(path string, sched *scheduler.Scheduler) (page.Page, string, error) {
	pattern, ok := a.router.Resolve(path)
	if !ok {
		return nil, "", fmt.Errorf("no page for %s", path)
	}
	return a.factories[pattern](a.PageOptions(sched)), pattern, nil
}

// Handler returns the complete HTTP surface
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(a.accessLog)

	assets := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	}).Handler(http.StripPrefix(ContentPrefix, http.FileServer(http.FS(a.assets))))

	r.PathPrefix(ContentPrefix).Handler(assets).Methods(http.MethodGet, http.MethodHead, http.MethodOptions)
	r.Handle(MetricsPath, a.metrics.Handler()).Methods(http.MethodGet)
	r.Handle(FeedPath, a.feed).Methods(http.MethodGet)
	if a.hub != nil {
		r.Handle(LivePath, a.hub)
	}
	r.PathPrefix("/").Handler(a.router).Methods(http.MethodGet, http.MethodHead)
	return r
}

// statusRecorder remembers the status written through it
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the
// underlying writer
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (a *App) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == LivePath {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start),
		)
	})
}

// WatchContent reloads connected browsers when files under dir change.
// It blocks until ctx ends.
func (a *App) WatchContent(ctx context.Context, dir string) error {
	if a.hub == nil {
		return errors.New("live reload is not enabled")
	}
	w, err := livereload.NewWatcher(dir, livereload.DefaultDebounce, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("watching content", "dir", dir)
	return w.Run(ctx, a.hub.Reload)
}

// Router returns the page router
func (a *App) Router() *server.Router { return a.router }

// Site returns the loaded site manifest
func (a *App) Site() *content.Site { return a.site }

// Metrics returns the app's collectors
func (a *App) Metrics() *metrics.Metrics { return a.metrics }
