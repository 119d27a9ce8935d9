package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/matthewriabinin/blog/pkg/renderer/html"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

// HandlerFunc is the signature for route handlers
type HandlerFunc func(ctx Ctx) (*vdom.VNode, error)

// Middleware interface for before/after hooks
type Middleware interface {
	Before(ctx Ctx) error // return Stop() to abort chain
	After(ctx Ctx) error  // always called if Before succeeded
}

type route struct {
	pattern    string
	segments   []string
	exact      bool
	component  string
	handler    HandlerFunc
	middleware []Middleware
}

// RouteOption configures a route at registration
type RouteOption func(*route)

// Exact makes the route match only its own path instead of every path
// below it
func Exact() RouteOption {
	return func(rt *route) { rt.exact = true }
}

// Component names the page a route renders, for the route table
func Component(name string) RouteOption {
	return func(rt *route) { rt.component = name }
}

// WithMiddleware attaches middleware to a single route
func WithMiddleware(mw ...Middleware) RouteOption {
	return func(rt *route) { rt.middleware = append(rt.middleware, mw...) }
}

// Router matches paths against an ordered list of routes. The first route
// that matches wins. A route matches its own path and, unless registered
// with Exact, every path below it, so "/" matches everything.
type Router struct {
	routes     []*route
	notFound   HandlerFunc
	errorPage  HandlerFunc
	middleware []Middleware
	layout     Layout
	head       []*vdom.VNode
	title      string
	logger     *slog.Logger
	mu         sync.RWMutex
}

// NewRouter creates a new router instance
func NewRouter() *Router {
	return &Router{
		middleware: make([]Middleware, 0),
		logger:     slog.Default(),
	}
}

// AddRoute appends a route. Routes are tried in the order they were added.
func (r *Router) AddRoute(pattern string, handler HandlerFunc, opts ...RouteOption) {
	rt := &route{
		pattern:   "/" + strings.Trim(pattern, "/"),
		handler:   handler,
		component: pattern,
		segments:  splitPath(pattern),
	}
	for _, opt := range opts {
		opt(rt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, rt)
}

// Use adds global middleware
func (r *Router) Use(middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// SetNotFound sets the 404 handler
func (r *Router) SetNotFound(handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notFound = handler
}

// SetErrorPage sets the 500 error handler
func (r *Router) SetErrorPage(handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorPage = handler
}

// SetLayout sets the shell every page is wrapped in
func (r *Router) SetLayout(layout Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layout = layout
}

// SetDocument sets the default document title and extra head elements
func (r *Router) SetDocument(title string, head ...*vdom.VNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
	r.head = head
}

// SetLogger sets the base logger for request contexts
func (r *Router) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

// Resolve returns the pattern of the first route matching path
func (r *Router) Resolve(path string) (pattern string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt := r.find(path)
	if rt == nil {
		return "", false
	}
	return rt.pattern, true
}

// Match finds a handler for the given path. When nothing matches the
// not-found handler is returned, which may be nil.
func (r *Router) Match(path string) (HandlerFunc, []Middleware) {
	handler, middleware, _ := r.lookup(path)
	return handler, middleware
}

func (r *Router) lookup(path string) (HandlerFunc, []Middleware, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt := r.find(path)
	if rt == nil {
		return r.notFound, r.middleware, false
	}

	allMiddleware := append([]Middleware{}, r.middleware...)
	allMiddleware = append(allMiddleware, rt.middleware...)
	return rt.handler, allMiddleware, true
}

func (r *Router) find(path string) *route {
	parts := splitPath(path)
	for _, rt := range r.routes {
		if rt.match(parts) {
			return rt
		}
	}
	return nil
}

// match compares whole segments, so "/new-post" does not match
// "/new-postscript"
func (rt *route) match(parts []string) bool {
	if len(parts) < len(rt.segments) || (rt.exact && len(parts) != len(rt.segments)) {
		return false
	}
	for i, seg := range rt.segments {
		if parts[i] != seg {
			return false
		}
	}
	return true
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()

	ctx := newContext(w, req, logger)

	handler, middleware, matched := r.lookup(req.URL.Path)

	if handler == nil {
		ctx.Text(http.StatusNotFound, "Not Found")
		return
	}
	if !matched {
		ctx.Status(http.StatusNotFound)
	}

	defer func() {
		if err := recover(); err != nil {
			ctx.Logger().Error("panic in handler", "error", err)
			r.handleError(ctx, fmt.Errorf("internal server error: %v", err))
		}
	}()

	finalHandler := handler
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := finalHandler
		finalHandler = func(c Ctx) (*vdom.VNode, error) {
			if err := mw.Before(c); err != nil {
				if errors.Is(err, ErrStop) {
					return nil, nil // Middleware handled response
				}
				return nil, err
			}

			result, err := next(c)

			if afterErr := mw.After(c); afterErr != nil {
				c.Logger().Error("error in After middleware", "error", afterErr)
			}

			return result, err
		}
	}

	vnode, err := finalHandler(ctx)
	if err != nil {
		r.handleError(ctx, err)
		return
	}

	// A nil node means the response was already written
	if vnode == nil {
		return
	}

	if err := r.writePage(ctx, ctx.StatusCode(), vnode); err != nil {
		r.handleError(ctx, err)
	}
}

// writePage renders body inside the layout as a full document
func (r *Router) writePage(ctx Ctx, code int, body *vdom.VNode) error {
	r.mu.RLock()
	layout, head, title := r.layout, r.head, r.title
	r.mu.RUnlock()

	if layout != nil {
		body = layout.Wrap(body)
	}
	if t := ctx.Title(); t != "" {
		if title != "" && t != title {
			t = t + " | " + title
		}
		title = t
	}

	var buf bytes.Buffer
	if err := html.RenderDocument(&buf, title, head, body); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	impl := ctx.(*ctxImpl)
	impl.markWritten(code)
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	impl.w.WriteHeader(code)
	_, err := impl.w.Write(buf.Bytes())
	if err != nil {
		ctx.Logger().Debug("write response", "error", err)
	}
	return nil
}

// handleError renders the error page
func (r *Router) handleError(ctx Ctx, err error) {
	ctx.Logger().Error("handler error", "error", err)
	if ctx.(*ctxImpl).written() {
		return
	}
	ctx.Status(http.StatusInternalServerError)

	r.mu.RLock()
	errorPage := r.errorPage
	r.mu.RUnlock()

	if errorPage != nil {
		if vnode, pageErr := errorPage(ctx); pageErr == nil && vnode != nil {
			if r.writePage(ctx, http.StatusInternalServerError, vnode) == nil {
				return
			}
		}
	}

	ctx.Text(http.StatusInternalServerError, "Internal Server Error")
}

// Helper functions

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

// RouteTable is the ordered routing table
type RouteTable struct {
	Routes []RouteEntry `json:"routes"`
}

// RouteEntry represents a single route in the table
type RouteEntry struct {
	Path       string `json:"path"`
	Component  string `json:"component"`
	Exact      bool   `json:"exact,omitempty"`
	Middleware int    `json:"middleware,omitempty"`
}

// ExportTable returns the routes in match order
func (r *Router) ExportTable() *RouteTable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := &RouteTable{Routes: make([]RouteEntry, 0, len(r.routes))}
	for _, rt := range r.routes {
		table.Routes = append(table.Routes, RouteEntry{
			Path:       rt.pattern,
			Component:  rt.component,
			Exact:      rt.exact,
			Middleware: len(rt.middleware),
		})
	}
	return table
}
