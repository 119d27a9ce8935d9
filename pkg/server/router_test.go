package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/page"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

func textHandler(text string) HandlerFunc {
	return func(ctx Ctx) (*vdom.VNode, error) {
		return vdom.NewElement("div", nil, vdom.NewText(text)), nil
	}
}

func serve(r *Router, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_AddRoute(t *testing.T) {
	router := NewRouter()
	router.AddRoute("/test", textHandler("test"))

	matchedHandler, _ := router.Match("/test")
	if matchedHandler == nil {
		t.Fatal("Route /test was not added or could not be matched")
	}

	req := httptest.NewRequest("GET", "/test", nil)
	vnode, err := matchedHandler(NewContext(httptest.NewRecorder(), req))
	if err != nil {
		t.Errorf("Handler returned error: %v", err)
	}
	if vnode == nil {
		t.Error("Handler returned nil VNode")
	}
}

func TestRouter_Match(t *testing.T) {
	router := NewRouter()
	router.AddRoute("/new-post", textHandler("new"))
	router.AddRoute("/notes/2020", textHandler("notes"))
	router.AddRoute("/", textHandler("index"))

	tests := []struct {
		path        string
		wantPattern string
	}{
		{"/", "/"},
		{"/new-post", "/new-post"},
		{"/new-post/", "/new-post"},
		{"/new-post/draft", "/new-post"},
		{"/notes/2020", "/notes/2020"},
		{"/notes/2020/march", "/notes/2020"},
		{"/notes/2021", "/"},
		// "/" is a prefix of every path and catches anything unmatched.
		{"/notfound", "/"},
		{"/new-postscript", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			pattern, ok := router.Resolve(tt.path)
			if !ok {
				t.Fatalf("Expected match for %s", tt.path)
			}
			if pattern != tt.wantPattern {
				t.Errorf("pattern: want %s, got %s", tt.wantPattern, pattern)
			}
		})
	}
}

func TestRouter_FirstMatchWins(t *testing.T) {
	router := NewRouter()
	router.AddRoute("/", textHandler("index"))
	router.AddRoute("/new-post", textHandler("new"))

	pattern, _ := router.Resolve("/new-post")
	if pattern != "/" {
		t.Errorf("Expected the earlier \"/\" route to shadow /new-post, got %s", pattern)
	}
}

func TestRouter_ExactRoot(t *testing.T) {
	router := NewRouter()
	router.AddRoute("/new-post", textHandler("new"))
	router.AddRoute("/", textHandler("index"), Exact())

	_, ok := router.Resolve("/anything")
	assert.False(t, ok)

	w := serve(router, "/anything")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", w.Body.String())

	router.SetNotFound(textHandler("nothing here"))
	w = serve(router, "/anything")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "<div>nothing here</div>")

	w = serve(router, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<div>index</div>")
}

func TestRouter_ServeHTTP(t *testing.T) {
	router := NewRouter()
	router.SetDocument("Blog", vdom.NewElement("style", nil, vdom.NewText("body{}")))
	router.SetLayout(LayoutFunc(func(child *vdom.VNode) *vdom.VNode {
		return vdom.NewElement("div", vdom.Props{"class": "shell"}, child)
	}))
	router.AddRoute("/test", func(ctx Ctx) (*vdom.VNode, error) {
		ctx.SetTitle("Test")
		return vdom.NewElement("div", nil, vdom.NewText("Test Page")), nil
	})

	w := serve(router, "/test")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, "<title>Test | Blog</title>")
	assert.Contains(t, body, "<style>body{}</style>")
	assert.Contains(t, body, `<div class="shell"><div>Test Page</div></div>`)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestRouter_NotFound(t *testing.T) {
	router := NewRouter()

	w := serve(router, "/notfound")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRouter_ErrorsRenderErrorPage(t *testing.T) {
	router := NewRouter()
	router.SetErrorPage(textHandler("oops"))
	router.AddRoute("/fail", func(ctx Ctx) (*vdom.VNode, error) {
		return nil, errors.New("boom")
	})
	router.AddRoute("/panic", func(ctx Ctx) (*vdom.VNode, error) {
		panic("boom")
	})

	for _, path := range []string{"/fail", "/panic"} {
		w := serve(router, path)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Contains(t, w.Body.String(), "<div>oops</div>", path)
	}
}

type stopMiddleware struct{ after int }

func (m *stopMiddleware) Before(ctx Ctx) error {
	_ = ctx.Text(http.StatusTeapot, "stopped")
	return Stop()
}

func (m *stopMiddleware) After(ctx Ctx) error {
	m.after++
	return nil
}

type countMiddleware struct{ before, after int }

func (m *countMiddleware) Before(ctx Ctx) error { m.before++; return nil }
func (m *countMiddleware) After(ctx Ctx) error  { m.after++; return nil }

func TestRouter_Middleware(t *testing.T) {
	router := NewRouter()
	global := &countMiddleware{}
	stop := &stopMiddleware{}
	router.Use(global)
	router.AddRoute("/open", textHandler("open"))
	router.AddRoute("/closed", textHandler("closed"), WithMiddleware(stop))

	w := serve(router, "/open")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, global.before)
	assert.Equal(t, 1, global.after)

	w = serve(router, "/closed")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "stopped", w.Body.String())
	assert.Zero(t, stop.after)
}

func TestRouter_ExportTable(t *testing.T) {
	router := NewRouter()
	router.AddRoute("/new-post", textHandler("new"), Component("single"))
	router.AddRoute("/notes", textHandler("notes"), WithMiddleware(&countMiddleware{}))
	router.AddRoute("/", textHandler("index"), Component("index"), Exact())

	table := router.ExportTable()
	require.Len(t, table.Routes, 3)

	assert.Equal(t, RouteEntry{Path: "/new-post", Component: "single"}, table.Routes[0])
	assert.Equal(t, RouteEntry{Path: "/notes", Component: "/notes", Middleware: 1}, table.Routes[1])
	assert.Equal(t, "/", table.Routes[2].Path)
	assert.True(t, table.Routes[2].Exact)
}

func TestPageHandler(t *testing.T) {
	fsys := fstest.MapFS{"posts/new.md": {Data: []byte("# New post\n\nSoon.")}}

	router := NewRouter()
	router.SetDocument("Blog")
	router.AddRoute("/new-post", PageHandler(func() page.Page {
		return page.NewSingle("posts/new.md", page.Options{Fetcher: fetch.FSFetcher{FS: fsys}})
	}))
	router.AddRoute("/missing", PageHandler(func() page.Page {
		return page.NewSingle("posts/gone.md", page.Options{Fetcher: fetch.FSFetcher{FS: fsys}})
	}))

	w := serve(router, "/new-post")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>New post | Blog</title>")
	assert.Contains(t, w.Body.String(), "<h1>New post</h1><p>Soon.</p>")

	w = serve(router, "/missing")
	require.Equal(t, http.StatusOK, w.Code, "a failed fetch renders an empty page")
	assert.Contains(t, w.Body.String(), `<main class="post"></main>`)
	assert.Contains(t, w.Body.String(), "<title>Blog</title>")
}
