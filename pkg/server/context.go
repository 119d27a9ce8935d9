package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
)

var (
	// ErrStop is a sentinel error used by middleware to stop the chain
	ErrStop = errors.New("blog: stop middleware chain")
)

// Stop returns the sentinel error to halt middleware chain execution
func Stop() error {
	return ErrStop
}

// Ctx is the canonical interface passed through routing, middleware, and page handlers
type Ctx interface {
	// === Request ===
	Request() *http.Request // raw request pointer (read-only)
	Path() string           // path without query string
	Method() string         // GET, POST, etc.

	// === Response ===
	Status(code int)                 // set HTTP status (default 200)
	StatusCode() int                 // current status
	Header() http.Header             // writeable headers
	SetHeader(key, val string)       // convenience
	Text(code int, msg string) error // write text/plain

	// === Document ===
	SetTitle(title string) // page title, joined with the site title
	Title() string

	// === Internal ===
	Context() context.Context // request context, ends when the client goes away
	Done() <-chan struct{}
	Logger() *slog.Logger // structured logger
}

// ctxImpl is the internal implementation of Ctx
type ctxImpl struct {
	req           *http.Request
	w             http.ResponseWriter
	statusCode    int
	title         string
	logger        *slog.Logger
	headerWritten bool
	mu            sync.RWMutex
}

// NewContext creates a new context for handling a request
func NewContext(w http.ResponseWriter, r *http.Request) Ctx {
	return newContext(w, r, slog.Default())
}

func newContext(w http.ResponseWriter, r *http.Request, base *slog.Logger) Ctx {
	logger := base.With(
		"path", r.URL.Path,
		"method", r.Method,
	)

	return &ctxImpl{
		req:        r,
		w:          w,
		statusCode: http.StatusOK,
		logger:     logger,
	}
}

// === Request Methods ===

func (c *ctxImpl) Request() *http.Request {
	return c.req
}

func (c *ctxImpl) Path() string {
	return c.req.URL.Path
}

func (c *ctxImpl) Method() string {
	return c.req.Method
}

// === Response Methods ===

func (c *ctxImpl) Status(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.headerWritten {
		c.logger.Warn("attempted to set status after headers written", "code", code)
		return
	}
	c.statusCode = code
}

func (c *ctxImpl) StatusCode() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusCode
}

func (c *ctxImpl) Header() http.Header {
	return c.w.Header()
}

func (c *ctxImpl) SetHeader(key, val string) {
	c.w.Header().Set(key, val)
}

func (c *ctxImpl) Text(code int, msg string) error {
	c.markWritten(code)

	c.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.w.WriteHeader(code)

	_, err := c.w.Write([]byte(msg))
	return err
}

func (c *ctxImpl) markWritten(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCode = code
	c.headerWritten = true
}

func (c *ctxImpl) written() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headerWritten
}

// === Document Methods ===

func (c *ctxImpl) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.title = title
}

func (c *ctxImpl) Title() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.title
}

// === Internal ===

func (c *ctxImpl) Context() context.Context {
	return c.req.Context()
}

func (c *ctxImpl) Done() <-chan struct{} {
	return c.req.Context().Done()
}

func (c *ctxImpl) Logger() *slog.Logger {
	return c.logger
}
