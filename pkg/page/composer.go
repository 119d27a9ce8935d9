// Package page holds the page composers: units that own fetch-triggered
// state and render one routed view.
//
// A composer moves through idle → loading → {loaded | failed} exactly once.
// Mount starts loading; Unmount detaches the composer, after which a late
// completion is dropped without touching state.
package page

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/matthewriabinin/blog/internal/fetch"
	"github.com/matthewriabinin/blog/pkg/markdown"
	"github.com/matthewriabinin/blog/pkg/reactive"
	"github.com/matthewriabinin/blog/pkg/scheduler"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

var (
	// ErrMounted is returned when Mount is called on a composer that has
	// already been mounted
	ErrMounted = errors.New("page already mounted")
	// ErrNotMounted is returned by Wait on a composer that was never mounted
	ErrNotMounted = errors.New("page not mounted")
)

// Phase is a composer's lifecycle state
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settled reports whether p is terminal
func (p Phase) Settled() bool {
	return p == PhaseLoaded || p == PhaseFailed
}

// Page is a mounted view the router can render
type Page interface {
	Mount(ctx context.Context) error
	Wait(ctx context.Context) error
	Unmount()
	Render() *vdom.VNode
	Phase() Phase
	// Title is the document title, empty to use the site title
	Title() string
}

// SettleFunc is told when a composer reaches a terminal phase
type SettleFunc func(page string, phase Phase, took time.Duration)

// Options are shared by all composers
type Options struct {
	Fetcher  fetch.Fetcher
	Renderer *markdown.Renderer

	// Scheduler, when set, backs the composer with a fiber that re-renders
	// on every state change
	Scheduler *scheduler.Scheduler

	Logger   *slog.Logger
	OnSettle SettleFunc
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) renderer() *markdown.Renderer {
	if o.Renderer != nil {
		return o.Renderer
	}
	return markdown.New(markdown.WithLogger(o.Logger))
}

// Snapshot is a composer's state at one point in time
type Snapshot[T any] struct {
	Phase   Phase
	Data    T
	Results []fetch.Result
	Err     error
}

type loadFunc[T any] func(ctx context.Context) (T, []fetch.Result, error)

type composer[T any] struct {
	name   string
	opts   Options
	logger *slog.Logger
	load   loadFunc[T]
	view   func(Snapshot[T]) *vdom.VNode

	state *reactive.State[Snapshot[T]]

	mu       sync.Mutex
	mounted  bool
	attached bool
	cancel   context.CancelFunc
	done     chan struct{}
	fiber    *scheduler.Fiber
}

func newComposer[T any](name string, opts Options, load loadFunc[T], view func(Snapshot[T]) *vdom.VNode) *composer[T] {
	var sched reactive.Scheduler
	if opts.Scheduler != nil {
		sched = opts.Scheduler
	}

	return &composer[T]{
		name:   name,
		opts:   opts,
		logger: opts.logger().With("page", name),
		load:   load,
		view:   view,
		state:  reactive.NewState(Snapshot[T]{Phase: PhaseIdle}, sched),
	}
}

// Mount moves the composer to loading and starts the fetch in the
// background. ctx bounds the fetch.
func (c *composer[T]) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return ErrMounted
	}
	c.mounted = true

	if s := c.opts.Scheduler; s != nil {
		c.fiber = s.CreateFiber(c.Render, nil)
		c.state.Subscribe(c.fiber)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.attached = true
	done := c.done
	c.mu.Unlock()

	// Watchers run synchronously inside Set and may call back into the
	// composer, so state is never written while c.mu is held.
	c.state.Set(Snapshot[T]{Phase: PhaseLoading})
	c.logger.Debug("page mounted")

	go c.run(ctx, done)
	return nil
}

func (c *composer[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	start := time.Now()
	data, results, err := c.load(ctx)
	took := time.Since(start)

	c.mu.Lock()
	attached := c.attached
	c.mu.Unlock()

	if !attached {
		c.logger.Debug("completion after unmount dropped", "error", err)
		return
	}

	next := Snapshot[T]{Phase: PhaseLoaded, Data: data, Results: results}
	if err != nil {
		var zero T
		next = Snapshot[T]{Phase: PhaseFailed, Data: zero, Results: results, Err: err}
		c.logger.Warn("page content not loaded", "error", err, "took", took)
	} else {
		c.logger.Debug("page content loaded", "items", len(results), "took", took)
	}
	c.state.Set(next)

	if c.opts.OnSettle != nil {
		c.opts.OnSettle(c.name, next.Phase, took)
	}
}

// Unmount cancels an in-flight fetch and detaches the composer. State is
// left as it was.
func (c *composer[T]) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return
	}
	c.attached = false
	c.cancel()

	if c.fiber != nil {
		c.state.Unsubscribe(c.fiber)
		c.opts.Scheduler.RemoveFiber(c.fiber)
		c.fiber = nil
	}
	c.logger.Debug("page unmounted", "phase", c.state.Get().Phase)
}

// Wait blocks until the fetch has settled or ctx ends
func (c *composer[T]) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return ErrNotMounted
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Phase returns the current lifecycle phase
func (c *composer[T]) Phase() Phase {
	return c.state.Get().Phase
}

// Snapshot returns the current state
func (c *composer[T]) Snapshot() Snapshot[T] {
	return c.state.Get()
}

// Watch calls fn after every state change until cancel is called
func (c *composer[T]) Watch(fn func(Snapshot[T])) (cancel func()) {
	return c.state.Watch(fn)
}

// Fiber returns the backing fiber while mounted on a scheduler
func (c *composer[T]) Fiber() *scheduler.Fiber {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fiber
}

// Render builds the view for the current state
func (c *composer[T]) Render() *vdom.VNode {
	return c.view(c.state.Get())
}
