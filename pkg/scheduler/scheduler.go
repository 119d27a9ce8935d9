package scheduler

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/matthewriabinin/blog/pkg/vdom"
)

// RenderFunc is the function type for component render functions
type RenderFunc func() *vdom.VNode

// ErrorHandler handles panics during rendering.
// Returns true to keep the fiber scheduled, false to remove it.
type ErrorHandler func(fiber *Fiber, err interface{}) bool

// Fiber is the execution context of one mounted component
type Fiber struct {
	id     uint32
	parent *Fiber

	mu    sync.Mutex
	vnode *vdom.VNode // last rendered tree

	render  RenderFunc
	dirty   atomic.Bool
	onError ErrorHandler
}

// Scheduler re-renders dirty fibers and hands the resulting patches to an
// applier.
type Scheduler struct {
	mu         sync.Mutex
	fibers     map[uint32]*Fiber
	nextID     uint32
	globalWake chan *Fiber
	stop       chan struct{}
	running    atomic.Bool
	logger     *slog.Logger

	applyPatches func(patches []vdom.Patch)
	defaultError ErrorHandler
}

// NewScheduler creates a new scheduler instance
func NewScheduler() *Scheduler {
	return &Scheduler{
		fibers:     make(map[uint32]*Fiber),
		nextID:     1,
		globalWake: make(chan *Fiber, 1024),
		logger:     slog.Default(),
	}
}

// SetLogger replaces the scheduler's logger
func (s *Scheduler) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetPatchApplier sets the function that receives patches after a re-render
func (s *Scheduler) SetPatchApplier(applier func(patches []vdom.Patch)) {
	s.applyPatches = applier
}

// SetDefaultErrorHandler sets the error handler given to new fibers
func (s *Scheduler) SetDefaultErrorHandler(handler ErrorHandler) {
	s.defaultError = handler
}

// CreateFiber creates a new fiber for a component
func (s *Scheduler) CreateFiber(render RenderFunc, parent *Fiber) *Fiber {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	fiber := &Fiber{
		id:      id,
		parent:  parent,
		render:  render,
		onError: s.defaultError,
	}

	s.fibers[id] = fiber
	return fiber
}

// RemoveFiber removes a fiber from the scheduler. Pending renders for a
// removed fiber are skipped.
func (s *Scheduler) RemoveFiber(fiber *Fiber) {
	if fiber == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.fibers, fiber.id)
}

// MarkDirty marks a fiber as needing re-render
func (s *Scheduler) MarkDirty(fiber *Fiber) {
	if fiber == nil || !fiber.dirty.CompareAndSwap(false, true) {
		return
	}

	if !s.running.Load() {
		// Picked up by the next Flush.
		return
	}

	select {
	case s.globalWake <- fiber:
	default:
		s.logger.Warn("scheduler wake queue full", "fiber", fiber.id)
	}
}

// Start begins the scheduler loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.stop = make(chan struct{})
	go s.loop(s.stop)

	// Fibers marked while stopped are queued now.
	for _, f := range s.fibers {
		if f.dirty.Load() {
			select {
			case s.globalWake <- f:
			default:
			}
		}
	}
}

// Stop stops the scheduler loop
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.CompareAndSwap(true, false) {
		close(s.stop)
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) loop(stop <-chan struct{}) {
	for {
		var fiber *Fiber
		select {
		case <-stop:
			return
		case fiber = <-s.globalWake:
		}

		batch := []*Fiber{fiber}
	drain:
		for {
			select {
			case f := <-s.globalWake:
				batch = append(batch, f)
			default:
				break drain
			}
		}

		for _, f := range batch {
			s.processFiber(f)
		}
	}
}

// Flush synchronously renders every dirty fiber. It is meant for callers
// that drive the scheduler without starting the loop.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	fibers := make([]*Fiber, 0, len(s.fibers))
	for _, f := range s.fibers {
		fibers = append(fibers, f)
	}
	s.mu.Unlock()

	for _, f := range fibers {
		s.processFiber(f)
	}
}

// processFiber renders a single fiber and applies patches
func (s *Scheduler) processFiber(fiber *Fiber) {
	if !fiber.dirty.CompareAndSwap(true, false) {
		return
	}
	if s.GetFiber(fiber.id) == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.handleFiberError(fiber, r)
		}
	}()

	next := fiber.render()

	fiber.mu.Lock()
	patches := vdom.Diff(fiber.vnode, next)
	fiber.vnode = next
	fiber.mu.Unlock()

	s.logger.Debug("fiber rendered", "fiber", fiber.id, "patches", len(patches))

	if s.applyPatches != nil && len(patches) > 0 {
		s.applyPatches(patches)
	}
}

func (s *Scheduler) handleFiberError(fiber *Fiber, err interface{}) {
	msg := fmt.Sprintf("fiber %d panic: %v\n%s", fiber.id, err, debug.Stack())
	s.logger.Error("fiber render panicked", "fiber", fiber.id, "error", err)

	keep := false
	if fiber.onError != nil {
		keep = fiber.onError(fiber, msg)
	}
	if !keep {
		s.RemoveFiber(fiber)
	}
}

// GetFiber returns a fiber by ID
func (s *Scheduler) GetFiber(id uint32) *Fiber {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fibers[id]
}

// FiberCount returns the number of active fibers
func (s *Scheduler) FiberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fibers)
}

// ID returns the fiber's unique ID
func (f *Fiber) ID() uint32 {
	return f.id
}

// Parent returns the fiber's parent
func (f *Fiber) Parent() *Fiber {
	return f.parent
}

// VNode returns the fiber's last rendered tree
func (f *Fiber) VNode() *vdom.VNode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vnode
}

// IsDirty reports whether a render is pending
func (f *Fiber) IsDirty() bool {
	return f.dirty.Load()
}

// SetErrorHandler sets a custom error handler for this fiber
func (f *Fiber) SetErrorHandler(handler ErrorHandler) {
	f.onError = handler
}
