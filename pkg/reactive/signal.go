// Package reactive holds component state that re-renders its subscribers
// when it changes.
package reactive

import (
	"sync"

	"github.com/matthewriabinin/blog/pkg/scheduler"
)

// Scheduler is the part of the scheduler the reactive system needs
type Scheduler interface {
	MarkDirty(fiber *scheduler.Fiber)
}

// Signal is the interface for reactive values
type Signal[T any] interface {
	Get() T
	Set(T)
	Subscribe(fiber *scheduler.Fiber)
	Unsubscribe(fiber *scheduler.Fiber)
}

// State represents a reactive state value
type State[T any] struct {
	mu    sync.RWMutex
	value T

	depsMu    sync.RWMutex
	deps      map[uint32]*scheduler.Fiber
	watchers  map[int]func(T)
	nextWatch int
	scheduler Scheduler
}

// NewState creates a new reactive state. sched may be nil when nothing
// needs re-rendering, in which case only watchers are notified.
func NewState[T any](initial T, sched Scheduler) *State[T] {
	return &State[T]{
		value:     initial,
		deps:      make(map[uint32]*scheduler.Fiber),
		watchers:  make(map[int]func(T)),
		scheduler: sched,
	}
}

// Get returns the current value
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies dependents
func (s *State[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	s.notify(value)
}

// Update atomically reads, modifies, and writes the value
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	value := s.value
	s.mu.Unlock()

	s.notify(value)
}

// Subscribe adds a fiber as a dependency
func (s *State[T]) Subscribe(fiber *scheduler.Fiber) {
	if fiber == nil {
		return
	}

	s.depsMu.Lock()
	defer s.depsMu.Unlock()
	s.deps[fiber.ID()] = fiber
}

// Unsubscribe removes a fiber as a dependency
func (s *State[T]) Unsubscribe(fiber *scheduler.Fiber) {
	if fiber == nil {
		return
	}

	s.depsMu.Lock()
	defer s.depsMu.Unlock()
	delete(s.deps, fiber.ID())
}

// Watch registers fn to be called with every new value. The returned
// function removes the watcher.
func (s *State[T]) Watch(fn func(T)) (cancel func()) {
	s.depsMu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = fn
	s.depsMu.Unlock()

	return func() {
		s.depsMu.Lock()
		delete(s.watchers, id)
		s.depsMu.Unlock()
	}
}

// notify marks dependent fibers dirty outside the locks to avoid deadlock
// with a scheduler rendering concurrently.
func (s *State[T]) notify(value T) {
	s.depsMu.RLock()
	fibers := make([]*scheduler.Fiber, 0, len(s.deps))
	for _, f := range s.deps {
		fibers = append(fibers, f)
	}
	watchers := make([]func(T), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.depsMu.RUnlock()

	if s.scheduler != nil {
		for _, f := range fibers {
			s.scheduler.MarkDirty(f)
		}
	}
	for _, w := range watchers {
		w(value)
	}
}
