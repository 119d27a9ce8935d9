package server

import (
	"github.com/matthewriabinin/blog/pkg/vdom"
)

// Layout is the interface that all layout components must implement
type Layout interface {
	// Wrap wraps the given child component with the layout
	Wrap(child *vdom.VNode) *vdom.VNode
}

// LayoutFunc is a function type that implements the Layout interface
type LayoutFunc func(child *vdom.VNode) *vdom.VNode

// Wrap implements the Layout interface for LayoutFunc
func (f LayoutFunc) Wrap(child *vdom.VNode) *vdom.VNode {
	return f(child)
}
