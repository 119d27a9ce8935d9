package vdom

// VKind represents the type of virtual node
type VKind uint8

const (
	// KindElement represents an element node
	KindElement VKind = iota
	// KindText represents a text node
	KindText
	// KindFragment represents a list of children without a wrapping element
	KindFragment
	// KindRaw holds pre-rendered markup that is emitted without escaping.
	// Markdown bodies use it for inline HTML.
	KindRaw
)

// VNodeFlags are bitwise hints attached to a node
type VNodeFlags uint8

const (
	// FlagStatic marks a subtree built from configuration only
	FlagStatic VNodeFlags = 1 << iota
	// FlagHasKey indicates this node has a key for list reconciliation
	FlagHasKey
)

// Props represents the attributes of a VNode
type Props map[string]any

// VNode represents a virtual node.
// Nodes are treated as immutable once built.
type VNode struct {
	Kind VKind

	// Tag is the element tag name, only used when Kind == KindElement
	Tag string

	Props Props

	// Kids contains child nodes. Nil for text and raw nodes.
	Kids []VNode

	// Key is used for keyed list reconciliation; empty means unkeyed
	Key string

	Flags VNodeFlags

	// Text content for KindText and KindRaw
	Text string
}

// NewElement creates a new element VNode
func NewElement(tag string, props Props, children ...*VNode) *VNode {
	var flags VNodeFlags
	if props != nil {
		if _, hasKey := props["key"]; hasKey {
			flags |= FlagHasKey
		}
	}

	return &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: props,
		Kids:  collect(children),
		Flags: flags,
	}
}

// NewText creates a new text VNode
func NewText(text string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: text,
	}
}

// NewRaw creates a node whose text is written out verbatim
func NewRaw(markup string) *VNode {
	return &VNode{
		Kind: KindRaw,
		Text: markup,
	}
}

// NewFragment creates a new fragment VNode
func NewFragment(children ...*VNode) *VNode {
	return &VNode{
		Kind: KindFragment,
		Kids: collect(children),
	}
}

// collect converts child pointers to values, dropping nils so callers can
// pass optional children inline.
func collect(children []*VNode) []VNode {
	kids := make([]VNode, 0, len(children))
	for _, child := range children {
		if child != nil {
			kids = append(kids, *child)
		}
	}
	return kids
}

// WithKey returns a shallow copy of the node carrying the given key
func (v *VNode) WithKey(key string) *VNode {
	out := *v
	out.Key = key
	if key != "" {
		out.Flags |= FlagHasKey
	}
	return &out
}

// IsElement returns true if this is an element node
func (v VNode) IsElement() bool {
	return v.Kind == KindElement
}

// IsText returns true if this is a text node
func (v VNode) IsText() bool {
	return v.Kind == KindText
}

// IsFragment returns true if this is a fragment node
func (v VNode) IsFragment() bool {
	return v.Kind == KindFragment
}

// HasFlag returns true if the specified flag is set
func (v VNode) HasFlag(flag VNodeFlags) bool {
	return v.Flags&flag != 0
}

// GetKey returns the key of this node, preferring a "key" prop
func (v VNode) GetKey() string {
	if v.Props != nil {
		if key, ok := v.Props["key"].(string); ok {
			return key
		}
	}
	return v.Key
}

// Walk visits the node and its descendants depth-first.
// Returning false from fn skips the node's children.
func (v *VNode) Walk(fn func(n *VNode) bool) {
	if v == nil || !fn(v) {
		return
	}
	for i := range v.Kids {
		v.Kids[i].Walk(fn)
	}
}

// TextContent concatenates all text beneath the node
func (v *VNode) TextContent() string {
	var out []byte
	v.Walk(func(n *VNode) bool {
		if n.Kind == KindText {
			out = append(out, n.Text...)
		}
		return true
	})
	return string(out)
}
