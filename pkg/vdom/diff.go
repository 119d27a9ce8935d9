package vdom

import (
	"fmt"
	"sort"
)

// PatchOp represents the type of patch operation
type PatchOp uint8

const (
	// OpReplaceText replaces text node content
	OpReplaceText PatchOp = 0x01
	// OpSetAttribute sets or replaces an attribute
	OpSetAttribute PatchOp = 0x02
	// OpRemoveNode removes a node
	OpRemoveNode PatchOp = 0x03
	// OpInsertNode inserts a new node
	OpInsertNode PatchOp = 0x04
	// OpRemoveAttribute removes an attribute
	OpRemoveAttribute PatchOp = 0x06
	// OpMoveNode moves a node to a new position
	OpMoveNode PatchOp = 0x07
)

// Patch represents a single tree mutation
type Patch struct {
	Op       PatchOp
	NodeID   uint32
	ParentID uint32 // For insert and move operations
	BeforeID uint32 // For move operations (0 means append)
	Key      string // Attribute key for set/remove attribute
	Value    string // Text content or attribute value
	Node     *VNode // For insert operations
}

// String returns a human-readable representation of the patch
func (p Patch) String() string {
	switch p.Op {
	case OpReplaceText:
		return fmt.Sprintf("ReplaceText(node=%d, text=%q)", p.NodeID, p.Value)
	case OpSetAttribute:
		return fmt.Sprintf("SetAttribute(node=%d, key=%q, value=%q)", p.NodeID, p.Key, p.Value)
	case OpRemoveAttribute:
		return fmt.Sprintf("RemoveAttribute(node=%d, key=%q)", p.NodeID, p.Key)
	case OpRemoveNode:
		return fmt.Sprintf("RemoveNode(node=%d)", p.NodeID)
	case OpInsertNode:
		return fmt.Sprintf("InsertNode(node=%d, parent=%d)", p.NodeID, p.ParentID)
	case OpMoveNode:
		return fmt.Sprintf("MoveNode(node=%d, parent=%d, before=%d)", p.NodeID, p.ParentID, p.BeforeID)
	default:
		return fmt.Sprintf("Unknown(op=%d)", p.Op)
	}
}

// diffContext holds state during diffing
type diffContext struct {
	patches     []Patch
	nodeCounter uint32
	nodeMap     map[*VNode]uint32
}

func newDiffContext() *diffContext {
	return &diffContext{
		patches:     make([]Patch, 0, 16),
		nodeCounter: 1,
		nodeMap:     make(map[*VNode]uint32),
	}
}

// nodeID gets or assigns a node ID
func (ctx *diffContext) nodeID(node *VNode) uint32 {
	if node == nil {
		return 0
	}
	if id, ok := ctx.nodeMap[node]; ok {
		return id
	}
	id := ctx.nodeCounter
	ctx.nodeCounter++
	ctx.nodeMap[node] = id
	return id
}

func (ctx *diffContext) add(patch Patch) {
	ctx.patches = append(ctx.patches, patch)
}

func (ctx *diffContext) replace(prev, next *VNode, parentID uint32) {
	ctx.add(Patch{Op: OpRemoveNode, NodeID: ctx.nodeID(prev)})
	ctx.add(Patch{Op: OpInsertNode, NodeID: ctx.nodeID(next), ParentID: parentID, Node: next})
}

// Diff computes the patches needed to transform prev into next
func Diff(prev, next *VNode) []Patch {
	ctx := newDiffContext()
	diffNode(ctx, prev, next, 0)
	return ctx.patches
}

func diffNode(ctx *diffContext, prev, next *VNode, parentID uint32) {
	switch {
	case prev == nil && next == nil:
		return
	case next == nil:
		ctx.add(Patch{Op: OpRemoveNode, NodeID: ctx.nodeID(prev)})
		return
	case prev == nil:
		ctx.add(Patch{Op: OpInsertNode, NodeID: ctx.nodeID(next), ParentID: parentID, Node: next})
		return
	}

	if prev.Kind != next.Kind || (prev.Kind == KindElement && prev.Tag != next.Tag) {
		ctx.replace(prev, next, parentID)
		return
	}

	nodeID := ctx.nodeID(prev)
	ctx.nodeMap[next] = nodeID

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			ctx.add(Patch{Op: OpReplaceText, NodeID: nodeID, Value: next.Text})
		}
	case KindRaw:
		// Raw markup has no addressable children, so any change swaps the node.
		if prev.Text != next.Text {
			delete(ctx.nodeMap, next)
			ctx.replace(prev, next, parentID)
		}
	case KindElement:
		diffProps(ctx, nodeID, prev.Props, next.Props)
		diffChildren(ctx, nodeID, prev.Kids, next.Kids)
	case KindFragment:
		diffChildren(ctx, nodeID, prev.Kids, next.Kids)
	}
}

// diffProps emits attribute patches in key order so output is stable
func diffProps(ctx *diffContext, nodeID uint32, prevProps, nextProps Props) {
	for _, key := range sortedKeys(prevProps) {
		if key == "key" {
			continue
		}
		if _, exists := nextProps[key]; !exists {
			ctx.add(Patch{Op: OpRemoveAttribute, NodeID: nodeID, Key: key})
		}
	}

	for _, key := range sortedKeys(nextProps) {
		if key == "key" {
			continue
		}
		nextVal := nextProps[key]
		prevVal, exists := prevProps[key]
		if !exists || !propsEqual(prevVal, nextVal) {
			ctx.add(Patch{Op: OpSetAttribute, NodeID: nodeID, Key: key, Value: propToString(nextVal)})
		}
	}
}

func diffChildren(ctx *diffContext, parentID uint32, prevKids, nextKids []VNode) {
	if len(prevKids) == 0 && len(nextKids) == 0 {
		return
	}

	if len(nextKids) == 0 {
		for i := range prevKids {
			diffNode(ctx, &prevKids[i], nil, parentID)
		}
		return
	}

	if len(prevKids) == 0 {
		for i := range nextKids {
			diffNode(ctx, nil, &nextKids[i], parentID)
		}
		return
	}

	hasKeys := false
	for i := range nextKids {
		if nextKids[i].GetKey() != "" {
			hasKeys = true
			break
		}
	}

	if hasKeys {
		diffKeyedChildren(ctx, parentID, prevKids, nextKids)
	} else {
		diffUnkeyedChildren(ctx, parentID, prevKids, nextKids)
	}
}

// diffUnkeyedChildren performs index-based diffing
func diffUnkeyedChildren(ctx *diffContext, parentID uint32, prevKids, nextKids []VNode) {
	common := min(len(prevKids), len(nextKids))

	for i := 0; i < common; i++ {
		diffNode(ctx, &prevKids[i], &nextKids[i], parentID)
	}
	for i := common; i < len(prevKids); i++ {
		diffNode(ctx, &prevKids[i], nil, parentID)
	}
	for i := common; i < len(nextKids); i++ {
		diffNode(ctx, nil, &nextKids[i], parentID)
	}
}

type move struct {
	nodeID   uint32
	newIndex int
}

// diffKeyedChildren reconciles lists where children carry keys
func diffKeyedChildren(ctx *diffContext, parentID uint32, prevKids, nextKids []VNode) {
	prevKeyed := make(map[string]int, len(prevKids))
	for i := range prevKids {
		if key := prevKids[i].GetKey(); key != "" {
			prevKeyed[key] = i
		}
	}

	matched := make([]bool, len(prevKids))
	var moves []move

	for nextIdx := range nextKids {
		next := &nextKids[nextIdx]
		key := next.GetKey()

		if key == "" {
			if nextIdx < len(prevKids) && prevKids[nextIdx].GetKey() == "" && !matched[nextIdx] {
				matched[nextIdx] = true
				diffNode(ctx, &prevKids[nextIdx], next, parentID)
			} else {
				diffNode(ctx, nil, next, parentID)
			}
			continue
		}

		prevIdx, found := prevKeyed[key]
		if !found {
			diffNode(ctx, nil, next, parentID)
			continue
		}

		matched[prevIdx] = true
		nodeID := ctx.nodeID(&prevKids[prevIdx])
		diffNode(ctx, &prevKids[prevIdx], next, parentID)
		if prevIdx != nextIdx {
			moves = append(moves, move{nodeID: nodeID, newIndex: nextIdx})
		}
	}

	for i, wasMatched := range matched {
		if !wasMatched {
			diffNode(ctx, &prevKids[i], nil, parentID)
		}
	}

	for _, m := range moves {
		var beforeID uint32
		if m.newIndex+1 < len(nextKids) {
			beforeID = ctx.nodeID(&nextKids[m.newIndex+1])
		}
		ctx.add(Patch{
			Op:       OpMoveNode,
			NodeID:   m.nodeID,
			ParentID: parentID,
			BeforeID: beforeID,
		})
	}
}

func sortedKeys(props Props) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func propsEqual(a, b any) bool {
	return propToString(a) == propToString(b)
}

func propToString(v any) string {
	return fmt.Sprintf("%v", v)
}
