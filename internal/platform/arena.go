package platform

import (
	"fmt"

	"github.com/1broseidon/sphereland/internal/geom"
)

// Node is a snapshot of one arena node.
type Node struct {
	ID        NodeID
	Parent    NodeID
	Kind      NodeKind
	Transform geom.Transform
	Resource  string
	Enabled   bool
}

// ChangeKind classifies arena mutations reported to an observer.
type ChangeKind uint8

const (
	NodeCreated ChangeKind = iota
	NodeUpdated
	NodeDestroyed
)

// Change describes one arena mutation.
type Change struct {
	Kind ChangeKind
	Node Node
}

// A handle packs the slot index plus one in its low 24 bits and the slot's
// generation in the high 8 bits.
const (
	indexBits = 24
	indexMask = 1<<indexBits - 1
)

type arenaSlot struct {
	node     Node
	children []NodeID
	alive    bool
	gen      uint8
}

// Arena is an in-memory Scene. Nodes live in a slice indexed by handle and
// refer to their parent by handle, so parent/child links never form pointer
// cycles. Destroyed slots go on a free list and are reused with a bumped
// generation, so a stale handle does not reach the new node.
//
// Arena is not safe for concurrent use; it is owned by the event loop.
type Arena struct {
	slots    []arenaSlot
	free     []int
	observer func(Change)
	live     int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// OnChange registers fn to be called after every mutation.
func (a *Arena) OnChange(fn func(Change)) {
	a.observer = fn
}

// Len returns the number of live nodes.
func (a *Arena) Len() int {
	return a.live
}

// Node returns a snapshot of node id.
func (a *Arena) Node(id NodeID) (Node, bool) {
	slot := a.slot(id)
	if slot == nil {
		return Node{}, false
	}
	return slot.node, true
}

// Children returns the live children of id. Root lists top-level nodes.
func (a *Arena) Children(id NodeID) []NodeID {
	if id == Root {
		var out []NodeID
		for i := range a.slots {
			if a.slots[i].alive && a.slots[i].node.Parent == Root {
				out = append(out, a.slots[i].node.ID)
			}
		}
		return out
	}
	slot := a.slot(id)
	if slot == nil {
		return nil
	}
	return append([]NodeID(nil), slot.children...)
}

// CreateNode implements Scene.
func (a *Arena) CreateNode(parent NodeID, kind NodeKind, t geom.Transform, resource string) (NodeID, error) {
	var parentSlot *arenaSlot
	if parent != Root {
		parentSlot = a.slot(parent)
		if parentSlot == nil {
			return 0, fmt.Errorf("create %s under %d: %w", kind, parent, ErrNodeNotFound)
		}
	}
	if kind == KindModel && resource == "" {
		return 0, fmt.Errorf("create model: resource is required")
	}

	var idx int
	if n := len(a.free); n > 0 {
		idx, a.free = a.free[n-1], a.free[:n-1]
	} else {
		if len(a.slots) == indexMask {
			return 0, fmt.Errorf("create %s: arena is full", kind)
		}
		idx = len(a.slots)
		a.slots = append(a.slots, arenaSlot{})
	}
	slot := &a.slots[idx]
	id := NodeID(slot.gen)<<indexBits | NodeID(idx+1)
	slot.node = Node{
		ID:        id,
		Parent:    parent,
		Kind:      kind,
		Transform: t,
		Resource:  resource,
		Enabled:   true,
	}
	slot.alive = true

	if parentSlot != nil {
		// append may have moved the backing array
		parentSlot = a.slot(parent)
		parentSlot.children = append(parentSlot.children, id)
	}
	a.live++
	a.notify(NodeCreated, slot.node)
	return id, nil
}

// SetTransform implements Scene.
func (a *Arena) SetTransform(id NodeID, t geom.Transform) error {
	slot := a.slot(id)
	if slot == nil {
		return fmt.Errorf("set transform of %d: %w", id, ErrNodeNotFound)
	}
	slot.node.Transform = t
	a.notify(NodeUpdated, slot.node)
	return nil
}

// SetEnabled implements Scene.
func (a *Arena) SetEnabled(id NodeID, enabled bool) error {
	slot := a.slot(id)
	if slot == nil {
		return fmt.Errorf("set enabled of %d: %w", id, ErrNodeNotFound)
	}
	if slot.node.Enabled == enabled {
		return nil
	}
	slot.node.Enabled = enabled
	a.notify(NodeUpdated, slot.node)
	return nil
}

// Destroy implements Scene.
func (a *Arena) Destroy(id NodeID) error {
	slot := a.slot(id)
	if slot == nil {
		return fmt.Errorf("destroy %d: %w", id, ErrNodeNotFound)
	}
	if parent := a.slot(slot.node.Parent); parent != nil {
		for i, child := range parent.children {
			if child == id {
				parent.children = append(parent.children[:i], parent.children[i+1:]...)
				break
			}
		}
	}
	a.destroyRec(id)
	return nil
}

func (a *Arena) destroyRec(id NodeID) {
	slot := a.slot(id)
	if slot == nil {
		return
	}
	for _, child := range slot.children {
		a.destroyRec(child)
	}
	slot.children = nil
	slot.alive = false
	slot.gen++
	a.free = append(a.free, int(id&indexMask)-1)
	a.live--
	a.notify(NodeDestroyed, slot.node)
}

func (a *Arena) slot(id NodeID) *arenaSlot {
	idx := int(id & indexMask)
	if idx == 0 || idx > len(a.slots) {
		return nil
	}
	slot := &a.slots[idx-1]
	if !slot.alive || slot.gen != uint8(id>>indexBits) {
		return nil
	}
	return slot
}

func (a *Arena) notify(kind ChangeKind, node Node) {
	if a.observer != nil {
		a.observer(Change{Kind: kind, Node: node})
	}
}
