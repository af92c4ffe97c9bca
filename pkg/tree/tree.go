// Package tree holds the in-memory ownership tree of encrypted storage
// nodes. There is exactly one root; every other node hangs directly or
// transitively under it. Nodes are never removed, only inserted.
package tree

import (
	"crypto/sha512"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fractalvault/fractalvault/pkg/placement"
	"github.com/fractalvault/fractalvault/pkg/record"
)

// NodeID identifies a node in the tree.
type NodeID string

// RootSentinel is stored as the root node's payload in place of real
// ciphertext. The root owns the tree; it never carries a record.
var RootSentinel = []byte("fractalvault:root")

// Node is a single stored, encrypted record plus its placement metadata.
// All fields are fixed at creation; only ChildIDs grows, and only through
// Tree.Insert on a child.
type Node struct {
	ID         NodeID
	Ciphertext []byte
	ParentID   NodeID // empty for the root
	ChildIDs   []NodeID
	Category   record.Category
	Complexity int
	CreatedAt  time.Time
	Iteration  int
	Coordinate placement.Coordinate
}

// IsRoot reports whether the node is the tree's root.
func (n Node) IsRoot() bool {
	return n.ParentID == ""
}

// Tree maps node ids to nodes and tracks the storage-points accumulator.
// It is not safe for concurrent use; the owning engine serializes access.
type Tree struct {
	nodes  map[NodeID]*Node
	rootID NodeID
	points int
}

// New returns an empty tree with no root.
func New() *Tree {
	return &Tree{nodes: make(map[NodeID]*Node)}
}

// HasRoot reports whether the root node exists.
func (t *Tree) HasRoot() bool {
	return t.rootID != ""
}

// RootID returns the root node id, or the empty id before InitRoot.
func (t *Tree) RootID() NodeID {
	return t.rootID
}

// InitRoot creates the root node if it does not exist and returns its id.
// Calling it again returns the existing root unchanged, so repeated engine
// initialization never produces a second root.
func (t *Tree) InitRoot() NodeID {
	if t.rootID != "" {
		return t.rootID
	}
	root := &Node{
		ID:         newNodeID(),
		Ciphertext: RootSentinel,
		CreatedAt:  time.Now().UTC(),
	}
	t.nodes[root.ID] = root
	t.rootID = root.ID
	return root.ID
}

// Insert adds a non-root node under its parent, appends the child link and
// accumulates the node's complexity into the storage points. The parent must
// already exist; a dangling ParentID would break reachability from the root.
func (t *Tree) Insert(n *Node) error {
	if n.ID == "" {
		n.ID = newNodeID()
	}
	if _, exists := t.nodes[n.ID]; exists {
		return fmt.Errorf("tree: duplicate node id %s", n.ID)
	}
	if n.ParentID == "" {
		return fmt.Errorf("tree: node %s has no parent; only the root may be parentless", n.ID)
	}
	parent, ok := t.nodes[n.ParentID]
	if !ok {
		return fmt.Errorf("tree: parent %s of node %s not found", n.ParentID, n.ID)
	}
	if n.Complexity < 0 {
		return fmt.Errorf("tree: node %s has negative complexity %d", n.ID, n.Complexity)
	}

	t.nodes[n.ID] = n
	parent.ChildIDs = append(parent.ChildIDs, n.ID)
	t.points += n.Complexity
	return nil
}

// Get returns a copy of the node with the given id. The copy keeps callers
// from mutating placement fields that are fixed at creation.
func (t *Tree) Get(id NodeID) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// Children returns the ids of the nodes directly owned by id.
func (t *Tree) Children(id NodeID) ([]NodeID, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("tree: node %s not found", id)
	}
	out := make([]NodeID, len(n.ChildIDs))
	copy(out, n.ChildIDs)
	return out, nil
}

// Len counts the stored records, excluding the root.
func (t *Tree) Len() int {
	if t.rootID == "" {
		return len(t.nodes)
	}
	return len(t.nodes) - 1
}

// StoragePoints returns the accumulated complexity of all non-root nodes.
func (t *Tree) StoragePoints() int {
	return t.points
}

// Nodes returns copies of all non-root nodes, in no particular order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, t.Len())
	for id, n := range t.nodes {
		if id == t.rootID {
			continue
		}
		out = append(out, copyNode(n))
	}
	return out
}

// Verify checks the structural invariants: exactly one parentless node (the
// root), every parent link resolving to an existing node, every non-root
// node reachable from the root through child links, and the storage-points
// accumulator matching the complexity sum.
func (t *Tree) Verify() error {
	if len(t.nodes) == 0 {
		return nil
	}
	if t.rootID == "" {
		return fmt.Errorf("tree: nodes present but no root recorded")
	}

	var parentless int
	sum := 0
	for id, n := range t.nodes {
		if n.ParentID == "" {
			parentless++
			if id != t.rootID {
				return fmt.Errorf("tree: node %s is parentless but not the root", id)
			}
			continue
		}
		if _, ok := t.nodes[n.ParentID]; !ok {
			return fmt.Errorf("tree: node %s references missing parent %s", id, n.ParentID)
		}
		sum += n.Complexity
	}
	if parentless != 1 {
		return fmt.Errorf("tree: expected exactly one parentless node, found %d", parentless)
	}
	if sum != t.points {
		return fmt.Errorf("tree: storage points %d do not match complexity sum %d", t.points, sum)
	}

	reachable := make(map[NodeID]bool, len(t.nodes))
	stack := []NodeID{t.rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		stack = append(stack, t.nodes[id].ChildIDs...)
	}
	for id := range t.nodes {
		if !reachable[id] {
			return fmt.Errorf("tree: node %s not reachable from root", id)
		}
	}
	return nil
}

// NewNode builds a non-root node from a record's placement inputs. The
// caller supplies the sealed payload and the estimated complexity.
func NewNode(parent NodeID, ciphertext []byte, cat record.Category, complexity int, digest [sha512.Size]byte) *Node {
	coord, iterations := placement.Place(digest)
	return &Node{
		ID:         newNodeID(),
		Ciphertext: ciphertext,
		ParentID:   parent,
		Category:   cat,
		Complexity: complexity,
		CreatedAt:  time.Now().UTC(),
		Iteration:  iterations,
		Coordinate: coord,
	}
}

func newNodeID() NodeID {
	return NodeID(uuid.NewString())
}

func copyNode(n *Node) Node {
	out := *n
	out.ChildIDs = make([]NodeID, len(n.ChildIDs))
	copy(out.ChildIDs, n.ChildIDs)
	out.Ciphertext = make([]byte, len(n.Ciphertext))
	copy(out.Ciphertext, n.Ciphertext)
	return out
}
