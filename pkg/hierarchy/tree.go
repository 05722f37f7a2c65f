// Package hierarchy implements the zoomable partition behind the sunburst
// and treemap views.
//
// A Tree is an immutable arena of weighted nodes built once per dataset load.
// Parents are stored as indices, so ascent is O(1) and the structure has no
// reference cycles. A View layers a zoom focus and per-node current/target
// spans on top of a Tree and animates between them with a caller-driven Tick.
package hierarchy

import (
	"sort"
	"strings"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/loader"
)

// NodeID indexes a node in its Tree. The root is always 0.
type NodeID int

// NoParent is the parent of the root.
const NoParent NodeID = -1

// UnnamedNode replaces empty names.
const UnnamedNode = "Unnamed"

// Node is one entry of the arena.
type Node struct {
	ID       NodeID
	Name     string
	Value    float64 // rolled up: never less than the sum of the children
	Parent   NodeID
	Children []NodeID // sorted by descending value, ties in input order
	Depth    int
	Height   int // longest path to a leaf
}

// Leaf reports whether the node has no children.
func (n Node) Leaf() bool {
	return len(n.Children) == 0
}

// BuildReport lists the recoveries made while rolling values up.
type BuildReport struct {
	// Missing holds paths of leaves whose value was absent or negative and
	// defaulted to 0.
	Missing []string
	// Clamped holds paths of internal nodes whose explicit value was below
	// the sum of their children and was replaced by that sum.
	Clamped []string
}

// Tree is an arena of nodes in pre-order.
type Tree struct {
	nodes []Node
}

type staged struct {
	name     string
	value    float64
	height   int
	children []*staged
}

// Build rolls values up bottom-up, sorts each sibling group by descending
// value and flattens the result into an arena.
func Build(root loader.TreeNode) (*Tree, BuildReport) {
	var report BuildReport
	s := stage(root, "", &report)

	t := &Tree{nodes: make([]Node, 0, root.Count())}
	t.flatten(s, NoParent, 0)
	debug.Log("hierarchy: built %d nodes (height %d), %d missing, %d clamped",
		len(t.nodes), s.height, len(report.Missing), len(report.Clamped))
	return t, report
}

func stage(n loader.TreeNode, prefix string, report *BuildReport) *staged {
	name := n.Name
	if strings.TrimSpace(name) == "" {
		name = UnnamedNode
	}
	path := name
	if prefix != "" {
		path = prefix + "/" + name
	}

	s := &staged{name: name}
	if n.Leaf() {
		switch {
		case n.Value == nil:
			report.Missing = append(report.Missing, path)
			debug.Log("hierarchy: %s has no value, using 0", path)
		case *n.Value < 0:
			report.Missing = append(report.Missing, path)
			debug.Log("hierarchy: %s has negative value %v, using 0", path, *n.Value)
		default:
			s.value = *n.Value
		}
		return s
	}

	var sum float64
	s.children = make([]*staged, len(n.Children))
	for i, c := range n.Children {
		child := stage(c, path, report)
		s.children[i] = child
		sum += child.value
		s.height = max(s.height, child.height+1)
	}
	s.value = sum
	if n.Value != nil {
		if *n.Value >= sum {
			s.value = *n.Value
		} else {
			report.Clamped = append(report.Clamped, path)
			debug.Log("hierarchy: %s value %v below children sum %v, using sum", path, *n.Value, sum)
		}
	}

	sort.SliceStable(s.children, func(i, j int) bool {
		return s.children[i].value > s.children[j].value
	})
	return s
}

func (t *Tree) flatten(s *staged, parent NodeID, depth int) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		ID:     id,
		Name:   s.name,
		Value:  s.value,
		Parent: parent,
		Depth:  depth,
		Height: s.height,
	})
	if len(s.children) == 0 {
		return id
	}
	children := make([]NodeID, len(s.children))
	for i, c := range s.children {
		children[i] = t.flatten(c, id, depth+1)
	}
	t.nodes[id].Children = children
	return id
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the root id.
func (t *Tree) Root() NodeID {
	return 0
}

// Valid reports whether id belongs to the tree.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Node returns the node with the given id. It panics on an invalid id, like a
// slice index would.
func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

// Parent returns the parent of id, or NoParent for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].Parent
}

// Children returns the children of id in sorted order.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].Children
}

// Height returns the height of the whole tree.
func (t *Tree) Height() int {
	return t.nodes[0].Height
}

// Ancestry returns the ids from the root down to id, inclusive.
func (t *Tree) Ancestry(id NodeID) []NodeID {
	var out []NodeID
	for cur := id; cur != NoParent; cur = t.nodes[cur].Parent {
		out = append(out, cur)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Path returns the slash-joined names from the root to id, as used in
// tooltips.
func (t *Tree) Path(id NodeID) string {
	ids := t.Ancestry(id)
	names := make([]string, len(ids))
	for i, a := range ids {
		names[i] = t.nodes[a].Name
	}
	return strings.Join(names, "/")
}

// Find resolves a slash-separated path of names. The root name may be
// included or omitted.
func (t *Tree) Find(path string) (NodeID, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return t.Root(), true
	}
	parts := strings.Split(path, "/")
	if parts[0] == t.nodes[0].Name {
		parts = parts[1:]
	}
	cur := t.Root()
outer:
	for _, part := range parts {
		for _, c := range t.nodes[cur].Children {
			if t.nodes[c].Name == part {
				cur = c
				continue outer
			}
		}
		return 0, false
	}
	return cur, true
}

// FindByName returns every node whose name matches exactly.
func (t *Tree) FindByName(name string) []NodeID {
	var out []NodeID
	for _, n := range t.nodes {
		if n.Name == name {
			out = append(out, n.ID)
		}
	}
	return out
}

// Names returns the distinct node names, sorted. The entity picker uses this
// as its option list.
func (t *Tree) Names() []string {
	seen := make(map[string]bool, len(t.nodes))
	var out []string
	for _, n := range t.nodes {
		if !seen[n.Name] {
			seen[n.Name] = true
			out = append(out, n.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Walk visits every node in pre-order.
func (t *Tree) Walk(fn func(Node)) {
	for _, n := range t.nodes {
		fn(n)
	}
}
