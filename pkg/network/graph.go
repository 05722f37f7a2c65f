// Package network shapes the datasets into node/link graphs for the
// force-directed views. Layout physics is left to the renderer; this package
// only decides which nodes and links exist.
package network

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/vizsync/pkg/debug"
)

// Node groups.
const (
	GroupRoot   = 0
	GroupParent = 1
	GroupChild  = 2
)

// Link kinds.
const (
	KindParent = "parent"
	KindChild  = "child"
	KindMatch  = "match"
)

// Node is a d3-ready node.
type Node struct {
	ID     string  `json:"id"`
	Group  int     `json:"group"`
	Value  float64 `json:"value,omitempty"`
	Status string  `json:"status,omitempty"`
	Color  string  `json:"color"`
}

// Link is a d3-ready link between two node ids.
type Link struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Kind     string  `json:"type"`
	Distance float64 `json:"distance"`
}

// Graph keeps nodes in insertion order, deduplicated by id, and every link
// as added. The gonum graph mirrors it for structural queries.
type Graph struct {
	g     *simple.UndirectedGraph
	nodes []Node
	ids   map[string]int64
	links []Link
}

func newGraph() *Graph {
	return &Graph{
		g:   simple.NewUndirectedGraph(),
		ids: make(map[string]int64),
	}
}

// addNode inserts n unless a node with the same id exists. It reports
// whether n was inserted.
func (g *Graph) addNode(n Node) bool {
	if _, ok := g.ids[n.ID]; ok {
		return false
	}
	id := int64(len(g.nodes))
	g.ids[n.ID] = id
	g.nodes = append(g.nodes, n)
	g.g.AddNode(simple.Node(id))
	return true
}

func (g *Graph) addLink(l Link) {
	g.links = append(g.links, l)
	from, to := g.ids[l.Source], g.ids[l.Target]
	if from != to {
		g.g.SetEdge(g.g.NewEdge(simple.Node(from), simple.Node(to)))
	}
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Links returns the links in insertion order.
func (g *Graph) Links() []Link {
	return g.links
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.ids[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Degree returns the number of distinct neighbours of id.
func (g *Graph) Degree(id string) int {
	i, ok := g.ids[id]
	if !ok {
		return 0
	}
	return g.g.From(i).Len()
}

// Neighbors returns the sorted ids adjacent to id.
func (g *Graph) Neighbors(id string) []string {
	i, ok := g.ids[id]
	if !ok {
		return nil
	}
	var out []string
	it := g.g.From(i)
	for it.Next() {
		out = append(out, g.nodes[it.Node().ID()].ID)
	}
	sort.Strings(out)
	return out
}

// Components returns the number of connected components.
func (g *Graph) Components() int {
	return len(topo.ConnectedComponents(g.g))
}

// Stats summarises the graph for logs and the inspect command.
type Stats struct {
	Nodes      int `json:"nodes"`
	Links      int `json:"links"`
	Edges      int `json:"edges"`
	Components int `json:"components"`
}

// Stats returns node, link and distinct edge counts.
func (g *Graph) Stats() Stats {
	return Stats{
		Nodes:      len(g.nodes),
		Links:      len(g.links),
		Edges:      g.g.Edges().Len(),
		Components: g.Components(),
	}
}

func logStats(kind string, g *Graph) {
	s := g.Stats()
	debug.Log("network: %s graph with %d nodes, %d links, %d components", kind, s.Nodes, s.Links, s.Components)
}
