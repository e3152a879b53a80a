package lineage

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Node is a track in a lineage graph. Its gonum node id is the track id.
type Node struct {
	Track    int64
	Root     int64
	TBegin   int64
	TEnd     int64
	Accepted bool
}

// ID implements graph.Node.
func (n Node) ID() int64 { return n.Track }

// Graph is a directed parent to child graph over tracks.
type Graph struct {
	g *simple.DirectedGraph
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{g: simple.NewDirectedGraph()}
}

// AddTrack adds t as a node. Adding a track id twice keeps the first node.
func (gr *Graph) AddTrack(t types.Track) {
	if gr.g.Node(t.TrackID) != nil {
		return
	}
	gr.g.AddNode(Node{Track: t.TrackID, Root: t.Root, TBegin: t.TBegin, TEnd: t.TEnd, Accepted: t.AcceptedTag})
}

// Link adds the edge parent -> child. Both nodes must already be present;
// a missing endpoint or a self link leaves the graph unchanged and returns
// false.
func (gr *Graph) Link(parent, child int64) bool {
	if parent == child || gr.g.Node(parent) == nil || gr.g.Node(child) == nil {
		return false
	}
	gr.g.SetEdge(gr.g.NewEdge(gr.g.Node(parent), gr.g.Node(child)))
	return true
}

// Directed exposes the underlying gonum graph for graph algorithms.
func (gr *Graph) Directed() graph.Directed { return gr.g }

// Len returns the number of tracks in the graph.
func (gr *Graph) Len() int { return len(graph.NodesOf(gr.g.Nodes())) }

// Node returns the node for track id.
func (gr *Graph) Node(id int64) (Node, bool) {
	n := gr.g.Node(id)
	if n == nil {
		return Node{}, false
	}
	return n.(Node), true
}

// Nodes returns every node ordered by track id.
func (gr *Graph) Nodes() []Node {
	return sortedNodes(gr.g.Nodes())
}

// Children returns the child nodes of id ordered by track id.
func (gr *Graph) Children(id int64) []Node {
	return sortedNodes(gr.g.From(id))
}

// Parent returns the parent of id. ok is false for roots and unknown ids.
func (gr *Graph) Parent(id int64) (Node, bool) {
	to := sortedNodes(gr.g.To(id))
	if len(to) == 0 {
		return Node{}, false
	}
	return to[0], true
}

// Predecessors returns every node with an edge into id.
func (gr *Graph) Predecessors(id int64) []Node {
	return sortedNodes(gr.g.To(id))
}

// Roots returns the nodes with no incoming edge.
func (gr *Graph) Roots() []Node {
	var out []Node
	for _, n := range gr.Nodes() {
		if len(graph.NodesOf(gr.g.To(n.Track))) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits every node reachable from the roots in depth-first preorder,
// children in track id order. depth is 0 for roots.
func (gr *Graph) Walk(fn func(n Node, depth int)) {
	type item struct {
		n     Node
		depth int
	}
	roots := gr.Roots()
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{roots[i], 0})
	}
	seen := make(map[int64]bool)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[top.n.Track] {
			continue
		}
		seen[top.n.Track] = true
		fn(top.n, top.depth)

		kids := gr.Children(top.n.Track)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, item{kids[i], top.depth + 1})
		}
	}
}

// Tree builds the lineage graph of every track whose root is root, with an
// edge from each parent to its child. No matching tracks yields an empty
// graph. Parents outside the lineage are not added.
func Tree(tx types.Tx, root int64) (*Graph, error) {
	tracks, err := tx.Tracks(types.TrackFilter{Root: types.Int64(root)})
	if err != nil {
		return nil, err
	}
	gr := NewGraph()
	for _, t := range tracks {
		gr.AddTrack(t)
	}
	for _, t := range tracks {
		if !t.IsFloating() {
			gr.Link(t.ParentTrackID, t.TrackID)
		}
	}
	return gr, nil
}

func sortedNodes(it graph.Nodes) []Node {
	nodes := graph.NodesOf(it)
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.(Node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Track < out[j].Track })
	return out
}
