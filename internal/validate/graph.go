package validate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/mesh-intelligence/gardener/internal/lineage"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// BuildTrackGraph builds the parent to child graph of tracks. A parent that
// does not exist, or that does not end before its child begins, is reported
// and its edge is left out.
func BuildTrackGraph(tracks []types.Track) (*lineage.Graph, []string) {
	g := lineage.NewGraph()
	byID := make(map[int64]types.Track, len(tracks))
	for _, t := range tracks {
		g.AddTrack(t)
		byID[t.TrackID] = t
	}

	var findings []string
	for _, t := range tracks {
		if t.IsFloating() {
			continue
		}
		parent, ok := byID[t.ParentTrackID]
		if !ok {
			findings = append(findings, fmt.Sprintf("Parent %d not found for child %d", t.ParentTrackID, t.TrackID))
			continue
		}
		if parent.TEnd >= t.TBegin {
			findings = append(findings, fmt.Sprintf("Parent %d ends at %d, but child %d begins at %d.",
				parent.TrackID, parent.TEnd, t.TrackID, t.TBegin))
			continue
		}
		g.Link(parent.TrackID, t.TrackID)
	}
	return g, findings
}

// NoCycles reports every cycle in the parent graph.
func NoCycles(g *lineage.Graph) []string {
	var findings []string
	for _, c := range topo.DirectedCyclesIn(g.Directed()) {
		findings = append(findings, fmt.Sprintf("Cycle detected in lineage graph: %v", nodeIDs(c)))
	}
	return findings
}

// RootsPresent reports weakly connected components whose members do not
// agree on a single root value.
func RootsPresent(g *lineage.Graph) []string {
	var findings []string
	for _, comp := range topo.ConnectedComponents(graph.Undirect{G: g.Directed()}) {
		roots := map[int64]bool{}
		for _, n := range comp {
			roots[n.(lineage.Node).Root] = true
		}
		if len(roots) > 1 {
			findings = append(findings, fmt.Sprintf("Component %v has multiple root values: %v",
				nodeIDs(comp), sortedKeys(roots)))
		}
	}
	sort.Strings(findings)
	return findings
}

// RootsConsistency reports every track whose root differs from the root of
// one of its ancestors. The walk up parent links stops after as many steps
// as there are tracks, so a cycle cannot hold it.
func RootsConsistency(g *lineage.Graph) []string {
	var findings []string
	limit := g.Len()
	for _, n := range g.Nodes() {
		cur := n
		for step := 0; step < limit; step++ {
			parent, ok := g.Parent(cur.Track)
			if !ok {
				break
			}
			if parent.Root != n.Root {
				findings = append(findings, fmt.Sprintf("Track %d has root %d but parent %d has root %d",
					n.Track, n.Root, parent.Track, parent.Root))
			}
			cur = parent
		}
	}
	return findings
}

// FloatingRoots reports floating tracks that are not their own root.
func FloatingRoots(tracks []types.Track) []string {
	var findings []string
	for _, t := range tracks {
		if t.IsFloating() && t.Root != t.TrackID {
			findings = append(findings, fmt.Sprintf("Floating track %d has root %d", t.TrackID, t.Root))
		}
	}
	return findings
}

func nodeIDs(nodes []graph.Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	if len(ids) > 1 && ids[0] == ids[len(ids)-1] {
		// Cycles come back closed; keep the path order.
		return ids
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedKeys(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
