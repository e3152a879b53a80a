package lineage

import (
	"fmt"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Descendants returns the track id and every track reachable from it through
// parent to child links. The queried track comes first, followed by the rest
// in breadth-first order. A missing track returns ErrNotFound.
//
// The traversal is an explicit worklist over a parent to child index built
// once per call, so lineage depth is bounded only by memory. A track is
// visited at most once even if the stored links contain a cycle.
func Descendants(tx types.Tx, id int64) ([]types.Track, error) {
	if _, err := tx.Track(id); err != nil {
		return nil, err
	}
	edges, err := tx.TrackEdges()
	if err != nil {
		return nil, err
	}
	children := childIndex(edges)

	order := []int64{id}
	seen := map[int64]bool{id: true}
	for i := 0; i < len(order); i++ {
		for _, c := range children[order[i]] {
			if !seen[c] {
				seen[c] = true
				order = append(order, c)
			}
		}
	}

	tracks, err := tx.Tracks(types.TrackFilter{TrackIDs: order})
	if err != nil {
		return nil, fmt.Errorf("loading descendants of %d: %w", id, err)
	}
	byID := make(map[int64]types.Track, len(tracks))
	for _, t := range tracks {
		byID[t.TrackID] = t
	}
	out := make([]types.Track, 0, len(order))
	for _, tid := range order {
		if t, ok := byID[tid]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// DescendantIDs is Descendants reduced to track ids.
func DescendantIDs(tx types.Tx, id int64) ([]int64, error) {
	tracks, err := Descendants(tx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(tracks))
	for i, t := range tracks {
		ids[i] = t.TrackID
	}
	return ids, nil
}

// Children returns the direct children of id in track id order.
func Children(tx types.Tx, id int64) ([]types.Track, error) {
	return tx.Tracks(types.TrackFilter{Parent: types.Int64(id)})
}

func childIndex(edges []types.Edge) map[int64][]int64 {
	idx := make(map[int64][]int64)
	for _, e := range edges {
		idx[e.Parent] = append(idx[e.Parent], e.Child)
	}
	return idx
}
