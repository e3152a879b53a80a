package edit

import (
	"github.com/mesh-intelligence/gardener/internal/lineage"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// rewriteLineage applies fn to every track in tracks and stores the ones fn
// changed.
func rewriteLineage(tx types.Tx, tracks []types.Track, fn func(t *types.Track)) error {
	for _, t := range tracks {
		before := t
		fn(&t)
		if t.ParentTrackID == before.ParentTrackID && t.Root == before.Root {
			continue
		}
		if err := tx.UpdateTrack(t); err != nil {
			return err
		}
	}
	return nil
}

// detachChildren cuts every direct child of id for which keep returns false
// at the child's own start, making each a floating root.
func detachChildren(tx types.Tx, id int64, keep func(child types.Track) bool) error {
	children, err := lineage.Children(tx, id)
	if err != nil {
		return err
	}
	for _, c := range children {
		if keep != nil && keep(c) {
			continue
		}
		if _, err := Cut(tx, c.TrackID, c.TBegin); err != nil {
			return err
		}
	}
	return nil
}
