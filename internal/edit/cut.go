package edit

import (
	"fmt"

	"github.com/mesh-intelligence/gardener/internal/lineage"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// CutResult reports the outcome of Cut. Mitosis is set when the track was
// detached from its parent. NewTrack is set when the track was split and
// names the track holding the part from the cut frame on.
type CutResult struct {
	Mitosis  bool
	NewTrack *int64
}

// Cut splits or detaches track id at frame. Cells are not moved; after a
// split the caller reassigns the cells at or after frame to NewTrack.
//
//   - frame outside [TBegin, TEnd], or frame == TBegin on a floating track:
//     nothing changes.
//   - frame == TBegin on a track with a parent: the track is detached and
//     becomes the root of itself and all its descendants.
//   - TBegin < frame <= TEnd: the track ends at its last cell before frame
//     and a new floating track spans from its first cell at or after frame
//     to the old end. The descendants move to the new track's lineage and
//     the direct children are repointed to it.
func Cut(tx types.Tx, id, frame int64) (CutResult, error) {
	tr, err := tx.Track(id)
	if err != nil {
		return CutResult{}, err
	}

	switch {
	case frame > tr.TEnd || frame < tr.TBegin || (tr.IsFloating() && frame == tr.TBegin):
		return CutResult{}, nil

	case frame == tr.TBegin:
		tr.ParentTrackID = types.NoParent
		if err := tx.UpdateTrack(tr); err != nil {
			return CutResult{}, err
		}
		desc, err := lineage.Descendants(tx, id)
		if err != nil {
			return CutResult{}, err
		}
		err = rewriteLineage(tx, desc, func(t *types.Track) { t.Root = id })
		if err != nil {
			return CutResult{}, err
		}
		return CutResult{Mitosis: true}, nil
	}

	start, stop, err := splitBounds(tx, id, frame)
	if err != nil {
		return CutResult{}, err
	}
	newID, err := lineage.NewTrackID(tx)
	if err != nil {
		return CutResult{}, err
	}

	oldEnd := tr.TEnd
	tr.TEnd = stop
	if err := tx.UpdateTrack(tr); err != nil {
		return CutResult{}, err
	}
	if err := tx.InsertTrack(types.NewRootTrack(newID, start, oldEnd)); err != nil {
		return CutResult{}, err
	}

	desc, err := lineage.Descendants(tx, id)
	if err != nil {
		return CutResult{}, err
	}
	err = rewriteLineage(tx, desc[1:], func(t *types.Track) {
		t.Root = newID
		if t.ParentTrackID == id {
			t.ParentTrackID = newID
		}
	})
	if err != nil {
		return CutResult{}, fmt.Errorf("moving descendants of %d to %d: %w", id, newID, err)
	}
	return CutResult{NewTrack: &newID}, nil
}

// splitBounds returns the first cell frame at or after frame and the last
// cell frame before it. Frames need not be contiguous. When a side has no
// cells the bound falls back to frame or frame-1.
func splitBounds(tx types.Tx, id, frame int64) (start, stop int64, err error) {
	ts, err := tx.CellTimes(id)
	if err != nil {
		return 0, 0, err
	}
	start, stop = frame, frame-1
	for _, t := range ts {
		if t < frame {
			stop = t
			continue
		}
		start = t
		break
	}
	return start, stop, nil
}
