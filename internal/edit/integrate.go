package edit

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/gardener/internal/lineage"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// IntegrateResult names the head segments split off by Merge or Connect.
// T1After holds t1's part from the frame on when t1 had to be cut.
// T2Before holds t2's part before the frame when Connect had to split it.
type IntegrateResult struct {
	T1After  *int64
	T2Before *int64
}

// Integrate dispatches to Merge or Connect. Any other operation returns
// ErrInvalidArgument.
func Integrate(tx types.Tx, op types.Operation, t1, t2, frame int64) (IntegrateResult, error) {
	switch op {
	case types.OperationMerge:
		return Merge(tx, t1, t2, frame)
	case types.OperationConnect:
		return Connect(tx, t1, t2, frame)
	}
	return IntegrateResult{}, fmt.Errorf("operation %q: %w", op, types.ErrInvalidArgument)
}

// Merge absorbs t2 into t1 at frame so that t1 continues where t2 was. The
// part of t2 before frame survives as t2; if t2 starts at or after frame it
// is deleted. t2's descendants join t1's lineage and its children become
// t1's children. Cells are not moved; the caller reassigns t2's cells at or
// after frame to t1.
func Merge(tx types.Tx, t1, t2, frame int64) (IntegrateResult, error) {
	res, err := prepareFirst(tx, t1, t2, frame, types.OperationMerge)
	if err != nil {
		return IntegrateResult{}, err
	}

	first, err := tx.Track(t1)
	if err != nil {
		return IntegrateResult{}, err
	}
	second, err := tx.Track(t2)
	if err != nil {
		return IntegrateResult{}, err
	}

	first.TEnd = second.TEnd
	if err := tx.UpdateTrack(first); err != nil {
		return IntegrateResult{}, err
	}

	desc, err := lineage.Descendants(tx, t2)
	if err != nil {
		return IntegrateResult{}, err
	}
	if second.TBegin < frame {
		second.TEnd = frame - 1
		if second.ParentTrackID == t1 {
			// t1 now spans the head, so the head cannot stay its child.
			second.ParentTrackID = types.NoParent
			second.Root = t2
		}
		if err := tx.UpdateTrack(second); err != nil {
			return IntegrateResult{}, err
		}
	} else if err := tx.DeleteTrack(t2); err != nil {
		return IntegrateResult{}, err
	}

	err = rewriteLineage(tx, desc[1:], func(t *types.Track) {
		t.Root = first.Root
		if t.ParentTrackID == t2 {
			t.ParentTrackID = t1
		}
	})
	if err != nil {
		return IntegrateResult{}, err
	}
	return res, nil
}

// Connect makes t2 a child of t1 starting at frame while keeping t2 as its
// own track. t1 ends at frame-1. If t2 starts before frame, its head
// [TBegin, frame-1] becomes a new track that keeps t2's former parent, and
// t2 starts at frame. t2 and its descendants join t1's lineage. Cells are
// not moved; the caller reassigns t2's cells before frame to T2Before.
func Connect(tx types.Tx, t1, t2, frame int64) (IntegrateResult, error) {
	res, err := prepareFirst(tx, t1, t2, frame, types.OperationConnect)
	if err != nil {
		return IntegrateResult{}, err
	}

	first, err := tx.Track(t1)
	if err != nil {
		return IntegrateResult{}, err
	}
	first.TEnd = frame - 1
	if err := tx.UpdateTrack(first); err != nil {
		return IntegrateResult{}, err
	}

	second, err := tx.Track(t2)
	if err != nil {
		return IntegrateResult{}, err
	}
	if second.TBegin < frame {
		headID, err := lineage.NewTrackID(tx)
		if err != nil {
			return IntegrateResult{}, err
		}
		head := types.NewRootTrack(headID, second.TBegin, frame-1)
		head.ParentTrackID = second.ParentTrackID
		if second.Root != second.TrackID {
			head.Root = second.Root
		}
		if err := tx.InsertTrack(head); err != nil {
			return IntegrateResult{}, err
		}
		second.TBegin = frame
		res.T2Before = &headID
	}
	second.ParentTrackID = t1
	if err := tx.UpdateTrack(second); err != nil {
		return IntegrateResult{}, err
	}

	desc, err := lineage.Descendants(tx, t2)
	if err != nil {
		return IntegrateResult{}, err
	}
	if err := rewriteLineage(tx, desc, func(t *types.Track) { t.Root = first.Root }); err != nil {
		return IntegrateResult{}, err
	}
	return res, nil
}

// prepareFirst checks the integration preconditions and frees t1 to continue
// at frame. A t1 spanning frame is cut there. A t1 ending before frame loses
// the children that would overlap its new end: for Merge every child except
// t2, for Connect every child not starting at frame.
func prepareFirst(tx types.Tx, t1, t2, frame int64, op types.Operation) (IntegrateResult, error) {
	first, err := tx.Track(t1)
	if err != nil {
		return IntegrateResult{}, err
	}
	second, err := tx.Track(t2)
	if err != nil {
		return IntegrateResult{}, err
	}
	if first.TBegin >= frame {
		return IntegrateResult{}, fmt.Errorf("%s %d into %d at %d: %w", op, t2, t1, frame, types.ErrFrameNotAfterStart)
	}
	if t1 == t2 {
		return IntegrateResult{}, fmt.Errorf("%s track %d with itself: %w", op, t1, types.ErrInvalidArgument)
	}
	if second.TEnd < frame {
		return IntegrateResult{}, fmt.Errorf("%s: track %d ends at %d before frame %d: %w", op, t2, second.TEnd, frame, types.ErrInvalidArgument)
	}
	below, err := lineage.DescendantIDs(tx, t2)
	if err != nil {
		return IntegrateResult{}, err
	}
	if slices.Contains(below, t1) {
		return IntegrateResult{}, fmt.Errorf("%s: track %d descends from %d: %w", op, t1, t2, types.ErrInvalidArgument)
	}

	var res IntegrateResult
	if first.TEnd >= frame {
		cut, err := Cut(tx, t1, frame)
		if err != nil {
			return IntegrateResult{}, err
		}
		res.T1After = cut.NewTrack
		return res, nil
	}

	keep := func(c types.Track) bool { return c.TBegin == frame }
	if op == types.OperationMerge {
		keep = func(c types.Track) bool { return c.TrackID == t2 }
	}
	if err := detachChildren(tx, t1, keep); err != nil {
		return IntegrateResult{}, err
	}
	return res, nil
}
