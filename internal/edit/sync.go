package edit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/gardener/internal/lineage"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Cell tag written by AddCell when the caller asks for edits to be marked.
const TagModified = "modified"

// SyncCellsForTrackEdit moves the cells of track selected by dir relative to
// frame onto newTrack, or deletes them when newTrack is nil. It returns the
// number of cells affected. No matching cells is an ErrLogic: callers only
// sync ranges a structural edit has shown to be populated.
func SyncCellsForTrackEdit(tx types.Tx, track, frame int64, newTrack *int64, dir types.Direction) (int64, error) {
	if _, err := types.ParseDirection(string(dir)); err != nil {
		return 0, err
	}

	var (
		n   int64
		err error
	)
	if newTrack != nil {
		n, err = tx.ReassignCells(track, frame, dir, *newTrack)
	} else {
		n, err = tx.DeleteCells(track, frame, dir)
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("no cells of track %d %s frame %d: %w", track, dir, frame, types.ErrLogic)
	}
	return n, nil
}

// SyncTrackAfterCellChange realigns track id with its cells after a single
// cell was added or removed at frame. A missing track is created as a
// floating root at frame. A track left without cells is deleted. Otherwise a
// moved start detaches the track from its parent and a moved end detaches
// its children before the bounds are updated.
func SyncTrackAfterCellChange(tx types.Tx, id, frame int64) error {
	if err := checkTrackID(id); err != nil {
		return err
	}
	if _, err := tx.Track(id); err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		if err := tx.InsertTrack(types.NewRootTrack(id, frame, frame)); err != nil {
			return err
		}
	}

	ts, err := tx.CellTimes(id)
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		_, err := Delete(tx, id)
		return err
	}
	tMin, tMax := slices.Min(ts), slices.Max(ts)

	tr, err := tx.Track(id)
	if err != nil {
		return err
	}
	if tr.TBegin != tMin {
		if _, err := Cut(tx, id, tr.TBegin); err != nil {
			return err
		}
		if tr, err = tx.Track(id); err != nil {
			return err
		}
		tr.TBegin = tMin
	}
	if tr.TEnd != tMax {
		if err := detachChildren(tx, id, nil); err != nil {
			return err
		}
		if tr, err = tx.Track(id); err != nil {
			return err
		}
		tr.TBegin = tMin
		tr.TEnd = tMax
	}
	return tx.UpdateTrack(tr)
}

// AddCell stores c under a freshly allocated cell id and resyncs its track.
// The track is created when it does not exist yet. A cell already present
// at (TrackID, T) is an ErrInvalidArgument.
func AddCell(tx types.Tx, c types.Cell, markModified bool) (types.Cell, error) {
	if err := checkTrackID(c.TrackID); err != nil {
		return types.Cell{}, err
	}
	if _, err := tx.Cell(c.TrackID, c.T); err == nil {
		return types.Cell{}, fmt.Errorf("cell of track %d at frame %d exists: %w", c.TrackID, c.T, types.ErrInvalidArgument)
	} else if !errors.Is(err, types.ErrNotFound) {
		return types.Cell{}, err
	}

	id, err := lineage.NewCellID(tx)
	if err != nil {
		return types.Cell{}, err
	}
	c = c.Clone()
	c.ID = id
	if markModified {
		c.Tags[TagModified] = types.Bool(true)
	}
	if err := tx.InsertCell(c); err != nil {
		return types.Cell{}, err
	}
	if err := SyncTrackAfterCellChange(tx, c.TrackID, c.T); err != nil {
		return types.Cell{}, err
	}
	return c, nil
}

// RemoveCell deletes the cell of track at frame and resyncs the track.
func RemoveCell(tx types.Tx, track, frame int64) error {
	if err := tx.DeleteCell(track, frame); err != nil {
		return err
	}
	return SyncTrackAfterCellChange(tx, track, frame)
}

// checkTrackID rejects ids that can never name a track. NoParent is among
// them.
func checkTrackID(id int64) error {
	if id < 1 {
		return fmt.Errorf("track id %d: %w", id, types.ErrInvalidArgument)
	}
	return nil
}
