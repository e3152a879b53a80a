package edit

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

// DeleteStatus is the outcome of Delete.
type DeleteStatus int

// Delete outcomes.
const (
	StatusDeleted DeleteStatus = iota + 1
	StatusNotFound
)

// DeleteResult reports what Delete did to TrackID.
type DeleteResult struct {
	TrackID int64
	Status  DeleteStatus
}

// String returns the status line shown to users.
func (r DeleteResult) String() string {
	if r.Status == StatusDeleted {
		return fmt.Sprintf("Track %d has been deleted.", r.TrackID)
	}
	return "Track not found"
}

// Delete removes track id. Each direct child is first cut at its own start,
// so it and its subtree become a separate lineage rooted at the child. The
// track's cells are left in place. A missing track is reported through the
// status, not as an error.
func Delete(tx types.Tx, id int64) (DeleteResult, error) {
	if _, err := tx.Track(id); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return DeleteResult{TrackID: id, Status: StatusNotFound}, nil
		}
		return DeleteResult{}, err
	}
	if err := detachChildren(tx, id, nil); err != nil {
		return DeleteResult{}, fmt.Errorf("detaching children of %d: %w", id, err)
	}
	if err := tx.DeleteTrack(id); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{TrackID: id, Status: StatusDeleted}, nil
}
