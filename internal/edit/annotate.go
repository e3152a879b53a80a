package edit

import (
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Note returns the free-text note of track id.
func Note(tx types.Tx, id int64) (string, error) {
	tr, err := tx.Track(id)
	if err != nil {
		return "", err
	}
	return tr.Notes, nil
}

// SetNote replaces the note of track id.
func SetNote(tx types.Tx, id int64, note string) error {
	tr, err := tx.Track(id)
	if err != nil {
		return err
	}
	tr.Notes = note
	return tx.UpdateTrack(tr)
}

// SetAccepted sets the accepted flag of track id.
func SetAccepted(tx types.Tx, id int64, accepted bool) error {
	tr, err := tx.Track(id)
	if err != nil {
		return err
	}
	tr.AcceptedTag = accepted
	return tx.UpdateTrack(tr)
}

// ToggleCellTag flips the boolean tag on the cell of track at frame and
// returns its new state. An absent or non-boolean tag counts as false.
func ToggleCellTag(tx types.Tx, track, frame int64, tag string) (bool, error) {
	c, err := tx.Cell(track, frame)
	if err != nil {
		return false, err
	}
	state := !c.Tags.Flag(tag)
	if c.Tags == nil {
		c.Tags = types.Tags{}
	}
	c.Tags[tag] = types.Bool(state)
	if err := tx.UpdateCell(c); err != nil {
		return false, err
	}
	return state, nil
}
