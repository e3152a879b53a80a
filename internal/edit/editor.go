package edit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/gardener/internal/metrics"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Operation names used in logs and metric labels.
const (
	OpCut        = "cut"
	OpMerge      = "merge"
	OpConnect    = "connect"
	OpDelete     = "delete"
	OpAddCell    = "add_cell"
	OpRemoveCell = "remove_cell"
	OpNote       = "note"
	OpAccept     = "accept"
	OpTagCell    = "tag_cell"
)

// Editor applies track edits to a store. Each method runs as a single
// Store.Update, so the structural change and the matching cell moves commit
// together or not at all.
type Editor struct {
	store   types.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithLogger sets the logger for edit messages.
func WithLogger(l *slog.Logger) EditorOption {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records every edit on m.
func WithMetrics(m *metrics.Metrics) EditorOption {
	return func(e *Editor) { e.metrics = m }
}

// NewEditor returns an Editor over store.
func NewEditor(store types.Store, opts ...EditorOption) *Editor {
	e := &Editor{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CutTrack cuts track id at frame and moves the cells from frame on to the
// new track when the track was split.
func (e *Editor) CutTrack(ctx context.Context, id, frame int64) (CutResult, error) {
	var res CutResult
	err := e.run(ctx, OpCut, func(tx types.Tx) error {
		var err error
		if res, err = Cut(tx, id, frame); err != nil {
			return err
		}
		if res.NewTrack == nil {
			return nil
		}
		return moveCells(tx, id, frame, *res.NewTrack, types.DirectionAfter)
	}, "track", id, "frame", frame)
	if err != nil {
		return CutResult{}, err
	}
	if res.NewTrack != nil {
		e.metrics.TrackCreated()
	}
	return res, nil
}

// MergeTracks merges t2 into t1 at frame. t1's cells from frame on follow
// the split-off tail, then t2's cells from frame on are given to t1.
func (e *Editor) MergeTracks(ctx context.Context, t1, t2, frame int64) (IntegrateResult, error) {
	var res IntegrateResult
	err := e.run(ctx, OpMerge, func(tx types.Tx) error {
		var err error
		if res, err = Merge(tx, t1, t2, frame); err != nil {
			return err
		}
		if res.T1After != nil {
			if err := moveCells(tx, t1, frame, *res.T1After, types.DirectionAfter); err != nil {
				return err
			}
		}
		return moveCells(tx, t2, frame, t1, types.DirectionAfter)
	}, "t1", t1, "t2", t2, "frame", frame)
	if err != nil {
		return IntegrateResult{}, err
	}
	e.countCreated(res)
	return res, nil
}

// ConnectTracks makes t2 a child of t1 at frame. t1's cells from frame on
// follow its split-off tail and t2's cells before frame follow its
// split-off head.
func (e *Editor) ConnectTracks(ctx context.Context, t1, t2, frame int64) (IntegrateResult, error) {
	var res IntegrateResult
	err := e.run(ctx, OpConnect, func(tx types.Tx) error {
		var err error
		if res, err = Connect(tx, t1, t2, frame); err != nil {
			return err
		}
		if res.T1After != nil {
			if err := moveCells(tx, t1, frame, *res.T1After, types.DirectionAfter); err != nil {
				return err
			}
		}
		if res.T2Before != nil {
			return moveCells(tx, t2, frame, *res.T2Before, types.DirectionBefore)
		}
		return nil
	}, "t1", t1, "t2", t2, "frame", frame)
	if err != nil {
		return IntegrateResult{}, err
	}
	e.countCreated(res)
	return res, nil
}

// IntegrateTracks runs MergeTracks or ConnectTracks for op.
func (e *Editor) IntegrateTracks(ctx context.Context, op types.Operation, t1, t2, frame int64) (IntegrateResult, error) {
	switch op {
	case types.OperationMerge:
		return e.MergeTracks(ctx, t1, t2, frame)
	case types.OperationConnect:
		return e.ConnectTracks(ctx, t1, t2, frame)
	}
	_, err := types.ParseOperation(string(op))
	return IntegrateResult{}, err
}

// DeleteTrack deletes track id together with its cells.
func (e *Editor) DeleteTrack(ctx context.Context, id int64) (DeleteResult, error) {
	var res DeleteResult
	err := e.run(ctx, OpDelete, func(tx types.Tx) error {
		var err error
		if res, err = Delete(tx, id); err != nil || res.Status != StatusDeleted {
			return err
		}
		_, err = tx.DeleteCells(id, 0, types.DirectionAll)
		return err
	}, "track", id)
	if err != nil {
		return DeleteResult{}, err
	}
	e.logger.Info(res.String(), "track", id)
	return res, nil
}

// AddCell stores c and resyncs its track. See AddCell.
func (e *Editor) AddCell(ctx context.Context, c types.Cell, markModified bool) (types.Cell, error) {
	var out types.Cell
	err := e.run(ctx, OpAddCell, func(tx types.Tx) error {
		var err error
		out, err = AddCell(tx, c, markModified)
		return err
	}, "track", c.TrackID, "frame", c.T)
	return out, err
}

// RemoveCell deletes one cell and resyncs its track.
func (e *Editor) RemoveCell(ctx context.Context, track, frame int64) error {
	return e.run(ctx, OpRemoveCell, func(tx types.Tx) error {
		return RemoveCell(tx, track, frame)
	}, "track", track, "frame", frame)
}

// Note returns the note of track id.
func (e *Editor) Note(ctx context.Context, id int64) (string, error) {
	var note string
	err := e.store.View(ctx, func(tx types.Tx) error {
		var err error
		note, err = Note(tx, id)
		return err
	})
	return note, err
}

// SetNote replaces the note of track id.
func (e *Editor) SetNote(ctx context.Context, id int64, note string) error {
	return e.run(ctx, OpNote, func(tx types.Tx) error {
		return SetNote(tx, id, note)
	}, "track", id)
}

// SetAccepted sets the accepted flag of track id.
func (e *Editor) SetAccepted(ctx context.Context, id int64, accepted bool) error {
	return e.run(ctx, OpAccept, func(tx types.Tx) error {
		return SetAccepted(tx, id, accepted)
	}, "track", id, "accepted", accepted)
}

// ToggleCellTag flips tag on one cell and returns its new state.
func (e *Editor) ToggleCellTag(ctx context.Context, track, frame int64, tag string) (bool, error) {
	var state bool
	err := e.run(ctx, OpTagCell, func(tx types.Tx) error {
		var err error
		state, err = ToggleCellTag(tx, track, frame, tag)
		return err
	}, "track", track, "frame", frame, "tag", tag)
	return state, err
}

func (e *Editor) run(ctx context.Context, op string, fn func(types.Tx) error, attrs ...any) error {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	log := e.logger.With("op", op, "op_id", id.String())
	log.Debug("edit started", attrs...)

	start := time.Now()
	err = e.store.Update(ctx, fn)
	e.metrics.ObserveEdit(op, start, err)
	if err != nil {
		log.Debug("edit failed", append(attrs, "error", err)...)
		return err
	}
	log.Debug("edit committed", append(attrs, "elapsed", time.Since(start))...)
	return nil
}

func (e *Editor) countCreated(res IntegrateResult) {
	if res.T1After != nil {
		e.metrics.TrackCreated()
	}
	if res.T2Before != nil {
		e.metrics.TrackCreated()
	}
}

// moveCells reassigns the cells of track on the dir side of frame to
// newTrack. A side without cells is left alone, since a split bound falls
// back to frame when no cell lies beyond it.
func moveCells(tx types.Tx, track, frame, newTrack int64, dir types.Direction) error {
	ts, err := tx.CellTimes(track)
	if err != nil {
		return err
	}
	for _, t := range ts {
		if dir.Includes(t, frame) {
			_, err := SyncCellsForTrackEdit(tx, track, frame, &newTrack, dir)
			return err
		}
	}
	return nil
}
