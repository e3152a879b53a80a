package types

import (
	"context"
	"errors"
)

// Store is an attached track database. Every mutation runs inside Update so
// that a multi-step edit commits as one unit or not at all.
type Store interface {
	// Update runs fn inside a read-write transaction. The transaction commits
	// when fn returns nil and rolls back otherwise; fn's error is returned.
	Update(ctx context.Context, fn func(Tx) error) error

	// View runs fn inside a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of table operations available inside a transaction. A Tx
// must not be retained after the function passed to Update or View returns.
type Tx interface {
	// Track returns the track with the given id, or ErrNotFound.
	Track(id int64) (Track, error)
	// Tracks returns the tracks matching f ordered by track id.
	Tracks(f TrackFilter) ([]Track, error)
	InsertTrack(t Track) error
	// UpdateTrack replaces every column of an existing track.
	UpdateTrack(t Track) error
	DeleteTrack(id int64) error
	// MaxTrackID returns the largest track id, or 0 when there are no tracks.
	MaxTrackID() (int64, error)
	// TrackEdges returns every parent/child pair where the child has a parent.
	TrackEdges() ([]Edge, error)

	// Cell returns the cell of trackID at frame t, or ErrNotFound.
	Cell(trackID, t int64) (Cell, error)
	// Cells returns the cells matching f ordered by (track_id, t).
	Cells(f CellFilter) ([]Cell, error)
	// CellTimes returns the sorted frames at which trackID has cells.
	CellTimes(trackID int64) ([]int64, error)
	InsertCell(c Cell) error
	InsertCells(cells []Cell) error
	UpdateCell(c Cell) error
	DeleteCell(trackID, t int64) error
	// ReassignCells moves the cells of trackID selected by dir relative to
	// frame onto newTrackID and returns how many moved.
	ReassignCells(trackID, frame int64, dir Direction, newTrackID int64) (int64, error)
	// DeleteCells removes the cells of trackID selected by dir relative to
	// frame and returns how many were removed.
	DeleteCells(trackID, frame int64, dir Direction) (int64, error)
	// MaxCellID returns the largest cell id, or 0 when there are no cells.
	MaxCellID() (int64, error)
	// AnyCell returns an arbitrary cell, or ErrNotFound on an empty table.
	AnyCell() (Cell, error)

	// TableNames lists the tables present in the database.
	TableNames() ([]string, error)
	// TableColumns lists the columns of table in declaration order.
	TableColumns(table string) ([]string, error)
	// OrphanCellCount counts cells whose track does not exist.
	OrphanCellCount() (int64, error)
	// EmptyTracks returns the ids of tracks that own no cells.
	EmptyTracks() ([]int64, error)
}

// Edge is a parent to child link in the lineage forest.
type Edge struct {
	Parent int64
	Child  int64
}

// TrackFilter selects tracks. Nil fields do not constrain the result. A time
// range keeps tracks whose span overlaps [TimeFrom, TimeTo].
type TrackFilter struct {
	Root     *int64
	Parent   *int64
	TrackIDs []int64
	TimeFrom *int64
	TimeTo   *int64
}

// CellFilter selects cells. With Frame set and Direction empty only cells at
// exactly Frame match; a non-empty Direction selects relative to Frame.
// Window keeps cells whose bounding box overlaps the field of view.
type CellFilter struct {
	TrackID   *int64
	Frame     *int64
	Direction Direction
	Window    *Window
}

// Int64 returns a pointer to v for filter fields.
func Int64(v int64) *int64 {
	return &v
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrStoreNotEmpty   = errors.New("store is not empty")
	ErrReadOnly        = errors.New("store is attached read-only")
)

// Operation errors.
var (
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrFrameNotAfterStart = errors.New("frame must be after the start of the first track")
	ErrLogic              = errors.New("operation matched no rows")
)
