package types

// Table names.
const (
	TracksTable = "tracks"
	CellsTable  = "cells"
)

// TrackColumns lists the columns of the tracks table in declaration order.
var TrackColumns = []string{
	"track_id", "parent_track_id", "root", "t_begin", "t_end",
	"accepted_tag", "tags", "notes",
}

// CellColumns lists the columns of the cells table in declaration order.
var CellColumns = []string{
	"track_id", "t", "id", "row", "col",
	"bbox_0", "bbox_1", "bbox_2", "bbox_3",
	"mask", "signals", "tags",
}

// SchemaColumns maps each required table to its required columns.
func SchemaColumns() map[string][]string {
	return map[string][]string{
		TracksTable: TrackColumns,
		CellsTable:  CellColumns,
	}
}
