package types

// NoShape is the bounding-box value of a cell without shape information.
const NoShape int64 = -1

// Cell is one observation of a tracked object at frame T. The pair
// (TrackID, T) is unique; ID is a globally unique surrogate used by external
// references.
type Cell struct {
	TrackID int64              `json:"track_id"`
	T       int64              `json:"t"`
	ID      int64              `json:"id"`
	Row     int64              `json:"row"`
	Col     int64              `json:"col"`
	BBox    [4]int64           `json:"bbox"`
	Mask    *Mask              `json:"-"`
	Signals map[string]float64 `json:"signals"`
	Tags    Tags               `json:"tags"`
}

// NewCell returns a cell at (trackID, t) with an unset bounding box and empty
// signal and tag maps.
func NewCell(trackID, t, id int64) Cell {
	return Cell{
		TrackID: trackID,
		T:       t,
		ID:      id,
		BBox:    [4]int64{NoShape, NoShape, NoShape, NoShape},
		Signals: map[string]float64{},
		Tags:    Tags{},
	}
}

// Clone returns a deep copy of the cell.
func (c Cell) Clone() Cell {
	out := c
	if c.Mask != nil {
		m := c.Mask.Clone()
		out.Mask = &m
	}
	if c.Signals != nil {
		out.Signals = make(map[string]float64, len(c.Signals))
		for k, v := range c.Signals {
			out.Signals[k] = v
		}
	}
	out.Tags = c.Tags.Clone()
	return out
}

// Window is a rectangular field of view in image coordinates. A cell is in
// the window when its bounding box overlaps it.
type Window struct {
	RowStart, RowStop int64
	ColStart, ColStop int64
}

// Overlaps reports whether the bounding box intersects the window.
func (w Window) Overlaps(bbox [4]int64) bool {
	return bbox[0] < w.RowStop && bbox[1] < w.ColStop &&
		bbox[2] > w.RowStart && bbox[3] > w.ColStart
}
