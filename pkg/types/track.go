package types

// NoParent marks a track that is the root of its own lineage. It is never a
// valid track id.
const NoParent int64 = -1

// Track is one linear lineage segment (a tracklet) spanning the inclusive
// frame range [TBegin, TEnd].
type Track struct {
	TrackID       int64  `json:"track_id"`
	ParentTrackID int64  `json:"parent_track_id"`
	Root          int64  `json:"root"`
	TBegin        int64  `json:"t_begin"`
	TEnd          int64  `json:"t_end"`
	AcceptedTag   bool   `json:"accepted_tag"`
	Tags          Tags   `json:"tags"`
	Notes         string `json:"notes"`
}

// NewRootTrack returns a floating track spanning [begin, end] that is its own
// root.
func NewRootTrack(id, begin, end int64) Track {
	return Track{
		TrackID:       id,
		ParentTrackID: NoParent,
		Root:          id,
		TBegin:        begin,
		TEnd:          end,
		Tags:          Tags{},
	}
}

// IsFloating reports whether the track has no parent.
func (t Track) IsFloating() bool {
	return t.ParentTrackID == NoParent
}

// Contains reports whether frame lies inside [TBegin, TEnd].
func (t Track) Contains(frame int64) bool {
	return frame >= t.TBegin && frame <= t.TEnd
}

// Clone returns a deep copy of the track. The copy shares no maps with t.
func (t Track) Clone() Track {
	c := t
	c.Tags = t.Tags.Clone()
	return c
}
