// JSON encoding for the tags and signals columns and the JSONL exchange
// records.
package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

func encodeTags(tags types.Tags) (string, error) {
	if len(tags) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) (types.Tags, error) {
	tags := types.Tags{}
	if s == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func encodeSignals(signals map[string]float64) (string, error) {
	if len(signals) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("encoding signals: %w", err)
	}
	return string(b), nil
}

func decodeSignals(s string) (map[string]float64, error) {
	signals := map[string]float64{}
	if s == "" {
		return signals, nil
	}
	if err := json.Unmarshal([]byte(s), &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// trackJSON represents a track in tracks.jsonl.
type trackJSON struct {
	TrackID       int64      `json:"track_id"`
	ParentTrackID int64      `json:"parent_track_id"`
	Root          int64      `json:"root"`
	TBegin        int64      `json:"t_begin"`
	TEnd          int64      `json:"t_end"`
	AcceptedTag   bool       `json:"accepted_tag"`
	Tags          types.Tags `json:"tags,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// cellJSON represents a cell in cells.jsonl. Mask holds the binary mask
// encoding, base64 in the file.
type cellJSON struct {
	TrackID int64              `json:"track_id"`
	T       int64              `json:"t"`
	ID      int64              `json:"id"`
	Row     int64              `json:"row"`
	Col     int64              `json:"col"`
	BBox    [4]int64           `json:"bbox"`
	Mask    []byte             `json:"mask,omitempty"`
	Signals map[string]float64 `json:"signals,omitempty"`
	Tags    types.Tags         `json:"tags,omitempty"`
}

// Manifest describes one export and is written to manifest.json.
type Manifest struct {
	ExportID      string `json:"export_id"`
	SchemaVersion uint   `json:"schema_version"`
	Tracks        int    `json:"tracks"`
	Cells         int    `json:"cells"`
	ExportedAt    string `json:"exported_at"`
}

func trackToJSON(t types.Track) trackJSON {
	return trackJSON{
		TrackID:       t.TrackID,
		ParentTrackID: t.ParentTrackID,
		Root:          t.Root,
		TBegin:        t.TBegin,
		TEnd:          t.TEnd,
		AcceptedTag:   t.AcceptedTag,
		Tags:          t.Tags,
		Notes:         t.Notes,
	}
}

func (r trackJSON) track() types.Track {
	tags := r.Tags
	if tags == nil {
		tags = types.Tags{}
	}
	return types.Track{
		TrackID:       r.TrackID,
		ParentTrackID: r.ParentTrackID,
		Root:          r.Root,
		TBegin:        r.TBegin,
		TEnd:          r.TEnd,
		AcceptedTag:   r.AcceptedTag,
		Tags:          tags,
		Notes:         r.Notes,
	}
}

func cellToJSON(c types.Cell) (cellJSON, error) {
	rec := cellJSON{
		TrackID: c.TrackID,
		T:       c.T,
		ID:      c.ID,
		Row:     c.Row,
		Col:     c.Col,
		BBox:    c.BBox,
		Signals: c.Signals,
		Tags:    c.Tags,
	}
	if c.Mask != nil {
		b, err := c.Mask.MarshalBinary()
		if err != nil {
			return cellJSON{}, err
		}
		rec.Mask = b
	}
	return rec, nil
}

func (r cellJSON) cell() (types.Cell, error) {
	c := types.Cell{
		TrackID: r.TrackID,
		T:       r.T,
		ID:      r.ID,
		Row:     r.Row,
		Col:     r.Col,
		BBox:    r.BBox,
		Signals: r.Signals,
		Tags:    r.Tags,
	}
	if c.Signals == nil {
		c.Signals = map[string]float64{}
	}
	if c.Tags == nil {
		c.Tags = types.Tags{}
	}
	if len(r.Mask) > 0 {
		var m types.Mask
		if err := m.UnmarshalBinary(r.Mask); err != nil {
			return types.Cell{}, err
		}
		c.Mask = &m
	}
	return c, nil
}
