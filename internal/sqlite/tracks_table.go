// This file implements the track accessors of the SQLite transaction.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

var _ types.Tx = (*sqlTx)(nil)

// sqlTx implements types.Tx over one database/sql transaction.
type sqlTx struct {
	tx *sql.Tx
}

const trackSelect = "SELECT track_id, parent_track_id, root, t_begin, t_end, accepted_tag, tags, notes FROM tracks"

// Track retrieves a track by id.
func (s *sqlTx) Track(id int64) (types.Track, error) {
	row := s.tx.QueryRow(trackSelect+" WHERE track_id = ?", id)
	t, err := hydrateTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Track{}, fmt.Errorf("track %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Track{}, fmt.Errorf("getting track %d: %w", id, err)
	}
	return t, nil
}

// maxIDsPerQuery bounds the placeholders of one IN list.
const maxIDsPerQuery = 500

// Tracks returns every track matching f.
func (s *sqlTx) Tracks(f types.TrackFilter) ([]types.Track, error) {
	if len(f.TrackIDs) > maxIDsPerQuery {
		return s.tracksChunked(f)
	}
	var (
		clauses []string
		args    []any
	)
	if f.Root != nil {
		clauses = append(clauses, "root = ?")
		args = append(args, *f.Root)
	}
	if f.Parent != nil {
		clauses = append(clauses, "parent_track_id = ?")
		args = append(args, *f.Parent)
	}
	if f.TrackIDs != nil {
		if len(f.TrackIDs) == 0 {
			return nil, nil
		}
		marks := make([]string, len(f.TrackIDs))
		for i, id := range f.TrackIDs {
			marks[i] = "?"
			args = append(args, id)
		}
		clauses = append(clauses, "track_id IN ("+strings.Join(marks, ", ")+")")
	}
	if f.TimeFrom != nil {
		clauses = append(clauses, "t_end >= ?")
		args = append(args, *f.TimeFrom)
	}
	if f.TimeTo != nil {
		clauses = append(clauses, "t_begin <= ?")
		args = append(args, *f.TimeTo)
	}

	query := trackSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY track_id"

	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var out []types.Track
	for rows.Next() {
		t, err := hydrateTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqlTx) tracksChunked(f types.TrackFilter) ([]types.Track, error) {
	ids := f.TrackIDs
	var out []types.Track
	for len(ids) > 0 {
		n := min(len(ids), maxIDsPerQuery)
		sub := f
		sub.TrackIDs = ids[:n]
		ids = ids[n:]
		ts, err := s.Tracks(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out, nil
}

// InsertTrack adds a new track row.
func (s *sqlTx) InsertTrack(t types.Track) error {
	if t.TrackID < 1 {
		return fmt.Errorf("inserting track %d: %w", t.TrackID, types.ErrInvalidArgument)
	}
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	_, err = s.tx.Exec(
		`INSERT INTO tracks (track_id, parent_track_id, root, t_begin, t_end, accepted_tag, tags, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TrackID, t.ParentTrackID, t.Root, t.TBegin, t.TEnd, t.AcceptedTag, tags, t.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting track %d: %w", t.TrackID, err)
	}
	return nil
}

// UpdateTrack rewrites every column of an existing track.
func (s *sqlTx) UpdateTrack(t types.Track) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	res, err := s.tx.Exec(
		`UPDATE tracks SET parent_track_id = ?, root = ?, t_begin = ?, t_end = ?,
		 accepted_tag = ?, tags = ?, notes = ? WHERE track_id = ?`,
		t.ParentTrackID, t.Root, t.TBegin, t.TEnd, t.AcceptedTag, tags, t.Notes, t.TrackID,
	)
	if err != nil {
		return fmt.Errorf("updating track %d: %w", t.TrackID, err)
	}
	return requireOne(res, "track", t.TrackID)
}

// DeleteTrack removes a track row. Cells are not touched.
func (s *sqlTx) DeleteTrack(id int64) error {
	res, err := s.tx.Exec("DELETE FROM tracks WHERE track_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting track %d: %w", id, err)
	}
	return requireOne(res, "track", id)
}

// MaxTrackID returns the largest track id, or 0 on an empty table.
func (s *sqlTx) MaxTrackID() (int64, error) {
	var max sql.NullInt64
	if err := s.tx.QueryRow("SELECT MAX(track_id) FROM tracks").Scan(&max); err != nil {
		return 0, fmt.Errorf("querying max track id: %w", err)
	}
	return max.Int64, nil
}

// TrackEdges returns every (parent, child) pair.
func (s *sqlTx) TrackEdges() ([]types.Edge, error) {
	rows, err := s.tx.Query(
		"SELECT parent_track_id, track_id FROM tracks WHERE parent_track_id != ? ORDER BY track_id",
		types.NoParent,
	)
	if err != nil {
		return nil, fmt.Errorf("querying track edges: %w", err)
	}
	defer rows.Close()

	var out []types.Edge
	for rows.Next() {
		var e types.Edge
		if err := rows.Scan(&e.Parent, &e.Child); err != nil {
			return nil, fmt.Errorf("scanning track edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EmptyTracks returns the ids of tracks with no cells.
func (s *sqlTx) EmptyTracks() ([]int64, error) {
	return s.queryIDs(`SELECT track_id FROM tracks
		WHERE track_id NOT IN (SELECT DISTINCT track_id FROM cells)
		ORDER BY track_id`)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func hydrateTrack(row scanner) (types.Track, error) {
	var (
		t     types.Track
		tags  sql.NullString
		notes sql.NullString
	)
	if err := row.Scan(&t.TrackID, &t.ParentTrackID, &t.Root, &t.TBegin, &t.TEnd, &t.AcceptedTag, &tags, &notes); err != nil {
		return types.Track{}, err
	}
	decoded, err := decodeTags(tags.String)
	if err != nil {
		return types.Track{}, fmt.Errorf("track %d tags: %w", t.TrackID, err)
	}
	t.Tags = decoded
	t.Notes = notes.String
	return t, nil
}

func requireOne(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, types.ErrNotFound)
	}
	return nil
}

func (s *sqlTx) queryIDs(query string, args ...any) ([]int64, error) {
	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
