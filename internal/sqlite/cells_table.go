// This file implements the cell accessors of the SQLite transaction.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

const cellSelect = "SELECT track_id, t, id, row, col, bbox_0, bbox_1, bbox_2, bbox_3, mask, signals, tags FROM cells"

const cellInsert = `INSERT INTO cells (track_id, t, id, row, col, bbox_0, bbox_1, bbox_2, bbox_3, mask, signals, tags)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Cell retrieves the cell of trackID at frame t.
func (s *sqlTx) Cell(trackID, t int64) (types.Cell, error) {
	row := s.tx.QueryRow(cellSelect+" WHERE track_id = ? AND t = ?", trackID, t)
	c, err := hydrateCell(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Cell{}, fmt.Errorf("cell (%d, %d): %w", trackID, t, types.ErrNotFound)
	}
	if err != nil {
		return types.Cell{}, fmt.Errorf("getting cell (%d, %d): %w", trackID, t, err)
	}
	return c, nil
}

// Cells returns the cells matching f.
func (s *sqlTx) Cells(f types.CellFilter) ([]types.Cell, error) {
	var (
		clauses []string
		args    []any
	)
	if f.TrackID != nil {
		clauses = append(clauses, "track_id = ?")
		args = append(args, *f.TrackID)
	}
	if f.Frame != nil {
		if f.Direction == "" {
			clauses = append(clauses, "t = ?")
			args = append(args, *f.Frame)
		} else {
			clause, dirArgs, err := directionClause(f.Direction, *f.Frame)
			if err != nil {
				return nil, err
			}
			if clause != "" {
				clauses = append(clauses, clause)
				args = append(args, dirArgs...)
			}
		}
	}
	if f.Window != nil {
		w := f.Window
		clauses = append(clauses, "bbox_0 < ? AND bbox_1 < ? AND bbox_2 > ? AND bbox_3 > ?")
		args = append(args, w.RowStop, w.ColStop, w.RowStart, w.ColStart)
	}

	query := cellSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY track_id, t"

	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cells: %w", err)
	}
	defer rows.Close()

	var out []types.Cell
	for rows.Next() {
		c, err := hydrateCell(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cell: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CellTimes returns the sorted frames of trackID's cells.
func (s *sqlTx) CellTimes(trackID int64) ([]int64, error) {
	ts, err := s.queryIDs("SELECT t FROM cells WHERE track_id = ? ORDER BY t", trackID)
	if err != nil {
		return nil, fmt.Errorf("querying cell times of track %d: %w", trackID, err)
	}
	return ts, nil
}

// InsertCell adds one cell.
func (s *sqlTx) InsertCell(c types.Cell) error {
	args, err := cellArgs(c)
	if err != nil {
		return err
	}
	if _, err := s.tx.Exec(cellInsert, args...); err != nil {
		return fmt.Errorf("inserting cell (%d, %d): %w", c.TrackID, c.T, err)
	}
	return nil
}

// InsertCells adds cells with one prepared statement.
func (s *sqlTx) InsertCells(cells []types.Cell) error {
	if len(cells) == 0 {
		return nil
	}
	stmt, err := s.tx.Prepare(cellInsert)
	if err != nil {
		return fmt.Errorf("preparing cell insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cells {
		args, err := cellArgs(c)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting cell (%d, %d): %w", c.TrackID, c.T, err)
		}
	}
	return nil
}

// UpdateCell rewrites the non-key columns of the cell at (TrackID, T).
func (s *sqlTx) UpdateCell(c types.Cell) error {
	args, err := cellArgs(c)
	if err != nil {
		return err
	}
	// args[2:] are id through tags; the key goes last.
	res, err := s.tx.Exec(
		`UPDATE cells SET id = ?, row = ?, col = ?, bbox_0 = ?, bbox_1 = ?, bbox_2 = ?, bbox_3 = ?,
		 mask = ?, signals = ?, tags = ? WHERE track_id = ? AND t = ?`,
		append(args[2:], c.TrackID, c.T)...,
	)
	if err != nil {
		return fmt.Errorf("updating cell (%d, %d): %w", c.TrackID, c.T, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cell (%d, %d): %w", c.TrackID, c.T, types.ErrNotFound)
	}
	return nil
}

// DeleteCell removes the cell of trackID at frame t.
func (s *sqlTx) DeleteCell(trackID, t int64) error {
	res, err := s.tx.Exec("DELETE FROM cells WHERE track_id = ? AND t = ?", trackID, t)
	if err != nil {
		return fmt.Errorf("deleting cell (%d, %d): %w", trackID, t, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cell (%d, %d): %w", trackID, t, types.ErrNotFound)
	}
	return nil
}

// ReassignCells moves the selected cells of trackID onto newTrackID.
func (s *sqlTx) ReassignCells(trackID, frame int64, dir types.Direction, newTrackID int64) (int64, error) {
	clause, dirArgs, err := directionClause(dir, frame)
	if err != nil {
		return 0, err
	}
	query := "UPDATE cells SET track_id = ? WHERE track_id = ?"
	args := []any{newTrackID, trackID}
	if clause != "" {
		query += " AND " + clause
		args = append(args, dirArgs...)
	}
	res, err := s.tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("reassigning cells of track %d to %d: %w", trackID, newTrackID, err)
	}
	return res.RowsAffected()
}

// DeleteCells removes the selected cells of trackID.
func (s *sqlTx) DeleteCells(trackID, frame int64, dir types.Direction) (int64, error) {
	clause, dirArgs, err := directionClause(dir, frame)
	if err != nil {
		return 0, err
	}
	query := "DELETE FROM cells WHERE track_id = ?"
	args := []any{trackID}
	if clause != "" {
		query += " AND " + clause
		args = append(args, dirArgs...)
	}
	res, err := s.tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting cells of track %d: %w", trackID, err)
	}
	return res.RowsAffected()
}

// MaxCellID returns the largest cell id, or 0 on an empty table.
func (s *sqlTx) MaxCellID() (int64, error) {
	var max sql.NullInt64
	if err := s.tx.QueryRow("SELECT MAX(id) FROM cells").Scan(&max); err != nil {
		return 0, fmt.Errorf("querying max cell id: %w", err)
	}
	return max.Int64, nil
}

// AnyCell returns the first cell in key order.
func (s *sqlTx) AnyCell() (types.Cell, error) {
	c, err := hydrateCell(s.tx.QueryRow(cellSelect + " LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Cell{}, fmt.Errorf("no cells: %w", types.ErrNotFound)
	}
	return c, err
}

// OrphanCellCount counts cells whose track row is missing.
func (s *sqlTx) OrphanCellCount() (int64, error) {
	var n int64
	err := s.tx.QueryRow(
		"SELECT COUNT(*) FROM cells WHERE track_id NOT IN (SELECT track_id FROM tracks)",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting orphan cells: %w", err)
	}
	return n, nil
}

// directionClause returns the SQL predicate on t for dir. DirectionAll
// selects every cell and yields an empty clause.
func directionClause(dir types.Direction, frame int64) (string, []any, error) {
	switch dir {
	case types.DirectionBefore:
		return "t < ?", []any{frame}, nil
	case types.DirectionAfter:
		return "t >= ?", []any{frame}, nil
	case types.DirectionAll:
		return "", nil, nil
	}
	return "", nil, fmt.Errorf("direction %q: %w", dir, types.ErrInvalidArgument)
}

func cellArgs(c types.Cell) ([]any, error) {
	var mask []byte
	if c.Mask != nil {
		b, err := c.Mask.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("cell (%d, %d) mask: %w", c.TrackID, c.T, err)
		}
		mask = b
	}
	signals, err := encodeSignals(c.Signals)
	if err != nil {
		return nil, err
	}
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		c.TrackID, c.T, c.ID, c.Row, c.Col,
		c.BBox[0], c.BBox[1], c.BBox[2], c.BBox[3],
		mask, signals, tags,
	}, nil
}

func hydrateCell(row scanner) (types.Cell, error) {
	var (
		c       types.Cell
		id      sql.NullInt64
		r, col  sql.NullInt64
		mask    []byte
		signals sql.NullString
		tags    sql.NullString
	)
	err := row.Scan(&c.TrackID, &c.T, &id, &r, &col,
		&c.BBox[0], &c.BBox[1], &c.BBox[2], &c.BBox[3],
		&mask, &signals, &tags)
	if err != nil {
		return types.Cell{}, err
	}
	c.ID, c.Row, c.Col = id.Int64, r.Int64, col.Int64

	if len(mask) > 0 {
		var m types.Mask
		if err := m.UnmarshalBinary(mask); err != nil {
			return types.Cell{}, fmt.Errorf("cell (%d, %d) mask: %w", c.TrackID, c.T, err)
		}
		c.Mask = &m
	}
	if c.Signals, err = decodeSignals(signals.String); err != nil {
		return types.Cell{}, fmt.Errorf("cell (%d, %d) signals: %w", c.TrackID, c.T, err)
	}
	if c.Tags, err = decodeTags(tags.String); err != nil {
		return types.Cell{}, fmt.Errorf("cell (%d, %d) tags: %w", c.TrackID, c.T, err)
	}
	return c, nil
}
