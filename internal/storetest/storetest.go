// Package storetest provides seeded SQLite stores for tests.
package storetest

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gardener/internal/sqlite"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Open attaches a backend in a temporary directory and detaches it when the
// test ends.
func Open(t testing.TB) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

// Seed inserts tracks and cells in one transaction.
func Seed(t testing.TB, store types.Store, tracks []types.Track, cells []types.Cell) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		for _, tr := range tracks {
			if tr.Tags == nil {
				tr.Tags = types.Tags{}
			}
			if err := tx.InsertTrack(tr); err != nil {
				return err
			}
		}
		return tx.InsertCells(cells)
	}))
}

// Track builds a track row.
func Track(id, parent, root, begin, end int64) types.Track {
	return types.Track{TrackID: id, ParentTrackID: parent, Root: root, TBegin: begin, TEnd: end, Tags: types.Tags{}}
}

// CellsFor returns one cell per frame across each track's span. Cell ids are
// assigned sequentially from 1 in track order.
func CellsFor(tracks []types.Track) []types.Cell {
	var (
		cells []types.Cell
		id    int64
	)
	for _, tr := range tracks {
		for f := tr.TBegin; f <= tr.TEnd; f++ {
			id++
			c := types.NewCell(tr.TrackID, f, id)
			c.Row, c.Col = f, tr.TrackID
			c.BBox = [4]int64{f, tr.TrackID, f + 4, tr.TrackID + 4}
			c.Signals["area"] = float64(10 + f)
			cells = append(cells, c)
		}
	}
	return cells
}

// Extended returns a five-track forest: 1 divides into 2 and 3 at frame 11,
// 3 continues as 4 from frame 21, and 5 floats over frames 41 to 45.
func Extended() []types.Track {
	return []types.Track{
		Track(1, types.NoParent, 1, 0, 10),
		Track(2, 1, 1, 11, 50),
		Track(3, 1, 1, 11, 20),
		Track(4, 3, 1, 21, 40),
		Track(5, types.NoParent, 5, 41, 45),
	}
}

// OpenExtended returns a store seeded with Extended and a cell at every frame
// of every track.
func OpenExtended(t testing.TB) *sqlite.Backend {
	t.Helper()
	b := Open(t)
	tracks := Extended()
	Seed(t, b, tracks, CellsFor(tracks))
	return b
}

// Get reads a track. A missing track reports ok == false.
func Get(t testing.TB, store types.Store, id int64) (types.Track, bool) {
	t.Helper()
	var (
		tr    types.Track
		found bool
	)
	require.NoError(t, store.View(context.Background(), func(tx types.Tx) error {
		got, err := tx.Track(id)
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		tr, found = got, true
		return nil
	}))
	return tr, found
}

// MustGet reads a track and fails the test when it is missing.
func MustGet(t testing.TB, store types.Store, id int64) types.Track {
	t.Helper()
	tr, ok := Get(t, store, id)
	require.True(t, ok, "track %d not found", id)
	return tr
}

// Tracks returns every track keyed by id.
func Tracks(t testing.TB, store types.Store) map[int64]types.Track {
	t.Helper()
	out := map[int64]types.Track{}
	require.NoError(t, store.View(context.Background(), func(tx types.Tx) error {
		ts, err := tx.Tracks(types.TrackFilter{})
		for _, tr := range ts {
			out[tr.TrackID] = tr
		}
		return err
	}))
	return out
}

// CellTimes returns the frames of a track's cells.
func CellTimes(t testing.TB, store types.Store, id int64) []int64 {
	t.Helper()
	var ts []int64
	require.NoError(t, store.View(context.Background(), func(tx types.Tx) error {
		var err error
		ts, err = tx.CellTimes(id)
		return err
	}))
	return ts
}

// Exec runs raw SQL against the backend's database file on a separate
// connection, for tests that need a store the Tx API cannot produce.
func Exec(t testing.TB, b *sqlite.Backend, query string, args ...any) {
	t.Helper()
	db, err := sql.Open("sqlite", b.Path())
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(query, args...)
	require.NoError(t, err, query)
}

// TracksOnlyFile writes a database that holds the tracks table and nothing
// else, as left by an interrupted setup, and returns its path.
func TracksOnlyFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), types.DefaultDatabaseFile)
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE tracks (
		track_id INTEGER NOT NULL PRIMARY KEY,
		parent_track_id INTEGER,
		root INTEGER,
		t_begin INTEGER,
		t_end INTEGER,
		accepted_tag BOOLEAN DEFAULT 0,
		tags JSON DEFAULT '{}',
		notes TEXT DEFAULT ''
	)`)
	require.NoError(t, err)
	return path
}

// TableNames lists the tables in the file at path without going through a
// backend.
func TableNames(t testing.TB, path string) []string {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

// OpenReadOnly attaches the file at path without migrating it.
func OpenReadOnly(t testing.TB, path string) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend(sqlite.ReadOnly())
	require.NoError(t, b.Attach(types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      filepath.Dir(path),
		DatabaseFile: filepath.Base(path),
	}))
	t.Cleanup(func() { b.Detach() })
	return b
}
