package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gardener/internal/sqlite"
	"github.com/mesh-intelligence/gardener/internal/storetest"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// testEnv runs commands in-process against a config and database in a
// temporary directory.
type testEnv struct {
	t      *testing.T
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("GARDENER_CONFIG", "")
	t.Setenv("GARDENER_DB", "")
	dir := t.TempDir()
	return &testEnv{
		t:      t,
		dir:    dir,
		config: filepath.Join(dir, "gardener.yaml"),
		db:     filepath.Join(dir, "gardener.db"),
	}
}

// seededEnv returns an initialized environment whose database holds the
// Extended forest with a cell at every frame.
func seededEnv(t *testing.T) *testEnv {
	t.Helper()
	e := newTestEnv(t)
	e.mustRun("init", "--experiment", "test")
	e.seed(storetest.Extended())
	return e
}

func (e *testEnv) seed(tracks []types.Track) {
	e.t.Helper()
	b := sqlite.NewBackend()
	require.NoError(e.t, b.Attach(types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      e.dir,
		DatabaseFile: filepath.Base(e.db),
	}))
	defer b.Detach()
	storetest.Seed(e.t, b, tracks, storetest.CellsFor(tracks))
}

func (e *testEnv) run(args ...string) (stdout, stderr string, code int) {
	e.t.Helper()
	var out, errb bytes.Buffer
	full := append([]string{"--config", e.config, "--db", e.db}, args...)
	code = run(full, &out, &errb)
	return out.String(), errb.String(), code
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	stdout, stderr, code := e.run(args...)
	require.Equal(e.t, exitSuccess, code, "gardener %v\nstdout: %s\nstderr: %s", args, stdout, stderr)
	return stdout
}

func (e *testEnv) runJSON(v any, args ...string) {
	e.t.Helper()
	out := e.mustRun(append([]string{"--json"}, args...)...)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), out)
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("version")
	assert.Contains(t, out, "gardener v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun("init", "--experiment", "exp1")
	assert.Contains(t, out, "Wrote config")
	assert.Contains(t, out, "Database ready at "+e.db)
	assert.FileExists(t, e.config)
	assert.FileExists(t, e.db)

	data, err := os.ReadFile(e.config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "experiment_name: exp1")

	// Second run keeps the existing config.
	out = e.mustRun("init")
	assert.NotContains(t, out, "Wrote config")
	assert.Contains(t, out, "Database ready")
}

func TestValidate(t *testing.T) {
	e := seededEnv(t)
	out := e.mustRun("validate")
	assert.Equal(t, "Database is valid.\n", out)

	var rep struct {
		Valid    bool              `json:"valid"`
		Ran      []string          `json:"ran"`
		Findings []json.RawMessage `json:"findings"`
	}
	e.runJSON(&rep, "validate")
	assert.True(t, rep.Valid)
	assert.NotEmpty(t, rep.Ran)
	assert.Empty(t, rep.Findings)
}

func TestValidate_FindingsExitOne(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("init")
	e.seed([]types.Track{
		storetest.Track(1, types.NoParent, 1, 0, 10),
		storetest.Track(2, 1, 2, 11, 20),
	})

	out, _, code := e.run("validate")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, out, "multiple root values")
}

func TestValidate_MissingDatabase(t *testing.T) {
	e := newTestEnv(t)
	_, stderr, code := e.run("validate")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "gardener init")
	assert.NoFileExists(t, e.db)
}

func TestValidate_LeavesSchemaUntouched(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("init")
	e.db = storetest.TracksOnlyFile(t)

	out, _, code := e.run("validate")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, out, "Missing tables: cells")
	assert.Equal(t, []string{types.TracksTable}, storetest.TableNames(t, e.db))
}

func TestTrackQueries(t *testing.T) {
	e := seededEnv(t)

	var tr types.Track
	e.runJSON(&tr, "track", "show", "3")
	assert.Equal(t, int64(1), tr.ParentTrackID)
	assert.Equal(t, int64(11), tr.TBegin)
	assert.Equal(t, int64(20), tr.TEnd)

	var list []types.Track
	e.runJSON(&list, "track", "list", "--parent", "1")
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].TrackID)
	assert.Equal(t, int64(3), list[1].TrackID)

	e.runJSON(&list, "track", "list", "--parent=-1")
	require.Len(t, list, 2)
	assert.Equal(t, int64(5), list[1].TrackID)

	e.runJSON(&list, "track", "list", "--from", "41")
	require.Len(t, list, 2)
	assert.Equal(t, []int64{2, 5}, []int64{list[0].TrackID, list[1].TrackID})

	e.runJSON(&list, "track", "descendants", "3")
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].TrackID)
	assert.Equal(t, int64(4), list[1].TrackID)

	out := e.mustRun("track", "tree", "1")
	assert.Equal(t, "1 [0, 10]\n  2 [11, 50]\n  3 [11, 20]\n    4 [21, 40]\n", out)

	var forest []treeNode
	e.runJSON(&forest, "track", "tree", "1")
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 2)
	require.Len(t, forest[0].Children[1].Children, 1)
	assert.Equal(t, int64(4), forest[0].Children[1].Children[0].Track)

	out = e.mustRun("track", "tree", "99")
	assert.Equal(t, "No tracks with root 99\n", out)
}

func TestTrackEdits(t *testing.T) {
	e := seededEnv(t)

	out := e.mustRun("track", "cut", "1", "5")
	assert.Equal(t, "Track 1 cut at frame 5; new track 6.\n", out)

	var cut struct {
		Mitosis  bool   `json:"mitosis"`
		NewTrack *int64 `json:"new_track"`
	}
	e.runJSON(&cut, "track", "cut", "3", "11")
	assert.True(t, cut.Mitosis)
	assert.Nil(t, cut.NewTrack)

	out = e.mustRun("track", "merge", "4", "5", "41")
	assert.Equal(t, "Track 5 merged into 4 at frame 41.\n", out)

	var tr types.Track
	e.runJSON(&tr, "track", "show", "4")
	assert.Equal(t, int64(45), tr.TEnd)

	out = e.mustRun("track", "connect", "4", "2", "43")
	assert.Contains(t, out, "Track 2 connected to 4 at frame 43.")
	assert.Contains(t, out, "Track 4 continues as 7.")
	assert.Contains(t, out, "Head of track 2 is now 8.")

	out = e.mustRun("track", "delete", "3")
	assert.Equal(t, "Track 3 has been deleted.\n", out)

	assert.Equal(t, "Database is valid.\n", e.mustRun("validate"))
}

func TestTrackDelete_NotFound(t *testing.T) {
	e := seededEnv(t)
	out, _, code := e.run("track", "delete", "99")
	assert.Equal(t, exitUserError, code)
	assert.Equal(t, "Track not found\n", out)
}

func TestTrackAnnotations(t *testing.T) {
	e := seededEnv(t)

	e.mustRun("track", "note", "2", "--set", "divides late")
	assert.Equal(t, "divides late\n", e.mustRun("track", "note", "2"))

	e.mustRun("track", "accept", "2")
	var tr types.Track
	e.runJSON(&tr, "track", "show", "2")
	assert.True(t, tr.AcceptedTag)
	assert.Equal(t, "divides late", tr.Notes)

	e.mustRun("track", "accept", "2", "--unset")
	e.runJSON(&tr, "track", "show", "2")
	assert.False(t, tr.AcceptedTag)

	assert.Contains(t, e.mustRun("track", "tree", "1"), "2 [11, 50]\n")
}

func TestCells(t *testing.T) {
	e := seededEnv(t)

	var cells []types.Cell
	e.runJSON(&cells, "cell", "list", "--track", "5")
	require.Len(t, cells, 5)
	assert.Equal(t, int64(41), cells[0].T)

	e.runJSON(&cells, "cell", "list", "--track", "5", "--frame", "43", "--direction", "after")
	require.Len(t, cells, 3)

	e.runJSON(&cells, "cell", "list", "--frame", "15")
	require.Len(t, cells, 2)

	// Bounding boxes at frame 15 span columns [id, id+4).
	e.runJSON(&cells, "cell", "view", "15", "--row-start", "0", "--row-stop", "100", "--col-start", "6", "--col-stop", "10")
	require.Len(t, cells, 1)
	assert.Equal(t, int64(3), cells[0].TrackID)

	var tag struct {
		Tag   string `json:"tag"`
		Value bool   `json:"value"`
	}
	e.runJSON(&tag, "cell", "tag", "5", "42", "m")
	assert.Equal(t, "mitosis", tag.Tag)
	assert.True(t, tag.Value)
	e.runJSON(&tag, "cell", "tag", "5", "42", "mitosis")
	assert.False(t, tag.Value)

	e.mustRun("cell", "remove", "5", "41")
	var tr types.Track
	e.runJSON(&tr, "track", "show", "5")
	assert.Equal(t, int64(42), tr.TBegin)

	assert.Equal(t, "Database is valid.\n", e.mustRun("validate"))
}

func TestSignalsAndConfigCheck(t *testing.T) {
	e := seededEnv(t)

	assert.Equal(t, "area\n", e.mustRun("signals"))

	out := e.mustRun("config", "check")
	assert.Contains(t, out, "Database connection successful.")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigCheck_Problems(t *testing.T) {
	e := seededEnv(t)
	cfg := `experiment_settings:
  experiment_name: test
database:
  path: gardener.db
cell_measurements:
  - function: area
    source: regionprops
  - function: perimeter
    source: regionprops
`
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0o644))

	out, _, code := e.run("config", "check")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, out, "Measurement 'perimeter' not found in database signals.")
}

func TestConfigCheck_NoConfig(t *testing.T) {
	e := newTestEnv(t)
	_, _, code := e.run("config", "check")
	assert.Equal(t, exitUserError, code)
}

func TestExportImport(t *testing.T) {
	src := seededEnv(t)
	exportDir := filepath.Join(src.dir, "export")

	var m sqlite.Manifest
	src.runJSON(&m, "export", exportDir)
	assert.Equal(t, 5, m.Tracks)
	assert.Equal(t, 86, m.Cells)

	dst := newTestEnv(t)
	out := dst.mustRun("import", exportDir)
	assert.Equal(t, "Imported 5 tracks and 86 cells from "+exportDir+"\n", out)
	assert.Equal(t, src.mustRun("track", "tree", "1"), dst.mustRun("track", "tree", "1"))

	_, _, code := dst.run("import", exportDir)
	assert.Equal(t, exitUserError, code)
}

func TestErrors(t *testing.T) {
	e := seededEnv(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing track", []string{"track", "show", "99"}, exitUserError},
		{"not an integer", []string{"track", "show", "abc"}, exitUserError},
		{"wrong arity", []string{"track", "cut", "1"}, exitUserError},
		{"unknown flag", []string{"track", "list", "--bogus"}, exitUserError},
		{"frame not after start", []string{"track", "merge", "2", "5", "11"}, exitUserError},
		{"bad direction", []string{"cell", "list", "--frame", "1", "--direction", "up"}, exitUserError},
		{"direction without frame", []string{"cell", "list", "--direction", "after"}, exitUserError},
		{"missing cell", []string{"cell", "remove", "5", "1"}, exitUserError},
		{"bad log level", []string{"--log-level", "loud", "version"}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := e.run(tt.args...)
			assert.Equal(t, tt.want, code, stderr)
			assert.Contains(t, stderr, "gardener:")
		})
	}
}

func TestMetricsTextfile(t *testing.T) {
	e := seededEnv(t)
	path := filepath.Join(e.dir, "gardener.prom")
	e.mustRun("--metrics-textfile", path, "track", "cut", "1", "5")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gardener_edits_total")
	assert.Contains(t, string(data), "gardener_tracks_created_total 1")
}

func TestLogLevelDebug(t *testing.T) {
	e := seededEnv(t)
	_, stderr, code := e.run("--log-level", "debug", "track", "cut", "1", "5")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, stderr, "edit committed")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(types.ErrNotFound))
	assert.Equal(t, exitUserError, exitCode(errFindings))
	assert.Equal(t, exitSysError, exitCode(types.ErrLogic))
	assert.Equal(t, exitSysError, exitCode(os.ErrPermission))
}
