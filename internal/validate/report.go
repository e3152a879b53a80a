package validate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/gardener/internal/metrics"
	"github.com/mesh-intelligence/gardener/internal/sqlite"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Check names, in the order Run executes them.
const (
	CheckTables           = "tables"
	CheckColumns          = "columns"
	CheckOrphanCells      = "orphan_cells"
	CheckOrphanTracks     = "orphan_tracks"
	CheckGraph            = "graph"
	CheckCycles           = "cycles"
	CheckRootsPresent     = "roots_present"
	CheckRootsConsistency = "roots_consistency"
	CheckFloatingRoots    = "floating_roots"
)

// Finding is one problem reported by a check.
type Finding struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// Report collects the findings of one validation pass.
type Report struct {
	// Ran lists the checks that executed, in order.
	Ran      []string  `json:"ran"`
	Findings []Finding `json:"findings"`
}

// OK reports whether the pass produced no findings.
func (r Report) OK() bool { return len(r.Findings) == 0 }

// Messages returns the finding messages in report order.
func (r Report) Messages() []string {
	out := make([]string, len(r.Findings))
	for i, f := range r.Findings {
		out[i] = f.Message
	}
	return out
}

// Counts returns the number of findings per check that ran.
func (r Report) Counts() map[string]int {
	out := make(map[string]int, len(r.Ran))
	for _, c := range r.Ran {
		out[c] = 0
	}
	for _, f := range r.Findings {
		out[f.Check]++
	}
	return out
}

// String renders one finding per line, or a pass line.
func (r Report) String() string {
	if r.OK() {
		return "Database is valid."
	}
	return strings.Join(r.Messages(), "\n")
}

func (r *Report) add(check string, msgs []string) {
	r.Ran = append(r.Ran, check)
	for _, m := range msgs {
		r.Findings = append(r.Findings, Finding{Check: check, Message: m})
	}
}

// Option configures Run.
type Option func(*runner)

type runner struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WithLogger sets the logger for per-check messages.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records the pass on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *runner) { r.metrics = m }
}

// Run validates store in one read transaction. Schema checks run first and
// a schema finding stops the pass. The orphan checks run next, and the
// lineage graph checks run only when everything before them passed.
func Run(ctx context.Context, store types.Store, opts ...Option) (Report, error) {
	rn := runner{logger: slog.Default()}
	for _, opt := range opts {
		opt(&rn)
	}

	var rep Report
	err := store.View(ctx, func(tx types.Tx) error {
		for _, c := range []struct {
			name string
			fn   func(types.Tx) ([]string, error)
		}{
			{CheckTables, TablesPresent},
			{CheckColumns, ColumnsPresent},
		} {
			msgs, err := c.fn(tx)
			if err != nil {
				return err
			}
			rep.add(c.name, msgs)
		}
		if !rep.OK() {
			return nil
		}

		for _, c := range []struct {
			name string
			fn   func(types.Tx) ([]string, error)
		}{
			{CheckOrphanCells, NoOrphanCells},
			{CheckOrphanTracks, NoOrphanTracks},
		} {
			msgs, err := c.fn(tx)
			if err != nil {
				return err
			}
			rep.add(c.name, msgs)
		}
		if !rep.OK() {
			return nil
		}

		tracks, err := tx.Tracks(types.TrackFilter{})
		if err != nil {
			return err
		}
		g, msgs := BuildTrackGraph(tracks)
		rep.add(CheckGraph, msgs)
		rep.add(CheckCycles, NoCycles(g))
		rep.add(CheckRootsPresent, RootsPresent(g))
		rep.add(CheckRootsConsistency, RootsConsistency(g))
		rep.add(CheckFloatingRoots, FloatingRoots(tracks))
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	for check, n := range rep.Counts() {
		if n > 0 {
			rn.logger.Warn("validation check failed", "check", check, "findings", n)
		}
	}
	rn.metrics.ObserveValidation(rep.Counts())
	return rep, nil
}

// ConnectionOK is the CheckConnection message for a usable database.
const ConnectionOK = "Database connection successful."

// CheckConnection reports whether the database file at path can be opened.
// The message is suitable for display either way.
func CheckConnection(ctx context.Context, path string) (string, error) {
	if err := sqlite.CheckConnection(ctx, path); err != nil {
		return "Database connection failed: " + err.Error(), err
	}
	return ConnectionOK, nil
}
