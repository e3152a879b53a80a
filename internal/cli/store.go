package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gardener/internal/edit"
	"github.com/mesh-intelligence/gardener/internal/paths"
	"github.com/mesh-intelligence/gardener/internal/sqlite"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// errUsage marks malformed command lines.
var errUsage = errors.New("usage")

// errNoDatabase is returned when a command needs an existing database.
var errNoDatabase = errors.New("database does not exist (run gardener init)")

// databasePath resolves the database file from the --db flag, the loaded
// config, and the environment.
func (a *app) databasePath() (string, error) {
	var value, dir string
	if a.cfg != nil {
		value, dir = a.cfg.Database.Path, a.cfg.Dir()
	}
	return paths.ResolveDatabase(a.flags.database, value, dir)
}

// openStore attaches the resolved database. When mustExist is set a missing
// file is a user error instead of being created.
func (a *app) openStore(mustExist bool, opts ...sqlite.Option) (*sqlite.Backend, error) {
	path, err := a.databasePath()
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	if mustExist {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %w", path, errNoDatabase, types.ErrNotFound)
		}
	}
	b := sqlite.NewBackend(append([]sqlite.Option{sqlite.WithLogger(a.logger)}, opts...)...)
	cfg := types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      filepath.Dir(path),
		DatabaseFile: filepath.Base(path),
	}
	if err := b.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s: %w", path, err)
	}
	return b, nil
}

// withStore attaches the database for the duration of fn.
func (a *app) withStore(fn func(b *sqlite.Backend) error, opts ...sqlite.Option) (err error) {
	b, err := a.openStore(true, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if derr := b.Detach(); derr != nil && err == nil {
			err = derr
		}
	}()
	return fn(b)
}

// withEditor attaches the database and hands fn an Editor bound to it.
func (a *app) withEditor(fn func(e *edit.Editor) error) error {
	return a.withStore(func(b *sqlite.Backend) error {
		return fn(edit.NewEditor(b, edit.WithLogger(a.logger), edit.WithMetrics(a.metrics)))
	})
}

// view runs fn in a read-only transaction on the database, attached without
// migrating it.
func (a *app) view(ctx context.Context, fn func(types.Tx) error) error {
	return a.withStore(func(b *sqlite.Backend) error {
		return b.View(ctx, fn)
	}, sqlite.ReadOnly())
}

// emit writes v as indented JSON in --json mode and calls text otherwise.
func (a *app) emit(w io.Writer, v any, text func(io.Writer)) error {
	if a.flags.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func parseID(name, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer: %w", name, s, types.ErrInvalidArgument)
	}
	return v, nil
}

// parseIDs parses positional arguments in order under the given names.
func parseIDs(args []string, names ...string) ([]int64, error) {
	out := make([]int64, len(names))
	for i, n := range names {
		v, err := parseID(n, args[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// exactArgs wraps cobra.ExactArgs so arity mistakes are user errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}

func optionalID(v *int64, set bool) *int64 {
	if !set {
		return nil
	}
	return v
}
