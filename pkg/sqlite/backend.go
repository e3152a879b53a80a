// Package sqlite provides the public API for the SQLite track database.
// This package exposes factory functions for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"path/filepath"

	"github.com/mesh-intelligence/gardener/internal/sqlite"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Backend is a track database that can be attached and detached.
type Backend interface {
	types.Store
	Attach(config types.Config) error
	Detach() error
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "experiment",
//	})
//	defer backend.Detach()
func NewBackend() Backend {
	return sqlite.NewBackend()
}

// Open attaches the database file at path, creating it and applying schema
// migrations when needed. The caller must Detach the result.
func Open(path string) (Backend, error) {
	b := sqlite.NewBackend()
	err := b.Attach(types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      filepath.Dir(path),
		DatabaseFile: filepath.Base(path),
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
