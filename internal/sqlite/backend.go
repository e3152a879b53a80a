// Package sqlite implements the SQLite storage backend for the gardener
// track database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a single SQLite database file. The
// database file is the source of truth; JSONL files are an exchange format
// written by Export and read by Import.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	path     string
	db       *sql.DB
	logger   *slog.Logger
	readOnly bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for lifecycle and migration messages.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// ReadOnly attaches an existing database without migrating or writing it.
// Update then returns ErrReadOnly. Auditing tools use this mode so that
// they see the schema as it is on disk.
func ReadOnly() Option {
	return func(b *Backend) {
		b.readOnly = true
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens the database described by config, creating DataDir and the
// database file when missing, and applies pending schema migrations. An
// existing database is opened in place. With ReadOnly the file must exist
// and is neither created nor migrated.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	dbPath := filepath.Join(dataDir, config.DatabaseName())

	var (
		db  *sql.DB
		err error
	)
	if b.readOnly {
		db, err = openReadOnly(dbPath)
	} else {
		db, err = openReadWrite(dataDir, dbPath, b.logger)
	}
	if err != nil {
		return err
	}

	b.db = db
	b.path = dbPath
	b.config = config
	b.attached = true
	b.logger.Debug("store attached", "path", dbPath)
	return nil
}

func openReadWrite(dataDir, dbPath string, logger *slog.Logger) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// Single writer: every transaction runs on the one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", dbPath, err)
	}
	if err := migrateUp(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openReadOnly opens an existing file with SQLite's read-only mode. A
// missing file is reported, never created.
func openReadOnly(dbPath string) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database %s: %w", dbPath, err)
	}
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", dbPath, err)
	}
	return db, nil
}

// Detach closes the database. After Detach, Update and View return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.logger.Debug("store detached", "path", b.path)
	return nil
}

// Path returns the database file path of an attached backend.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Update runs fn inside a read-write transaction and commits when fn
// returns nil.
func (b *Backend) Update(ctx context.Context, fn func(types.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if b.readOnly {
		return types.ErrReadOnly
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// View runs fn inside a transaction that is always rolled back.
func (b *Backend) View(ctx context.Context, fn func(types.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(&sqlTx{tx: tx})
}

// CheckConnection opens the database at path read-only and pings it. It
// never creates or migrates the file.
func CheckConnection(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("database %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", path, err)
	}
	return nil
}
