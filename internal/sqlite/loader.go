// This file implements JSONL export and import of the whole store.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Exchange file names written by Export and read by Import.
const (
	TracksFile   = "tracks.jsonl"
	CellsFile    = "cells.jsonl"
	ManifestFile = "manifest.json"
)

// Export writes every track and cell to dir as JSONL, read from one
// consistent transaction. Each file is replaced atomically.
func (b *Backend) Export(ctx context.Context, dir string) (Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Manifest{}, fmt.Errorf("creating export dir: %w", err)
	}

	var (
		tracks []trackJSON
		cells  []cellJSON
	)
	err := b.View(ctx, func(tx types.Tx) error {
		ts, err := tx.Tracks(types.TrackFilter{})
		if err != nil {
			return err
		}
		for _, t := range ts {
			tracks = append(tracks, trackToJSON(t))
		}
		cs, err := tx.Cells(types.CellFilter{})
		if err != nil {
			return err
		}
		for _, c := range cs {
			rec, err := cellToJSON(c)
			if err != nil {
				return fmt.Errorf("cell (%d, %d): %w", c.TrackID, c.T, err)
			}
			cells = append(cells, rec)
		}
		return nil
	})
	if err != nil {
		return Manifest{}, err
	}

	version, _, err := b.SchemaVersion()
	if err != nil {
		return Manifest{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Manifest{}, fmt.Errorf("generating export id: %w", err)
	}
	manifest := Manifest{
		ExportID:      id.String(),
		SchemaVersion: version,
		Tracks:        len(tracks),
		Cells:         len(cells),
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	if err := writeJSONL(filepath.Join(dir, TracksFile), tracks); err != nil {
		return Manifest{}, fmt.Errorf("writing %s: %w", TracksFile, err)
	}
	if err := writeJSONL(filepath.Join(dir, CellsFile), cells); err != nil {
		return Manifest{}, fmt.Errorf("writing %s: %w", CellsFile, err)
	}
	err = writeAtomic(filepath.Join(dir, ManifestFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	})
	if err != nil {
		return Manifest{}, fmt.Errorf("writing %s: %w", ManifestFile, err)
	}

	b.logger.Info("store exported", "dir", dir, "tracks", manifest.Tracks, "cells", manifest.Cells, "export_id", manifest.ExportID)
	return manifest, nil
}

// Import loads tracks.jsonl and cells.jsonl from dir into an empty store in
// one transaction: all records load or none do. A store that already holds
// tracks or cells returns ErrStoreNotEmpty.
func (b *Backend) Import(ctx context.Context, dir string) (tracks, cells int, err error) {
	trackRecs, err := readJSONL[trackJSON](filepath.Join(dir, TracksFile))
	if err != nil {
		return 0, 0, err
	}
	cellRecs, err := readJSONL[cellJSON](filepath.Join(dir, CellsFile))
	if err != nil {
		return 0, 0, err
	}

	err = b.Update(ctx, func(tx types.Tx) error {
		existing, err := tx.Tracks(types.TrackFilter{})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return types.ErrStoreNotEmpty
		}
		if _, err := tx.AnyCell(); err == nil {
			return types.ErrStoreNotEmpty
		} else if !errors.Is(err, types.ErrNotFound) {
			return err
		}

		for _, rec := range trackRecs {
			if err := tx.InsertTrack(rec.track()); err != nil {
				return err
			}
		}
		batch := make([]types.Cell, 0, len(cellRecs))
		for _, rec := range cellRecs {
			c, err := rec.cell()
			if err != nil {
				return fmt.Errorf("%s cell (%d, %d): %w", CellsFile, rec.TrackID, rec.T, err)
			}
			batch = append(batch, c)
		}
		return tx.InsertCells(batch)
	})
	if err != nil {
		return 0, 0, err
	}

	b.logger.Info("store imported", "dir", dir, "tracks", len(trackRecs), "cells", len(cellRecs))
	return len(trackRecs), len(cellRecs), nil
}
