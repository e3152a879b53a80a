package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gardener/internal/sqlite"
)

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every track and cell to JSONL files in dir",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m sqlite.Manifest
			err := a.withStore(func(b *sqlite.Backend) error {
				var err error
				m, err = b.Export(cmd.Context(), args[0])
				return err
			}, sqlite.ReadOnly())
			if err != nil {
				return err
			}
			a.logger.Info("exported", "dir", args[0], "export_id", m.ExportID, "tracks", m.Tracks, "cells", m.Cells)
			return a.emit(cmd.OutOrStdout(), m, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %d tracks and %d cells to %s\n", m.Tracks, m.Cells, args[0])
			})
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load tracks and cells from JSONL files in dir into an empty database",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			b, err := a.openStore(false)
			if err != nil {
				return err
			}
			defer func() {
				if derr := b.Detach(); derr != nil && err == nil {
					err = derr
				}
			}()
			tracks, cells, err := b.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.logger.Info("imported", "dir", args[0], "tracks", tracks, "cells", cells)
			out := struct {
				Tracks int `json:"tracks"`
				Cells  int `json:"cells"`
			}{tracks, cells}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %d tracks and %d cells from %s\n", tracks, cells, args[0])
			})
		},
	}
}
