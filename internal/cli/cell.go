package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gardener/internal/edit"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

func (a *app) cellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cell",
		Short: "Query and edit cells",
	}
	cmd.AddCommand(
		a.cellListCmd(),
		a.cellViewCmd(),
		a.cellRemoveCmd(),
		a.cellTagCmd(),
	)
	return cmd
}

func writeCells(w io.Writer, cells []types.Cell) {
	fmt.Fprintf(w, "%-8s %-6s %-8s %-6s %-6s %-22s %s\n", "TRACK", "T", "ID", "ROW", "COL", "BBOX", "TAGS")
	for _, c := range cells {
		var tags []string
		for _, k := range slices.Sorted(maps.Keys(c.Tags)) {
			tags = append(tags, fmt.Sprintf("%s=%s", k, c.Tags[k]))
		}
		fmt.Fprintf(w, "%-8d %-6d %-8d %-6d %-6d %-22s %v\n",
			c.TrackID, c.T, c.ID, c.Row, c.Col, fmt.Sprint(c.BBox), tags)
	}
}

func (a *app) queryCells(cmd *cobra.Command, f types.CellFilter) error {
	var cells []types.Cell
	err := a.view(cmd.Context(), func(tx types.Tx) error {
		var err error
		cells, err = tx.Cells(f)
		return err
	})
	if err != nil {
		return err
	}
	if cells == nil {
		cells = []types.Cell{}
	}
	return a.emit(cmd.OutOrStdout(), cells, func(w io.Writer) {
		writeCells(w, cells)
	})
}

func (a *app) cellListCmd() *cobra.Command {
	var (
		track, frame int64
		direction    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cells by track and frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			f := types.CellFilter{
				TrackID: optionalID(&track, fs.Changed("track")),
				Frame:   optionalID(&frame, fs.Changed("frame")),
			}
			if direction != "" {
				if f.Frame == nil {
					return fmt.Errorf("%w: --direction requires --frame", errUsage)
				}
				dir, err := types.ParseDirection(direction)
				if err != nil {
					return err
				}
				f.Direction = dir
			}
			return a.queryCells(cmd, f)
		},
	}
	fs := cmd.Flags()
	fs.Int64Var(&track, "track", 0, "only cells of this track")
	fs.Int64Var(&frame, "frame", 0, "only cells at this frame")
	fs.StringVar(&direction, "direction", "", "select relative to --frame: before, after, or all")
	return cmd
}

func (a *app) cellViewCmd() *cobra.Command {
	var w types.Window
	cmd := &cobra.Command{
		Use:   "view <frame>",
		Short: "List the cells at a frame whose bounding box overlaps a field of view",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := parseID("frame", args[0])
			if err != nil {
				return err
			}
			if w.RowStop <= w.RowStart || w.ColStop <= w.ColStart {
				return fmt.Errorf("empty field of view %+v: %w", w, types.ErrInvalidArgument)
			}
			return a.queryCells(cmd, types.CellFilter{Frame: &frame, Window: &w})
		},
	}
	fs := cmd.Flags()
	fs.Int64Var(&w.RowStart, "row-start", 0, "first row of the field of view")
	fs.Int64Var(&w.RowStop, "row-stop", 0, "row after the last row of the field of view")
	fs.Int64Var(&w.ColStart, "col-start", 0, "first column of the field of view")
	fs.Int64Var(&w.ColStop, "col-stop", 0, "column after the last column of the field of view")
	for _, name := range []string{"row-stop", "col-stop"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) cellRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <track> <frame>",
		Short: "Remove one cell and resize its track to the remaining cells",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "track", "frame")
			if err != nil {
				return err
			}
			err = a.withEditor(func(e *edit.Editor) error {
				return e.RemoveCell(cmd.Context(), ids[0], ids[1])
			})
			if err != nil {
				return err
			}
			out := struct {
				Track int64 `json:"track"`
				T     int64 `json:"t"`
			}{ids[0], ids[1]}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "Removed cell of track %d at frame %d.\n", ids[0], ids[1])
			})
		},
	}
}

func (a *app) cellTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <track> <frame> <tag>",
		Short: "Toggle a boolean tag on a cell",
		Long: "Toggle a boolean tag on a cell. The tag may be a name or a shortcut\n" +
			"declared under cell_tags in the experiment config.",
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "track", "frame")
			if err != nil {
				return err
			}
			tag := a.resolveTag(args[2])
			var on bool
			err = a.withEditor(func(e *edit.Editor) error {
				on, err = e.ToggleCellTag(cmd.Context(), ids[0], ids[1], tag)
				return err
			})
			if err != nil {
				return err
			}
			out := struct {
				Track int64  `json:"track"`
				T     int64  `json:"t"`
				Tag   string `json:"tag"`
				Value bool   `json:"value"`
			}{ids[0], ids[1], tag, on}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "Cell (%d, %d) %s: %t\n", ids[0], ids[1], tag, on)
			})
		},
	}
}

// resolveTag maps a cell_tags shortcut to its tag name.
func (a *app) resolveTag(s string) string {
	if a.cfg == nil {
		return s
	}
	for name, key := range a.cfg.CellTags {
		if key == s {
			return name
		}
	}
	return s
}
