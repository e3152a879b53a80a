package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gardener/internal/edit"
	"github.com/mesh-intelligence/gardener/internal/lineage"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

func (a *app) trackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Query and edit tracks",
	}
	cmd.AddCommand(
		a.trackShowCmd(),
		a.trackListCmd(),
		a.trackDescendantsCmd(),
		a.trackTreeCmd(),
		a.trackCutCmd(),
		a.trackIntegrateCmd(types.OperationMerge),
		a.trackIntegrateCmd(types.OperationConnect),
		a.trackDeleteCmd(),
		a.trackNoteCmd(),
		a.trackAcceptCmd(),
	)
	return cmd
}

func writeTracks(w io.Writer, tracks []types.Track) {
	fmt.Fprintf(w, "%-8s %-8s %-8s %-8s %-8s %s\n", "TRACK", "PARENT", "ROOT", "BEGIN", "END", "ACCEPTED")
	for _, t := range tracks {
		parent := "-"
		if !t.IsFloating() {
			parent = fmt.Sprint(t.ParentTrackID)
		}
		fmt.Fprintf(w, "%-8d %-8s %-8d %-8d %-8d %t\n", t.TrackID, parent, t.Root, t.TBegin, t.TEnd, t.AcceptedTag)
	}
}

func (a *app) trackShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <track>",
		Short: "Show one track",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("track", args[0])
			if err != nil {
				return err
			}
			var t types.Track
			err = a.view(cmd.Context(), func(tx types.Tx) error {
				var err error
				t, err = tx.Track(id)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), t, func(w io.Writer) {
				writeTracks(w, []types.Track{t})
				if t.Notes != "" {
					fmt.Fprintf(w, "\nNotes:\n%s\n", t.Notes)
				}
			})
		},
	}
}

func (a *app) trackListCmd() *cobra.Command {
	var root, parent, from, to int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracks, optionally filtered by lineage or frame range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			f := types.TrackFilter{
				Root:     optionalID(&root, fs.Changed("root")),
				Parent:   optionalID(&parent, fs.Changed("parent")),
				TimeFrom: optionalID(&from, fs.Changed("from")),
				TimeTo:   optionalID(&to, fs.Changed("to")),
			}
			var tracks []types.Track
			err := a.view(cmd.Context(), func(tx types.Tx) error {
				var err error
				tracks, err = tx.Tracks(f)
				return err
			})
			if err != nil {
				return err
			}
			if tracks == nil {
				tracks = []types.Track{}
			}
			return a.emit(cmd.OutOrStdout(), tracks, func(w io.Writer) {
				writeTracks(w, tracks)
			})
		},
	}
	fs := cmd.Flags()
	fs.Int64Var(&root, "root", 0, "only tracks with this root")
	fs.Int64Var(&parent, "parent", 0, "only children of this track (-1 for floating tracks)")
	fs.Int64Var(&from, "from", 0, "only tracks alive at or after this frame")
	fs.Int64Var(&to, "to", 0, "only tracks alive at or before this frame")
	return cmd
}

func (a *app) trackDescendantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "descendants <track>",
		Short: "List a track and every track descended from it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("track", args[0])
			if err != nil {
				return err
			}
			var tracks []types.Track
			err = a.view(cmd.Context(), func(tx types.Tx) error {
				var err error
				tracks, err = lineage.Descendants(tx, id)
				return err
			})
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), tracks, func(w io.Writer) {
				writeTracks(w, tracks)
			})
		},
	}
}

// treeNode is the JSON form of a lineage tree.
type treeNode struct {
	Track    int64       `json:"track"`
	TBegin   int64       `json:"t_begin"`
	TEnd     int64       `json:"t_end"`
	Accepted bool        `json:"accepted"`
	Children []*treeNode `json:"children,omitempty"`
}

func (a *app) trackTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <root>",
		Short: "Print the lineage tree of a root",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := parseID("root", args[0])
			if err != nil {
				return err
			}
			var g *lineage.Graph
			err = a.view(cmd.Context(), func(tx types.Tx) error {
				var err error
				g, err = lineage.Tree(tx, root)
				return err
			})
			if err != nil {
				return err
			}

			var lines []string
			var forest []*treeNode
			var stack []*treeNode
			g.Walk(func(n lineage.Node, depth int) {
				lines = append(lines, fmt.Sprintf("%s%d [%d, %d]%s",
					strings.Repeat("  ", depth), n.Track, n.TBegin, n.TEnd, acceptedMark(n.Accepted)))
				tn := &treeNode{Track: n.Track, TBegin: n.TBegin, TEnd: n.TEnd, Accepted: n.Accepted}
				stack = stack[:depth]
				if depth == 0 {
					forest = append(forest, tn)
				} else {
					p := stack[depth-1]
					p.Children = append(p.Children, tn)
				}
				stack = append(stack, tn)
			})
			if forest == nil {
				forest = []*treeNode{}
			}
			return a.emit(cmd.OutOrStdout(), forest, func(w io.Writer) {
				if len(lines) == 0 {
					fmt.Fprintf(w, "No tracks with root %d\n", root)
				}
				for _, l := range lines {
					fmt.Fprintln(w, l)
				}
			})
		},
	}
}

func acceptedMark(accepted bool) string {
	if accepted {
		return " *"
	}
	return ""
}

func (a *app) trackCutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cut <track> <frame>",
		Short: "Cut a track so that a new track begins at frame",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "track", "frame")
			if err != nil {
				return err
			}
			var res edit.CutResult
			err = a.withEditor(func(e *edit.Editor) error {
				res, err = e.CutTrack(cmd.Context(), ids[0], ids[1])
				return err
			})
			if err != nil {
				return err
			}
			out := struct {
				Mitosis  bool   `json:"mitosis"`
				NewTrack *int64 `json:"new_track"`
			}{res.Mitosis, res.NewTrack}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				switch {
				case res.Mitosis:
					fmt.Fprintf(w, "Children of track %d detached at frame %d.\n", ids[0], ids[1])
				case res.NewTrack != nil:
					fmt.Fprintf(w, "Track %d cut at frame %d; new track %d.\n", ids[0], ids[1], *res.NewTrack)
				default:
					fmt.Fprintln(w, "Nothing to cut.")
				}
			})
		},
	}
}

func (a *app) trackIntegrateCmd(op types.Operation) *cobra.Command {
	short := "Merge track t2 into t1 from frame on"
	if op == types.OperationConnect {
		short = "Connect track t2 to t1 as a child starting at frame"
	}
	return &cobra.Command{
		Use:   string(op) + " <t1> <t2> <frame>",
		Short: short,
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "t1", "t2", "frame")
			if err != nil {
				return err
			}
			var res edit.IntegrateResult
			err = a.withEditor(func(e *edit.Editor) error {
				res, err = e.IntegrateTracks(cmd.Context(), op, ids[0], ids[1], ids[2])
				return err
			})
			if err != nil {
				return err
			}
			out := struct {
				T1After  *int64 `json:"t1_after"`
				T2Before *int64 `json:"t2_before"`
			}{res.T1After, res.T2Before}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				verb := "merged into"
				if op == types.OperationConnect {
					verb = "connected to"
				}
				fmt.Fprintf(w, "Track %d %s %d at frame %d.\n", ids[1], verb, ids[0], ids[2])
				if res.T1After != nil {
					fmt.Fprintf(w, "Track %d continues as %d.\n", ids[0], *res.T1After)
				}
				if res.T2Before != nil {
					fmt.Fprintf(w, "Head of track %d is now %d.\n", ids[1], *res.T2Before)
				}
			})
		},
	}
}

func (a *app) trackDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <track>",
		Short: "Delete a track and its cells; its children become floating",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("track", args[0])
			if err != nil {
				return err
			}
			var res edit.DeleteResult
			err = a.withEditor(func(e *edit.Editor) error {
				res, err = e.DeleteTrack(cmd.Context(), id)
				return err
			})
			if err != nil {
				return err
			}
			out := struct {
				Track   int64  `json:"track"`
				Deleted bool   `json:"deleted"`
				Status  string `json:"status"`
			}{id, res.Status == edit.StatusDeleted, res.String()}
			if err := a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintln(w, res.String())
			}); err != nil {
				return err
			}
			if res.Status == edit.StatusNotFound {
				return fmt.Errorf("track %d: %w", id, types.ErrNotFound)
			}
			return nil
		},
	}
}

func (a *app) trackNoteCmd() *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "note <track>",
		Short: "Print or replace a track's notes",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("track", args[0])
			if err != nil {
				return err
			}
			write := cmd.Flags().Changed("set")
			var note string
			err = a.withEditor(func(e *edit.Editor) error {
				if write {
					note = set
					return e.SetNote(cmd.Context(), id, set)
				}
				note, err = e.Note(cmd.Context(), id)
				return err
			})
			if err != nil {
				return err
			}
			out := struct {
				Track int64  `json:"track"`
				Notes string `json:"notes"`
			}{id, note}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				if !write {
					fmt.Fprintln(w, note)
				}
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "replace the notes with this text")
	return cmd
}

func (a *app) trackAcceptCmd() *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "accept <track>",
		Short: "Mark a track as accepted",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("track", args[0])
			if err != nil {
				return err
			}
			err = a.withEditor(func(e *edit.Editor) error {
				return e.SetAccepted(cmd.Context(), id, !unset)
			})
			if err != nil {
				return err
			}
			out := struct {
				Track    int64 `json:"track"`
				Accepted bool  `json:"accepted"`
			}{id, !unset}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "Track %d accepted: %t\n", id, !unset)
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "clear the accepted mark instead")
	return cmd
}
