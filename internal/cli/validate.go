package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gardener/internal/sqlite"
	"github.com/mesh-intelligence/gardener/internal/validate"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the track database for schema and lineage problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rep validate.Report
			err := a.withStore(func(b *sqlite.Backend) error {
				var err error
				rep, err = validate.Run(cmd.Context(), b,
					validate.WithLogger(a.logger), validate.WithMetrics(a.metrics))
				return err
			}, sqlite.ReadOnly())
			if err != nil {
				return err
			}

			out := struct {
				Valid    bool               `json:"valid"`
				Ran      []string           `json:"ran"`
				Findings []validate.Finding `json:"findings"`
			}{rep.OK(), rep.Ran, rep.Findings}
			if out.Findings == nil {
				out.Findings = []validate.Finding{}
			}
			if err := a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintln(w, rep.String())
			}); err != nil {
				return err
			}
			if !rep.OK() {
				return errFindings
			}
			return nil
		},
	}
}
