package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gardener/internal/config"
	"github.com/mesh-intelligence/gardener/internal/lineage"
	"github.com/mesh-intelligence/gardener/internal/validate"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the experiment configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the config, the database connection, and requested measurements",
		Args:  cobra.NoArgs,
		RunE:  a.runConfigCheck,
	})
	return cmd
}

// configCheck is the outcome of "config check".
type configCheck struct {
	Config     string   `json:"config"`
	Database   string   `json:"database"`
	Connection string   `json:"connection"`
	Problems   []string `json:"problems"`
}

func (a *app) runConfigCheck(cmd *cobra.Command, args []string) error {
	if a.cfg == nil {
		return fmt.Errorf("config file %s: %w", a.configPath, types.ErrNotFound)
	}
	res := configCheck{Config: a.cfg.File(), Problems: []string{}}

	if err := a.cfg.Validate(); err != nil {
		if !errors.Is(err, config.ErrInvalidConfig) {
			return err
		}
		for _, e := range unjoin(err) {
			res.Problems = append(res.Problems, e.Error())
		}
	}

	path, err := a.databasePath()
	if err != nil {
		return err
	}
	res.Database = path
	// A failed connection is reported, not returned.
	msg, _ := validate.CheckConnection(cmd.Context(), path)
	res.Connection = msg

	if len(res.Problems) == 0 && msg == validate.ConnectionOK {
		stored, err := a.storedSignals(cmd)
		if err != nil {
			return err
		}
		// An empty database has no signals to compare against yet.
		if len(stored) > 0 {
			for _, name := range a.cfg.MeasurementNames() {
				if !slices.Contains(stored, name) {
					res.Problems = append(res.Problems,
						fmt.Sprintf("Measurement '%s' not found in database signals.", name))
				}
			}
		}
	}

	err = a.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
		fmt.Fprintf(w, "Config: %s\n", res.Config)
		fmt.Fprintf(w, "Database: %s\n", res.Database)
		fmt.Fprintln(w, res.Connection)
		for _, p := range res.Problems {
			fmt.Fprintln(w, p)
		}
		if len(res.Problems) == 0 && res.Connection == validate.ConnectionOK {
			fmt.Fprintln(w, "Configuration is valid.")
		}
	})
	if err != nil {
		return err
	}
	if len(res.Problems) > 0 || res.Connection != validate.ConnectionOK {
		return errFindings
	}
	return nil
}

func (a *app) storedSignals(cmd *cobra.Command) ([]string, error) {
	var names []string
	err := a.view(cmd.Context(), func(tx types.Tx) error {
		var err error
		names, err = lineage.Signals(tx)
		return err
	})
	return names, err
}

func (a *app) signalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signals",
		Short: "List the signal names stored on cells",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.storedSignals(cmd)
			if err != nil {
				return err
			}
			if names == nil {
				names = []string{}
			}
			return a.emit(cmd.OutOrStdout(), names, func(w io.Writer) {
				for _, n := range names {
					fmt.Fprintln(w, n)
				}
			})
		},
	}
}

// unjoin flattens an errors.Join result.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
