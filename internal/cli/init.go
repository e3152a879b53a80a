package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gardener/internal/config"
	"github.com/mesh-intelligence/gardener/internal/paths"
)

func (a *app) initCmd() *cobra.Command {
	var experiment string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the experiment config and an empty track database",
		Long: "Write a default experiment config when none exists, then create the\n" +
			"track database and apply schema migrations. Existing files are kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if experiment == "" {
				experiment = filepath.Base(filepath.Dir(a.configPath))
			}
			out := cmd.OutOrStdout()

			// A fresh config points at a database next to it.
			if a.cfg == nil {
				cfg := config.Default(experiment, paths.DefaultDatabaseFile)
				if a.flags.database != "" {
					abs, err := filepath.Abs(a.flags.database)
					if err != nil {
						return err
					}
					cfg.Database.Path = abs
				}
				written, err := cfg.WriteIfMissing(a.configPath)
				if err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				if written {
					fmt.Fprintf(out, "Wrote config %s\n", a.configPath)
				}
				loaded, err := config.Load(a.configPath)
				if err != nil {
					return err
				}
				a.cfg = loaded
			}

			b, err := a.openStore(false)
			if err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			path := b.Path()
			if err := b.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}
			fmt.Fprintf(out, "Database ready at %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&experiment, "experiment", "", "experiment name (default: config directory name)")
	return cmd
}
