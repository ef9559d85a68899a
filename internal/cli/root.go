// Package cli implements inventoryctl, the operator command line for the
// record store.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foso7/wings-cafe-inventory/internal/app"
	"github.com/foso7/wings-cafe-inventory/internal/config"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// NewRootCmd builds the inventoryctl command tree. Store flags override the
// environment and .env.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()
	root := &cobra.Command{
		Use:   "inventoryctl",
		Short: "Wings Cafe inventory operator tool",
		Long: `inventoryctl inspects and maintains the inventory record store that the
API server uses: validate data files, print reports, seed the starter menu
and hash the operator password.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFile()
		},
	}

	flags := root.PersistentFlags()
	flags.String("data-dir", "", "directory of the file record store (DATA_DIR)")
	flags.String("driver", "", "record store driver: file, postgres or memory (STORE_DRIVER)")
	flags.String("database-url", "", "Postgres DSN for the postgres driver (DATABASE_URL)")
	v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	v.BindPFlag("store_driver", flags.Lookup("driver"))
	v.BindPFlag("database_url", flags.Lookup("database-url"))

	root.AddCommand(
		newCheckCmd(v),
		newReportCmd(v),
		newSeedCmd(v),
		newHashPasswordCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore resolves the config and opens its backend.
func openStore(ctx context.Context, v *viper.Viper) (*config.Config, store.Backend, func() error, error) {
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	backend, closeFn, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, backend, closeFn, nil
}
