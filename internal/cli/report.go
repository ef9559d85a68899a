package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foso7/wings-cafe-inventory/internal/app"
)

func newReportCmd(v *viper.Viper) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a sales or inventory report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, closeFn, err := openStore(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer closeFn()
			reports := app.NewWith(cfg, backend, nil, nil).Report

			var out interface{}
			switch kind {
			case "overview":
				out, err = reports.Overview(cmd.Context())
			case "products":
				out, err = reports.ByProduct(cmd.Context())
			case "inventory":
				out, err = reports.Inventory(cmd.Context())
			default:
				return fmt.Errorf("unknown report %q (want overview, products or inventory)", kind)
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "overview", "report to print: overview, products or inventory")
	return cmd
}
