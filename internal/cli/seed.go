package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foso7/wings-cafe-inventory/internal/app"
	"github.com/foso7/wings-cafe-inventory/internal/modules/product"
)

// StarterMenu is the cafe's opening menu.
var StarterMenu = []product.CreateProductRequest{
	{Name: "Chicken Wings", Category: "meats", Price: decimal.NewFromInt(50), Image: "/chicken.jpg"},
	{Name: "Beef Steak", Category: "meats", Price: decimal.NewFromInt(70), Image: "/beef.jpg"},
	{Name: "Pork Ribs", Category: "meats", Price: decimal.NewFromInt(100), Image: "/ribs.jpeg"},
	{Name: "Lamb Chops", Category: "meats", Price: decimal.NewFromInt(45), Image: "/lamb.jpeg"},
	{Name: "Lettuce", Category: "vegetables", Price: decimal.NewFromInt(15), Image: "/lettuce.jpg"},
	{Name: "Tomatoes", Category: "vegetables", Price: decimal.NewFromInt(3), Image: "/Tomato.jpg"},
	{Name: "Carrots", Category: "vegetables", Price: decimal.NewFromInt(10), Image: "/carrots.jpg"},
	{Name: "Cucumber", Category: "vegetables", Price: decimal.NewFromInt(14), Image: "/cucumbers.webp"},
	{Name: "Coca Cola", Category: "drinks", Price: decimal.NewFromInt(14), Image: "/coke.jpeg"},
	{Name: "Orange Juice", Category: "drinks", Price: decimal.NewFromInt(19), Image: "/lemon.jpg"},
	{Name: "Water Bottle", Category: "drinks", Price: decimal.NewFromInt(11), Image: "/water.webp"},
	{Name: "Sprite", Category: "drinks", Price: decimal.NewFromInt(17), Image: "/sprite.webp"},
}

func newSeedCmd(v *viper.Viper) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the starter menu when the product collection is empty",
		Long: `Create the cafe's starter menu (meats, vegetables and drinks). Nothing is
written when products already exist. Do not run against the data directory of
a live file-backed server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 0 {
				return fmt.Errorf("--quantity cannot be negative")
			}
			cfg, backend, closeFn, err := openStore(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer closeFn()
			return Seed(cmd.Context(), app.NewWith(cfg, backend, nil, nil).Products, quantity, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&quantity, "quantity", 20, "opening stock for every seeded product")
	return cmd
}

// Seed creates StarterMenu with the given opening stock unless products exist.
func Seed(ctx context.Context, products product.Service, quantity int, out io.Writer) error {
	existing, err := products.ListProducts(ctx, product.ListFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Fprintf(out, "store already has %d products, nothing seeded\n", len(existing))
		return nil
	}
	for _, req := range StarterMenu {
		req.Quantity = quantity
		p, err := products.CreateProduct(ctx, req)
		if err != nil {
			return fmt.Errorf("seed %s: %w", req.Name, err)
		}
		fmt.Fprintf(out, "created %-14s %-10s %s\n", p.Name, p.Category, p.Price)
	}
	fmt.Fprintf(out, "seeded %d products\n", len(StarterMenu))
	return nil
}
