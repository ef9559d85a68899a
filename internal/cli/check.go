package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foso7/wings-cafe-inventory/internal/modules/customer"
	"github.com/foso7/wings-cafe-inventory/internal/modules/product"
	"github.com/foso7/wings-cafe-inventory/internal/modules/sale"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

func newCheckCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate every collection in the record store",
		Long: `Load products, customers and sales and report parse errors, negative stock,
duplicate ids and sales that reference missing products or customers.
Problems are reported, never fixed. Exits non-zero when a collection cannot
be loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, backend, closeFn, err := openStore(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer closeFn()

			res := Check(cmd.Context(), backend)
			res.Print(cmd.OutOrStdout())
			if len(res.LoadErrors) > 0 {
				return fmt.Errorf("%d collection(s) could not be loaded", len(res.LoadErrors))
			}
			return nil
		},
	}
}

// CheckResult is what Check found in a record store.
type CheckResult struct {
	Counts     map[string]int
	LoadErrors map[string]error
	Problems   []string
}

// Check loads every collection from backend and inspects the records.
func Check(ctx context.Context, backend store.Backend) CheckResult {
	res := CheckResult{Counts: map[string]int{}, LoadErrors: map[string]error{}}

	products, err := store.NewCollection[product.Product](backend, product.CollectionName).Load(ctx)
	if err != nil {
		res.LoadErrors[product.CollectionName] = err
	}
	customers, err := store.NewCollection[customer.Customer](backend, customer.CollectionName).Load(ctx)
	if err != nil {
		res.LoadErrors[customer.CollectionName] = err
	}
	sales, err := store.NewCollection[sale.Sale](backend, sale.CollectionName).Load(ctx)
	if err != nil {
		res.LoadErrors[sale.CollectionName] = err
	}
	res.Counts[product.CollectionName] = len(products)
	res.Counts[customer.CollectionName] = len(customers)
	res.Counts[sale.CollectionName] = len(sales)

	productIDs := make(map[store.ID]bool, len(products))
	for _, p := range products {
		if productIDs[p.ID] {
			res.problem("product id %s appears more than once", p.ID)
		}
		productIDs[p.ID] = true
		if p.Quantity < 0 {
			res.problem("product %s (%s) has negative quantity %d", p.ID, p.Name, p.Quantity)
		}
		if p.Price.IsNegative() {
			res.problem("product %s (%s) has negative price %s", p.ID, p.Name, p.Price)
		}
	}

	customerIDs := make(map[store.ID]bool, len(customers))
	for _, c := range customers {
		if customerIDs[c.ID] {
			res.problem("customer id %s appears more than once", c.ID)
		}
		customerIDs[c.ID] = true
	}

	saleIDs := make(map[store.ID]bool, len(sales))
	for _, sl := range sales {
		if saleIDs[sl.ID] {
			res.problem("sale id %s appears more than once", sl.ID)
		}
		saleIDs[sl.ID] = true
		// Only meaningful when products loaded.
		if _, failed := res.LoadErrors[product.CollectionName]; !failed && !productIDs[sl.ProductID] {
			res.problem("sale %s references missing product %s (%s)", sl.ID, sl.ProductID, sl.ProductName)
		}
		if _, failed := res.LoadErrors[customer.CollectionName]; !failed && sl.CustomerID != "" && !customerIDs[sl.CustomerID] {
			res.problem("sale %s references missing customer %s", sl.ID, sl.CustomerID)
		}
		if sl.Quantity <= 0 {
			res.problem("sale %s has non-positive quantity %d", sl.ID, sl.Quantity)
		}
	}
	return res
}

func (r *CheckResult) problem(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Print writes a human-readable summary.
func (r CheckResult) Print(w io.Writer) {
	names := make([]string, 0, len(r.Counts))
	for name := range r.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err, ok := r.LoadErrors[name]; ok {
			fmt.Fprintf(w, "%-10s ERROR %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%-10s %d records\n", name, r.Counts[name])
	}
	if len(r.Problems) == 0 {
		fmt.Fprintln(w, "no problems found")
		return
	}
	fmt.Fprintf(w, "%d problem(s):\n", len(r.Problems))
	for _, p := range r.Problems {
		fmt.Fprintf(w, "  - %s\n", p)
	}
}
