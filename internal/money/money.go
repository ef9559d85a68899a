// Package money holds the arithmetic on amounts and their JSON form. Importing
// it makes every decimal.Decimal marshal as a bare JSON number, the shape data
// files and the front end use.
package money

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Times returns unit multiplied by quantity.
func Times(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// Average divides total by n, rounded to two places. It is zero when n is not
// positive.
func Average(total decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(n)), 2)
}
