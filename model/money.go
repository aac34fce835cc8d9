package model

import "github.com/shopspring/decimal"

func init() {
	// The API decodes amounts into float64, so they must go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
