package models

import "github.com/shopspring/decimal"

func init() {
	// Marks, averages and amounts are emitted as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
