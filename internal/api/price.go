package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"
)

// Price is a money amount that accepts a JSON number or string and always
// renders as a string with two decimal places, e.g. "5.25".
type Price struct {
	decimal.Decimal
}

// NewPrice wraps d.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

// MarshalJSON renders the price as a fixed two-decimal string.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.StringFixed(2))), nil
}

// UnmarshalJSON accepts 5.25 as well as "5.25".
func (p *Price) UnmarshalJSON(data []byte) error {
	return p.Decimal.UnmarshalJSON(data)
}

// Schema implements huma.SchemaProvider.
func (Price) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "Price with at most 5 digits and 2 decimal places; sent as a number or string, returned as a string",
		OneOf: []*huma.Schema{
			{Type: huma.TypeNumber},
			{Type: huma.TypeString, Pattern: `^-?\d+(\.\d+)?$`},
		},
		Examples: []any{"5.25"},
	}
}
