package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a fixed-point amount with two decimal places, stored as numeric(10,2).
//
// On the wire a price is a quoted decimal string ("1300.00"). Requests may send
// either a number or a string. Amounts are rounded to two decimal places, except
// negative amounts which are kept as sent so they never round up to zero.
type Price struct {
	decimal.Decimal
}

// MaxPrice is the largest price numeric(10,2) can hold
var MaxPrice = MustPrice("99999999.99")

func roundPrice(d decimal.Decimal) Price {
	if d.IsNegative() {
		return Price{d}
	}
	return Price{d.Round(2)}
}

// NewPrice parses a decimal string into a Price
func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price '%s': %w", s, err)
	}
	return roundPrice(d), nil
}

// MustPrice is like NewPrice but panics on invalid input
func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PriceFromInt returns a whole-unit price
func PriceFromInt(i int64) Price {
	return Price{decimal.NewFromInt(i)}
}

// String returns the price with exactly two decimal places
func (p Price) String() string {
	return p.StringFixed(2)
}

// Equal reports whether two prices denote the same amount
func (p Price) Equal(o Price) bool {
	return p.Decimal.Equal(o.Decimal)
}

// Cmp compares two prices, see decimal.Decimal.Cmp
func (p Price) Cmp(o Price) int {
	return p.Decimal.Cmp(o.Decimal)
}

// MarshalJSON implements json.Marshaler
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.StringFixed(2) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Price) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*p = roundPrice(d)
	return nil
}

// InRange reports whether p is between zero and MaxPrice
func (p Price) InRange() bool {
	return !p.IsNegative() && p.Cmp(MaxPrice) <= 0
}

// Validate returns a validation error on field if p is not InRange
func (p Price) Validate(field string) error {
	if p.IsNegative() {
		return &ValidationError{Message: "Price must be a non-negative number", Fields: []string{field}}
	}
	if p.Cmp(MaxPrice) > 0 {
		return &ValidationError{Message: "Price must not exceed " + MaxPrice.String(), Fields: []string{field}}
	}
	return nil
}
