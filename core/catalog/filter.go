package catalog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Availability selects products by stock status
type Availability string

// all availability filters
const (
	AvailabilityAll        Availability = "all"
	AvailabilityInStock    Availability = "in-stock"
	AvailabilityOutOfStock Availability = "out-of-stock"
)

// Valid returns true if a is a known availability filter
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAll, AvailabilityInStock, AvailabilityOutOfStock:
		return true
	}
	return false
}

func (a Availability) matches(s StockStatus) bool {
	switch a {
	case AvailabilityInStock:
		return s.Available()
	case AvailabilityOutOfStock:
		return !s.Available()
	}
	return true
}

// SortOrder is the display order of a filtered product list
type SortOrder string

// all sort orders
const (
	SortFeatured  SortOrder = "featured"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortNameAsc   SortOrder = "name-asc"
	SortNameDesc  SortOrder = "name-desc"
)

// SortOrders lists the valid sort orders
var SortOrders = []SortOrder{SortFeatured, SortPriceLow, SortPriceHigh, SortNameAsc, SortNameDesc}

// Valid returns true if o is one of SortOrders
func (o SortOrder) Valid() bool {
	for _, v := range SortOrders {
		if o == v {
			return true
		}
	}
	return false
}

// PriceRange is an inclusive price interval. A nil bound is open.
type PriceRange struct {
	Min *Price
	Max *Price
}

// Contains returns true if min <= p <= max
func (r PriceRange) Contains(p Price) bool {
	if r.Min != nil && p.Cmp(*r.Min) < 0 {
		return false
	}
	if r.Max != nil && p.Cmp(*r.Max) > 0 {
		return false
	}
	return true
}

// Filter is the shop page query over a product list. The zero value matches
// every product and keeps the input order.
type Filter struct {
	Search       string
	Categories   []string
	PriceRange   PriceRange
	Availability Availability
	SortBy       SortOrder
}

// Check returns a validation error for unknown availability or sort values
func (f Filter) Check() error {
	if f.Availability != "" && !f.Availability.Valid() {
		return &ValidationError{
			Message: fmt.Sprintf("Invalid availability '%s'", f.Availability),
			Fields:  []string{"availability"},
			Allowed: []string{string(AvailabilityAll), string(AvailabilityInStock), string(AvailabilityOutOfStock)},
		}
	}
	if f.SortBy != "" && !f.SortBy.Valid() {
		allowed := make([]string, len(SortOrders))
		for i, o := range SortOrders {
			allowed[i] = string(o)
		}
		return &ValidationError{
			Message: fmt.Sprintf("Invalid sortBy '%s'", f.SortBy),
			Fields:  []string{"sortBy"},
			Allowed: allowed,
		}
	}
	if f.PriceRange.Min != nil && f.PriceRange.Max != nil && f.PriceRange.Min.Cmp(*f.PriceRange.Max) > 0 {
		return &ValidationError{
			Message: "minPrice must not be greater than maxPrice",
			Fields:  []string{"minPrice", "maxPrice"},
		}
	}
	return nil
}

// Match returns true if the product passes all filters of f
func (f Filter) Match(p Product) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if c == p.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.PriceRange.Contains(p.Price) {
		return false
	}
	return f.Availability.matches(p.Stock)
}

// Apply returns the products matching f in the order requested by f.SortBy.
// Products with equal sort keys keep their relative input order. The input
// slice is not modified and the result is never nil.
func (f Filter) Apply(products []Product) []Product {
	result := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			result = append(result, p)
		}
	}

	switch f.SortBy {
	case SortPriceLow:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Price.Cmp(result[j].Price) < 0
		})
	case SortPriceHigh:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Price.Cmp(result[j].Price) > 0
		})
	case SortNameAsc, SortNameDesc:
		// a collator is not safe for concurrent use
		c := collate.New(language.English)
		desc := f.SortBy == SortNameDesc
		sort.SliceStable(result, func(i, j int) bool {
			cmp := c.CompareString(result[i].Name, result[j].Name)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	return result
}
