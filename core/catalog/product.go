package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StockStatus is the availability of a product
type StockStatus string

// all stock states
const (
	StockInStock    StockStatus = "in-stock"
	StockLowStock   StockStatus = "low-stock"
	StockOutOfStock StockStatus = "out-of-stock"
)

// StockStatuses lists the valid stock states in display order
var StockStatuses = []StockStatus{StockInStock, StockLowStock, StockOutOfStock}

// Valid returns true if s is one of StockStatuses
func (s StockStatus) Valid() bool {
	for _, v := range StockStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Available returns true for products which can be bought, i.e. in stock or low on stock
func (s StockStatus) Available() bool {
	return s == StockInStock || s == StockLowStock
}

// ShopLocation is the shop which carries a product
type ShopLocation string

// all shop locations
const (
	ShopUnderG ShopLocation = "Under-G"
	ShopRanda  ShopLocation = "Randa"
	ShopBoth   ShopLocation = "Both"
)

// ShopLocations lists the valid shop locations
var ShopLocations = []ShopLocation{ShopUnderG, ShopRanda, ShopBoth}

// Valid returns true if s is one of ShopLocations
func (s ShopLocation) Valid() bool {
	for _, v := range ShopLocations {
		if s == v {
			return true
		}
	}
	return false
}

// Categories is the fixed set of product categories
var Categories = []string{
	"Power Banks",
	"Chargers",
	"Cables",
	"Adaptor",
	"Earbuds",
	"MPS",
	"Speakers",
	"Phone Accessories",
	"Other",
}

// CategoryAll is the list filter sentinel meaning "no category filter"
const CategoryAll = "all"

// ValidCategory returns true if c is one of Categories
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Product is a catalog item
type Product struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Category    string       `json:"category"`
	Price       Price        `json:"price"`
	Stock       StockStatus  `json:"stock"`
	Shop        ShopLocation `json:"shop"`
	Image       *string      `json:"image"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ProductPatch carries the fields of a product payload. Only fields with Set
// are applied.
type ProductPatch struct {
	Name        Field[string]
	Description Field[string]
	Category    Field[string]
	Price       Field[Price]
	Stock       Field[StockStatus]
	Shop        Field[ShopLocation]
	Image       Field[string]
}

// MissingForCreate returns the names of required fields which are absent or empty,
// in the order name, price, category, shop, stock, image
func (p ProductPatch) MissingForCreate() []string {
	var missing []string
	if p.Name.Blank() {
		missing = append(missing, "name")
	}
	if !p.Price.Present() {
		missing = append(missing, "price")
	}
	if p.Category.Blank() {
		missing = append(missing, "category")
	}
	if !p.Shop.Present() || *p.Shop.Value == "" {
		missing = append(missing, "shop")
	}
	if !p.Stock.Present() || *p.Stock.Value == "" {
		missing = append(missing, "stock")
	}
	if p.Image.Blank() {
		missing = append(missing, "image")
	}
	return missing
}

// Apply writes all set fields into product. Name and category are trimmed.
func (p ProductPatch) Apply(product *Product) {
	if p.Name.Set && p.Name.Value != nil {
		product.Name = strings.TrimSpace(*p.Name.Value)
	}
	if p.Description.Set {
		product.Description = p.Description.Value
	}
	if p.Category.Set && p.Category.Value != nil {
		product.Category = strings.TrimSpace(*p.Category.Value)
	}
	if p.Price.Set && p.Price.Value != nil {
		product.Price = *p.Price.Value
	}
	if p.Stock.Set && p.Stock.Value != nil {
		product.Stock = *p.Stock.Value
	}
	if p.Shop.Set && p.Shop.Value != nil {
		product.Shop = *p.Shop.Value
	}
	if p.Image.Set {
		product.Image = p.Image.Value
	}
}

// Validate checks the invariants of a complete product record
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Message: "Name is required", Fields: []string{"name"}}
	}
	if err := p.Price.Validate("price"); err != nil {
		return err
	}
	if !ValidCategory(p.Category) {
		return &ValidationError{
			Message: "Invalid category. Must be one of: " + strings.Join(Categories, ", "),
			Fields:  []string{"category"},
			Allowed: Categories,
		}
	}
	if !p.Stock.Valid() {
		return InvalidStockError()
	}
	if !p.Shop.Valid() {
		allowed := make([]string, len(ShopLocations))
		for i, s := range ShopLocations {
			allowed[i] = string(s)
		}
		return &ValidationError{
			Message: "Invalid shop. Must be one of: " + strings.Join(allowed, ", "),
			Fields:  []string{"shop"},
			Allowed: allowed,
		}
	}
	return nil
}

// InvalidStockError returns the validation error for a stock value outside StockStatuses
func InvalidStockError() *ValidationError {
	allowed := make([]string, len(StockStatuses))
	for i, s := range StockStatuses {
		allowed[i] = string(s)
	}
	return &ValidationError{
		Message: "Invalid stock value. Must be one of: " + strings.Join(allowed, ", "),
		Fields:  []string{"stock"},
		Allowed: allowed,
	}
}
