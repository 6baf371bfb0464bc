package catalog

import "time"

// GasPriceID is the primary key of the one and only store settings row
const GasPriceID = 1

// DefaultGasPrice is the price per kg the store settings row is seeded with
var DefaultGasPrice = MustPrice("1300.00")

// GasPrice is the store settings singleton carrying today's gas price
type GasPrice struct {
	ID        int       `json:"id"`
	Price     Price     `json:"price"`
	UpdatedAt time.Time `json:"updatedAt"`
}
