// Package store is the persistent store of the storefront. It owns all
// entity state: products, solar projects and the store settings singleton.
//
// Three implementations exist: Postgres (production), MongoDB and an
// in-memory store used for tests and local development.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sahnaf-tech/storefront/core/catalog"
)

// ErrNotFound is returned when an operation references an entity which does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalid is returned when the store itself rejects a value, for example a
// check constraint or enum violation, or a price outside catalog.MaxPrice
var ErrInvalid = errors.New("invalid value")

// ProductStore persists products
type ProductStore interface {
	// ListProducts returns all products, newest first. Products with the same
	// creation time are returned in reverse insertion order. An empty category
	// or catalog.CategoryAll returns every category.
	ListProducts(ctx context.Context, category string) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	// CreateProduct inserts p. ID, CreatedAt and UpdatedAt must be set by the caller.
	CreateProduct(ctx context.Context, p catalog.Product) error
	// ReplaceProduct overwrites all mutable columns of an existing product
	ReplaceProduct(ctx context.Context, p catalog.Product) (*catalog.Product, error)
	UpdateProductStock(ctx context.Context, id uuid.UUID, stock catalog.StockStatus, updatedAt time.Time) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// SolarProjectStore persists solar projects
type SolarProjectStore interface {
	// ListSolarProjects returns all projects, newest first and in reverse
	// insertion order for equal creation times. A non-empty q
	// selects projects whose title or location contains q, ignoring case.
	ListSolarProjects(ctx context.Context, q string) ([]catalog.SolarProject, error)
	GetSolarProject(ctx context.Context, id uuid.UUID) (*catalog.SolarProject, error)
	CreateSolarProject(ctx context.Context, sp catalog.SolarProject) error
	// UpdateSolarProject applies patch to an existing project and sets updatedAt
	UpdateSolarProject(ctx context.Context, id uuid.UUID, patch catalog.SolarProjectPatch, updatedAt time.Time) (*catalog.SolarProject, error)
	DeleteSolarProject(ctx context.Context, id uuid.UUID) error
}

// SettingsStore persists the store settings singleton
type SettingsStore interface {
	// GetOrSeedGasPrice returns the singleton row. If it does not exist yet
	// it is created with price seed and updatedAt seededAt first.
	GetOrSeedGasPrice(ctx context.Context, seed catalog.Price, seededAt time.Time) (*catalog.GasPrice, error)
	// SetGasPrice writes a new price, creating the row if needed
	SetGasPrice(ctx context.Context, price catalog.Price, updatedAt time.Time) (*catalog.GasPrice, error)
}

// Store is the complete persistent store
type Store interface {
	ProductStore
	SolarProjectStore
	SettingsStore
	// Close releases the resources held by the store
	Close() error
}
