package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sahnaf-tech/storefront/core/catalog"
)

type memoryProduct struct {
	catalog.Product
	seq int64
}

type memorySolarProject struct {
	catalog.SolarProject
	seq int64
}

// Memory is an in-memory Store. Rows with the same creation time are
// returned in reverse insertion order.
type Memory struct {
	mu       sync.Mutex
	seq      int64
	products map[uuid.UUID]*memoryProduct
	projects map[uuid.UUID]*memorySolarProject
	gasPrice *catalog.GasPrice
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		products: map[uuid.UUID]*memoryProduct{},
		projects: map[uuid.UUID]*memorySolarProject{},
	}
}

// Close implements Store
func (m *Memory) Close() error {
	return nil
}

func newer(createdA, createdB time.Time, seqA, seqB int64) bool {
	if !createdA.Equal(createdB) {
		return createdA.After(createdB)
	}
	return seqA > seqB
}

// ListProducts implements ProductStore
func (m *Memory) ListProducts(ctx context.Context, category string) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := []*memoryProduct{}
	for _, p := range m.products {
		if category != "" && category != catalog.CategoryAll && p.Category != category {
			continue
		}
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool {
		return newer(rows[i].CreatedAt, rows[j].CreatedAt, rows[i].seq, rows[j].seq)
	})
	result := make([]catalog.Product, len(rows))
	for i, p := range rows {
		result[i] = p.Product
	}
	return result, nil
}

// GetProduct implements ProductStore
func (m *Memory) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := p.Product
	return &result, nil
}

// CreateProduct implements ProductStore
func (m *Memory) CreateProduct(ctx context.Context, p catalog.Product) error {
	if !p.Price.InRange() {
		return ErrInvalid
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.products[p.ID] = &memoryProduct{Product: p, seq: m.seq}
	return nil
}

// ReplaceProduct implements ProductStore
func (m *Memory) ReplaceProduct(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	if !p.Price.InRange() {
		return nil, ErrInvalid
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[p.ID]
	if !ok {
		return nil, ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	existing.Product = p
	result := p
	return &result, nil
}

// UpdateProductStock implements ProductStore
func (m *Memory) UpdateProductStock(ctx context.Context, id uuid.UUID, stock catalog.StockStatus, updatedAt time.Time) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	existing.Stock = stock
	existing.UpdatedAt = updatedAt
	result := existing.Product
	return &result, nil
}

// DeleteProduct implements ProductStore
func (m *Memory) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// ListSolarProjects implements SolarProjectStore
func (m *Memory) ListSolarProjects(ctx context.Context, q string) ([]catalog.SolarProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q = strings.TrimSpace(q)
	rows := []*memorySolarProject{}
	for _, sp := range m.projects {
		if sp.MatchesQuery(q) {
			rows = append(rows, sp)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return newer(rows[i].CreatedAt, rows[j].CreatedAt, rows[i].seq, rows[j].seq)
	})
	result := make([]catalog.SolarProject, len(rows))
	for i, sp := range rows {
		result[i] = sp.SolarProject
	}
	return result, nil
}

// GetSolarProject implements SolarProjectStore
func (m *Memory) GetSolarProject(ctx context.Context, id uuid.UUID) (*catalog.SolarProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := sp.SolarProject
	return &result, nil
}

// CreateSolarProject implements SolarProjectStore
func (m *Memory) CreateSolarProject(ctx context.Context, sp catalog.SolarProject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.projects[sp.ID] = &memorySolarProject{SolarProject: sp, seq: m.seq}
	return nil
}

// UpdateSolarProject implements SolarProjectStore
func (m *Memory) UpdateSolarProject(ctx context.Context, id uuid.UUID, patch catalog.SolarProjectPatch, updatedAt time.Time) (*catalog.SolarProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&existing.SolarProject)
	existing.UpdatedAt = updatedAt
	result := existing.SolarProject
	return &result, nil
}

// DeleteSolarProject implements SolarProjectStore
func (m *Memory) DeleteSolarProject(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// GetOrSeedGasPrice implements SettingsStore
func (m *Memory) GetOrSeedGasPrice(ctx context.Context, seed catalog.Price, seededAt time.Time) (*catalog.GasPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gasPrice == nil {
		m.gasPrice = &catalog.GasPrice{
			ID:        catalog.GasPriceID,
			Price:     seed,
			UpdatedAt: seededAt,
		}
	}
	result := *m.gasPrice
	return &result, nil
}

// SetGasPrice implements SettingsStore
func (m *Memory) SetGasPrice(ctx context.Context, price catalog.Price, updatedAt time.Time) (*catalog.GasPrice, error) {
	if !price.InRange() {
		return nil, ErrInvalid
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gasPrice = &catalog.GasPrice{
		ID:        catalog.GasPriceID,
		Price:     price,
		UpdatedAt: updatedAt,
	}
	result := *m.gasPrice
	return &result, nil
}
