package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/csql"
	"github.com/sahnaf-tech/storefront/core/logger"
)

// Postgres is the Store on top of a postgres schema
type Postgres struct {
	db     *csql.DB
	schema string
}

// NewPostgres returns a store on db and creates all types and tables that do not exist yet
func NewPostgres(ctx context.Context, db *csql.DB) (*Postgres, error) {
	p := &Postgres{db: db, schema: db.Schema}
	if err := p.migrate(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Close implements Store
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) migrate(ctx context.Context) error {
	s := p.schema
	quoted := func(values []string) string {
		q := make([]string, len(values))
		for i, v := range values {
			q[i] = "'" + v + "'"
		}
		return strings.Join(q, ", ")
	}
	stocks := make([]string, len(catalog.StockStatuses))
	for i, v := range catalog.StockStatuses {
		stocks[i] = string(v)
	}
	shops := make([]string, len(catalog.ShopLocations))
	for i, v := range catalog.ShopLocations {
		shops[i] = string(v)
	}

	statements := []string{
		`DO $$ BEGIN
			CREATE TYPE ` + s + `.stock_status AS ENUM (` + quoted(stocks) + `);
		EXCEPTION WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			CREATE TYPE ` + s + `.shop_location AS ENUM (` + quoted(shops) + `);
		EXCEPTION WHEN duplicate_object THEN null;
		END $$;`,
		`CREATE TABLE IF NOT EXISTS ` + s + `.products (
			id uuid PRIMARY KEY,
			name text NOT NULL,
			description text,
			category text NOT NULL,
			price numeric(10,2) NOT NULL CHECK (price >= 0),
			stock ` + s + `.stock_status NOT NULL DEFAULT 'in-stock',
			shop ` + s + `.shop_location NOT NULL DEFAULT 'Both',
			image text,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			seq bigserial NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS products_newest_first ON ` + s + `.products (created_at DESC, seq DESC);`,
		`CREATE TABLE IF NOT EXISTS ` + s + `.solar_projects (
			id uuid PRIMARY KEY,
			title text NOT NULL,
			location text,
			image text NOT NULL,
			description text,
			kva text,
			completed_at timestamptz,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			seq bigserial NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS solar_projects_newest_first ON ` + s + `.solar_projects (created_at DESC, seq DESC);`,
		`CREATE TABLE IF NOT EXISTS ` + s + `.store_settings (
			id integer PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			gas_price numeric(10,2) NOT NULL CHECK (gas_price >= 0),
			updated_at timestamptz NOT NULL DEFAULT now()
		);`,
	}
	for _, statement := range statements {
		if _, err := p.db.ExecContext(ctx, statement); err != nil {
			logger.FromContext(ctx).WithError(err).Errorf("Error 5001: cannot execute `%s`", statement)
			return fmt.Errorf("migrate schema %s: %w", s, err)
		}
	}
	return nil
}

// mapError translates driver errors into the errors of this package
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23514", "22P02", "23502", "22003":
			return fmt.Errorf("%w: %s", ErrInvalid, pqErr.Message)
		}
	}
	return err
}

// escapeLike escapes the LIKE wildcards of s
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

const productColumns = "id, name, description, category, price, stock, shop, image, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.Shop, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts implements ProductStore
func (p *Postgres) ListProducts(ctx context.Context, category string) ([]catalog.Product, error) {
	query := "SELECT " + productColumns + " FROM " + p.schema + ".products"
	args := []interface{}{}
	if category != "" && category != catalog.CategoryAll {
		query += " WHERE category = $1"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, seq DESC;"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	result := []catalog.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, *product)
	}
	return result, rows.Err()
}

// GetProduct implements ProductStore
func (p *Postgres) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	row := p.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM "+p.schema+".products WHERE id = $1;", id)
	product, err := scanProduct(row)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

// CreateProduct implements ProductStore
func (p *Postgres) CreateProduct(ctx context.Context, product catalog.Product) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO "+p.schema+".products ("+productColumns+") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);",
		product.ID, product.Name, product.Description, product.Category, product.Price,
		product.Stock, product.Shop, product.Image, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// ReplaceProduct implements ProductStore
func (p *Postgres) ReplaceProduct(ctx context.Context, product catalog.Product) (*catalog.Product, error) {
	row := p.db.QueryRowContext(ctx,
		"UPDATE "+p.schema+".products SET name = $2, description = $3, category = $4, price = $5, "+
			"stock = $6, shop = $7, image = $8, updated_at = $9 WHERE id = $1 RETURNING "+productColumns+";",
		product.ID, product.Name, product.Description, product.Category, product.Price,
		product.Stock, product.Shop, product.Image, product.UpdatedAt)
	result, err := scanProduct(row)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// UpdateProductStock implements ProductStore
func (p *Postgres) UpdateProductStock(ctx context.Context, id uuid.UUID, stock catalog.StockStatus, updatedAt time.Time) (*catalog.Product, error) {
	row := p.db.QueryRowContext(ctx,
		"UPDATE "+p.schema+".products SET stock = $2, updated_at = $3 WHERE id = $1 RETURNING "+productColumns+";",
		id, stock, updatedAt)
	result, err := scanProduct(row)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// DeleteProduct implements ProductStore
func (p *Postgres) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM "+p.schema+".products WHERE id = $1;", id)
	if err != nil {
		return mapError(err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

const solarProjectColumns = "id, title, location, image, description, kva, completed_at, created_at, updated_at"

func scanSolarProject(row rowScanner) (*catalog.SolarProject, error) {
	var sp catalog.SolarProject
	err := row.Scan(&sp.ID, &sp.Title, &sp.Location, &sp.Image, &sp.Description, &sp.Kva, &sp.CompletedAt, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// ListSolarProjects implements SolarProjectStore
func (p *Postgres) ListSolarProjects(ctx context.Context, q string) ([]catalog.SolarProject, error) {
	query := "SELECT " + solarProjectColumns + " FROM " + p.schema + ".solar_projects"
	args := []interface{}{}
	if q = strings.TrimSpace(q); q != "" {
		query += " WHERE title ILIKE $1 OR location ILIKE $1"
		args = append(args, "%"+escapeLike(q)+"%")
	}
	query += " ORDER BY created_at DESC, seq DESC;"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list solar projects: %w", err)
	}
	defer rows.Close()
	result := []catalog.SolarProject{}
	for rows.Next() {
		sp, err := scanSolarProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan solar project: %w", err)
		}
		result = append(result, *sp)
	}
	return result, rows.Err()
}

// GetSolarProject implements SolarProjectStore
func (p *Postgres) GetSolarProject(ctx context.Context, id uuid.UUID) (*catalog.SolarProject, error) {
	row := p.db.QueryRowContext(ctx, "SELECT "+solarProjectColumns+" FROM "+p.schema+".solar_projects WHERE id = $1;", id)
	sp, err := scanSolarProject(row)
	if err != nil {
		return nil, mapError(err)
	}
	return sp, nil
}

// CreateSolarProject implements SolarProjectStore
func (p *Postgres) CreateSolarProject(ctx context.Context, sp catalog.SolarProject) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO "+p.schema+".solar_projects ("+solarProjectColumns+") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);",
		sp.ID, sp.Title, sp.Location, sp.Image, sp.Description, sp.Kva, sp.CompletedAt, sp.CreatedAt, sp.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// UpdateSolarProject implements SolarProjectStore. Only the columns set in
// patch are written, so concurrent updates of different fields do not
// overwrite each other.
func (p *Postgres) UpdateSolarProject(ctx context.Context, id uuid.UUID, patch catalog.SolarProjectPatch, updatedAt time.Time) (*catalog.SolarProject, error) {
	// normalized values of all set fields
	var values catalog.SolarProject
	patch.Apply(&values)

	sets := []string{}
	args := []interface{}{id}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Title.Present() {
		add("title", values.Title)
	}
	if patch.Image.Present() {
		add("image", values.Image)
	}
	if patch.Location.Set {
		add("location", values.Location)
	}
	if patch.Description.Set {
		add("description", values.Description)
	}
	if patch.Kva.Set {
		add("kva", values.Kva)
	}
	if patch.CompletedAt.Set {
		add("completed_at", values.CompletedAt)
	}
	add("updated_at", updatedAt)

	row := p.db.QueryRowContext(ctx,
		"UPDATE "+p.schema+".solar_projects SET "+strings.Join(sets, ", ")+" WHERE id = $1 RETURNING "+solarProjectColumns+";",
		args...)
	sp, err := scanSolarProject(row)
	if err != nil {
		return nil, mapError(err)
	}
	return sp, nil
}

// DeleteSolarProject implements SolarProjectStore
func (p *Postgres) DeleteSolarProject(ctx context.Context, id uuid.UUID) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM "+p.schema+".solar_projects WHERE id = $1;", id)
	if err != nil {
		return mapError(err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOrSeedGasPrice implements SettingsStore. Concurrent first reads seed
// exactly one row.
func (p *Postgres) GetOrSeedGasPrice(ctx context.Context, seed catalog.Price, seededAt time.Time) (*catalog.GasPrice, error) {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO "+p.schema+".store_settings (id, gas_price, updated_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING;",
		catalog.GasPriceID, seed, seededAt)
	if err != nil {
		return nil, mapError(err)
	}
	var g catalog.GasPrice
	err = p.db.QueryRowContext(ctx,
		"SELECT id, gas_price, updated_at FROM "+p.schema+".store_settings WHERE id = $1;",
		catalog.GasPriceID).Scan(&g.ID, &g.Price, &g.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &g, nil
}

// SetGasPrice implements SettingsStore
func (p *Postgres) SetGasPrice(ctx context.Context, price catalog.Price, updatedAt time.Time) (*catalog.GasPrice, error) {
	var g catalog.GasPrice
	err := p.db.QueryRowContext(ctx,
		"INSERT INTO "+p.schema+".store_settings (id, gas_price, updated_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (id) DO UPDATE SET gas_price = EXCLUDED.gas_price, updated_at = EXCLUDED.updated_at "+
			"RETURNING id, gas_price, updated_at;",
		catalog.GasPriceID, price, updatedAt).Scan(&g.ID, &g.Price, &g.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &g, nil
}
