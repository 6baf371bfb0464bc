package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
)

const (
	productsCollection      = "products"
	solarProjectsCollection = "solar_projects"
	settingsCollection      = "store_settings"
	countersCollection      = "counters"
)

// Mongo is the Store on top of a MongoDB database
type Mongo struct {
	client   *mongo.Client
	products *mongo.Collection
	projects *mongo.Collection
	settings *mongo.Collection
	counters *mongo.Collection
}

// NewMongo connects to uri, pings the primary and creates the indexes of database
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	logger.FromContext(ctx).Infoln("connected to mongodb database:", database)

	db := client.Database(database)
	m := &Mongo{
		client:   client,
		products: db.Collection(productsCollection),
		projects: db.Collection(solarProjectsCollection),
		settings: db.Collection(settingsCollection),
		counters: db.Collection(countersCollection),
	}
	for _, c := range []*mongo.Collection{m.products, m.projects} {
		_, err = c.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: newestFirst})
		if err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("create index on %s: %w", c.Name(), err)
		}
	}
	return m, nil
}

// Close implements Store
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

type mongoProduct struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description *string              `bson:"description"`
	Category    string               `bson:"category"`
	Price       primitive.Decimal128 `bson:"price"`
	Stock       string               `bson:"stock"`
	Shop        string               `bson:"shop"`
	Image       *string              `bson:"image"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
	Seq         int64                `bson:"seq"`
}

func toDecimal128(p catalog.Price) (primitive.Decimal128, error) {
	d, err := primitive.ParseDecimal128(p.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	return d, nil
}

func fromDecimal128(d primitive.Decimal128) (catalog.Price, error) {
	return catalog.NewPrice(d.String())
}

func (doc mongoProduct) product() (*catalog.Product, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id '%s': %w", doc.ID, err)
	}
	price, err := fromDecimal128(doc.Price)
	if err != nil {
		return nil, err
	}
	return &catalog.Product{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Category,
		Price:       price,
		Stock:       catalog.StockStatus(doc.Stock),
		Shop:        catalog.ShopLocation(doc.Shop),
		Image:       doc.Image,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}, nil
}

func mongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// newestFirst orders by creation time, rows created at the same time in
// reverse insertion order
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}

// nextSeq returns the next insertion sequence number of collection
func (m *Mongo) nextSeq(ctx context.Context, collection string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": collection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next sequence of %s: %w", collection, err)
	}
	return counter.Seq, nil
}

// ListProducts implements ProductStore
func (m *Mongo) ListProducts(ctx context.Context, category string) ([]catalog.Product, error) {
	filter := bson.M{}
	if category != "" && category != catalog.CategoryAll {
		filter["category"] = category
	}
	cursor, err := m.products.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)
	result := []catalog.Product{}
	for cursor.Next(ctx) {
		var doc mongoProduct
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		p, err := doc.product()
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, cursor.Err()
}

// GetProduct implements ProductStore
func (m *Mongo) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var doc mongoProduct
	if err := m.products.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, mongoError(err)
	}
	return doc.product()
}

// CreateProduct implements ProductStore
func (m *Mongo) CreateProduct(ctx context.Context, p catalog.Product) error {
	if !p.Price.InRange() {
		return ErrInvalid
	}
	price, err := toDecimal128(p.Price)
	if err != nil {
		return err
	}
	seq, err := m.nextSeq(ctx, productsCollection)
	if err != nil {
		return err
	}
	_, err = m.products.InsertOne(ctx, mongoProduct{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       price,
		Stock:       string(p.Stock),
		Shop:        string(p.Shop),
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Seq:         seq,
	})
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *Mongo) updateProduct(ctx context.Context, id uuid.UUID, set bson.M) (*catalog.Product, error) {
	var doc mongoProduct
	err := m.products.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mongoError(err)
	}
	return doc.product()
}

// ReplaceProduct implements ProductStore
func (m *Mongo) ReplaceProduct(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	if !p.Price.InRange() {
		return nil, ErrInvalid
	}
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	return m.updateProduct(ctx, p.ID, bson.M{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"price":       price,
		"stock":       string(p.Stock),
		"shop":        string(p.Shop),
		"image":       p.Image,
		"updated_at":  p.UpdatedAt,
	})
}

// UpdateProductStock implements ProductStore
func (m *Mongo) UpdateProductStock(ctx context.Context, id uuid.UUID, stock catalog.StockStatus, updatedAt time.Time) (*catalog.Product, error) {
	return m.updateProduct(ctx, id, bson.M{"stock": string(stock), "updated_at": updatedAt})
}

// DeleteProduct implements ProductStore
func (m *Mongo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := m.products.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoSolarProject struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Location    *string    `bson:"location"`
	Image       string     `bson:"image"`
	Description *string    `bson:"description"`
	Kva         *string    `bson:"kva"`
	CompletedAt *time.Time `bson:"completed_at"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	Seq         int64      `bson:"seq"`
}

func (doc mongoSolarProject) solarProject() (*catalog.SolarProject, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid solar project id '%s': %w", doc.ID, err)
	}
	sp := &catalog.SolarProject{
		ID:          id,
		Title:       doc.Title,
		Location:    doc.Location,
		Image:       doc.Image,
		Description: doc.Description,
		Kva:         doc.Kva,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}
	if doc.CompletedAt != nil {
		t := doc.CompletedAt.UTC()
		sp.CompletedAt = &t
	}
	return sp, nil
}

// ListSolarProjects implements SolarProjectStore
func (m *Mongo) ListSolarProjects(ctx context.Context, q string) ([]catalog.SolarProject, error) {
	filter := bson.M{}
	if q = strings.TrimSpace(q); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{bson.M{"title": pattern}, bson.M{"location": pattern}}
	}
	cursor, err := m.projects.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list solar projects: %w", err)
	}
	defer cursor.Close(ctx)
	result := []catalog.SolarProject{}
	for cursor.Next(ctx) {
		var doc mongoSolarProject
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode solar project: %w", err)
		}
		sp, err := doc.solarProject()
		if err != nil {
			return nil, err
		}
		result = append(result, *sp)
	}
	return result, cursor.Err()
}

// GetSolarProject implements SolarProjectStore
func (m *Mongo) GetSolarProject(ctx context.Context, id uuid.UUID) (*catalog.SolarProject, error) {
	var doc mongoSolarProject
	if err := m.projects.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, mongoError(err)
	}
	return doc.solarProject()
}

// CreateSolarProject implements SolarProjectStore
func (m *Mongo) CreateSolarProject(ctx context.Context, sp catalog.SolarProject) error {
	seq, err := m.nextSeq(ctx, solarProjectsCollection)
	if err != nil {
		return err
	}
	_, err = m.projects.InsertOne(ctx, mongoSolarProject{
		ID:          sp.ID.String(),
		Title:       sp.Title,
		Location:    sp.Location,
		Image:       sp.Image,
		Description: sp.Description,
		Kva:         sp.Kva,
		CompletedAt: sp.CompletedAt,
		CreatedAt:   sp.CreatedAt,
		UpdatedAt:   sp.UpdatedAt,
		Seq:         seq,
	})
	if err != nil {
		return fmt.Errorf("insert solar project: %w", err)
	}
	return nil
}

// UpdateSolarProject implements SolarProjectStore
func (m *Mongo) UpdateSolarProject(ctx context.Context, id uuid.UUID, patch catalog.SolarProjectPatch, updatedAt time.Time) (*catalog.SolarProject, error) {
	var values catalog.SolarProject
	patch.Apply(&values)

	set := bson.M{"updated_at": updatedAt}
	if patch.Title.Present() {
		set["title"] = values.Title
	}
	if patch.Image.Present() {
		set["image"] = values.Image
	}
	if patch.Location.Set {
		set["location"] = values.Location
	}
	if patch.Description.Set {
		set["description"] = values.Description
	}
	if patch.Kva.Set {
		set["kva"] = values.Kva
	}
	if patch.CompletedAt.Set {
		set["completed_at"] = values.CompletedAt
	}

	var doc mongoSolarProject
	err := m.projects.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mongoError(err)
	}
	return doc.solarProject()
}

// DeleteSolarProject implements SolarProjectStore
func (m *Mongo) DeleteSolarProject(ctx context.Context, id uuid.UUID) error {
	res, err := m.projects.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete solar project: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoSettings struct {
	ID        int                  `bson:"_id"`
	GasPrice  primitive.Decimal128 `bson:"gas_price"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func (doc mongoSettings) gasPrice() (*catalog.GasPrice, error) {
	price, err := fromDecimal128(doc.GasPrice)
	if err != nil {
		return nil, err
	}
	return &catalog.GasPrice{ID: doc.ID, Price: price, UpdatedAt: doc.UpdatedAt.UTC()}, nil
}

// GetOrSeedGasPrice implements SettingsStore
func (m *Mongo) GetOrSeedGasPrice(ctx context.Context, seed catalog.Price, seededAt time.Time) (*catalog.GasPrice, error) {
	price, err := toDecimal128(seed)
	if err != nil {
		return nil, err
	}
	var doc mongoSettings
	err = m.settings.FindOneAndUpdate(ctx,
		bson.M{"_id": catalog.GasPriceID},
		bson.M{"$setOnInsert": bson.M{"gas_price": price, "updated_at": seededAt}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("seed gas price: %w", err)
	}
	return doc.gasPrice()
}

// SetGasPrice implements SettingsStore
func (m *Mongo) SetGasPrice(ctx context.Context, price catalog.Price, updatedAt time.Time) (*catalog.GasPrice, error) {
	if !price.InRange() {
		return nil, ErrInvalid
	}
	value, err := toDecimal128(price)
	if err != nil {
		return nil, err
	}
	var doc mongoSettings
	err = m.settings.FindOneAndUpdate(ctx,
		bson.M{"_id": catalog.GasPriceID},
		bson.M{"$set": bson.M{"gas_price": value, "updated_at": updatedAt}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("set gas price: %w", err)
	}
	return doc.gasPrice()
}
