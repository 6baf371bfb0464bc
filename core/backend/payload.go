package backend

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/store"
)

// maxPayloadSize limits request bodies of the catalog routes
const maxPayloadSize = 1 << 20

// schema ids of the embedded payload schemas
const (
	productSchemaID      = "https://storefront.sahnaf.tech/schemas/product.json"
	solarProjectSchemaID = "https://storefront.sahnaf.tech/schemas/solar_project.json"
	gasPriceSchemaID     = "https://storefront.sahnaf.tech/schemas/gas_price.json"
	estimateSchemaID     = "https://storefront.sahnaf.tech/schemas/estimate.json"
)

// payload is a validated JSON object, by property
type payload map[string]json.RawMessage

var jsonNull = []byte("null")

// readPayload reads the request body, validates it against schemaID and splits
// it into its properties. An empty body is treated as an empty object.
func (b *Backend) readPayload(w http.ResponseWriter, r *http.Request, schemaID string) (payload, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
		if err != nil {
			return nil, &catalog.ValidationError{Message: "cannot read request body: " + err.Error()}
		}
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := b.validator.ValidateBytes(body, schemaID); err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &catalog.ValidationError{Message: "invalid JSON: " + err.Error()}
	}
	return p, nil
}

func (p payload) isNull(key string) bool {
	return bytes.Equal(bytes.TrimSpace(p[key]), jsonNull)
}

// decodeField returns the property key as field. Absent properties stay unset,
// null becomes a set field without value.
func decodeField[T any](p payload, key string) (catalog.Field[T], error) {
	raw, ok := p[key]
	if !ok {
		return catalog.Field[T]{}, nil
	}
	if p.isNull(key) {
		return catalog.Null[T](), nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return catalog.Field[T]{}, &catalog.ValidationError{
			Message: fmt.Sprintf("Invalid %s: %v", key, err),
			Fields:  []string{key},
		}
	}
	return catalog.Some(v), nil
}

// decodeText returns a free-text property. Numbers are accepted and
// converted to their string form.
func decodeText(p payload, key string) (catalog.Field[string], error) {
	raw, ok := p[key]
	if !ok {
		return catalog.Field[string]{}, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return catalog.Null[string](), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return catalog.Field[string]{}, &catalog.ValidationError{
			Message: fmt.Sprintf("Invalid %s: %v", key, err),
			Fields:  []string{key},
		}
	}
	return catalog.Some(s), nil
}

// decodeDate returns a date-like property. Falsy values (null, "", 0, false)
// clear the date. Strings may be in any common date format and are read as
// UTC unless they carry a zone; numbers are milliseconds since the epoch.
func decodeDate(p payload, key string) (catalog.Field[time.Time], error) {
	raw, ok := p[key]
	if !ok {
		return catalog.Field[time.Time]{}, nil
	}
	invalid := &catalog.ValidationError{
		Message: fmt.Sprintf("Invalid %s: expected a date", key),
		Fields:  []string{key},
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return catalog.Field[time.Time]{}, invalid
	}
	switch value := v.(type) {
	case nil:
		return catalog.Null[time.Time](), nil
	case bool:
		if !value {
			return catalog.Null[time.Time](), nil
		}
		return catalog.Field[time.Time]{}, invalid
	case float64:
		if value == 0 {
			return catalog.Null[time.Time](), nil
		}
		return catalog.Some(time.UnixMilli(int64(value)).UTC()), nil
	case string:
		if value == "" {
			return catalog.Null[time.Time](), nil
		}
		t, err := dateparse.ParseIn(value, time.UTC)
		if err != nil {
			return catalog.Field[time.Time]{}, invalid
		}
		return catalog.Some(t.UTC()), nil
	default:
		return catalog.Field[time.Time]{}, invalid
	}
}

// decodeID returns the id property. A missing id is a validation error, an id
// which is not a UUID cannot reference any entity and is reported as not found.
func decodeID(p payload) (uuid.UUID, error) {
	id, err := decodeField[string](p, "id")
	if err != nil {
		return uuid.Nil, err
	}
	if id.Blank() {
		return uuid.Nil, catalog.MissingFieldsError("id")
	}
	parsed, err := uuid.Parse(*id.Value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("id %s: %w", *id.Value, store.ErrNotFound)
	}
	return parsed, nil
}

func decodeProductPatch(p payload) (patch catalog.ProductPatch, err error) {
	if patch.Name, err = decodeField[string](p, "name"); err != nil {
		return
	}
	if patch.Description, err = decodeField[string](p, "description"); err != nil {
		return
	}
	if patch.Category, err = decodeField[string](p, "category"); err != nil {
		return
	}
	if patch.Price, err = decodeField[catalog.Price](p, "price"); err != nil {
		return
	}
	if patch.Stock, err = decodeField[catalog.StockStatus](p, "stock"); err != nil {
		return
	}
	if patch.Shop, err = decodeField[catalog.ShopLocation](p, "shop"); err != nil {
		return
	}
	patch.Image, err = decodeField[string](p, "image")
	return
}

func decodeSolarProjectPatch(p payload) (patch catalog.SolarProjectPatch, err error) {
	if patch.Title, err = decodeField[string](p, "title"); err != nil {
		return
	}
	if patch.Image, err = decodeField[string](p, "image"); err != nil {
		return
	}
	if patch.Description, err = decodeField[string](p, "description"); err != nil {
		return
	}
	if patch.Location, err = decodeText(p, "location"); err != nil {
		return
	}
	if patch.Kva, err = decodeText(p, "kva"); err != nil {
		return
	}
	patch.CompletedAt, err = decodeDate(p, "completedAt")
	return
}
