package backend

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core"
	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
)

func (b *Backend) handleProducts(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("products")
	rlog.Debugln("  handle route: /products GET")
	rlog.Debugln("  handle route: /products POST")
	rlog.Debugln("  handle route: /products PUT")
	rlog.Debugln("  handle route: /products PATCH")
	rlog.Debugln("  handle route: /products DELETE")

	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		b.listProducts(w, r)
	}).Methods(http.MethodGet)

	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.createProduct(w, r)
	}).Methods(http.MethodPost)

	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.replaceProduct(w, r)
	}).Methods(http.MethodPut)

	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.patchProductStock(w, r)
	}).Methods(http.MethodPatch)

	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.deleteProduct(w, r)
	}).Methods(http.MethodDelete)
}

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := b.store.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSONWithEtag(w, r, products)
}

func (b *Backend) createProduct(w http.ResponseWriter, r *http.Request) {
	p, err := b.readPayload(w, r, productSchemaID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	patch, err := decodeProductPatch(p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if missing := patch.MissingForCreate(); len(missing) > 0 {
		handleError(w, r, catalog.MissingFieldsError(missing...))
		return
	}

	now := b.now()
	product := catalog.Product{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	patch.Apply(&product)
	if err = product.Validate(); err != nil {
		handleError(w, r, err)
		return
	}
	if err = b.store.CreateProduct(r.Context(), product); err != nil {
		handleError(w, r, err)
		return
	}

	b.notify(r.Context(), core.ResourceProduct, core.OperationCreate, product.ID.String(), product)
	writeJSON(w, r, http.StatusOK, writeResult{Success: true, Data: product})
}

// replaceProduct merges the payload onto the stored product and writes the
// complete record back
func (b *Backend) replaceProduct(w http.ResponseWriter, r *http.Request) {
	p, err := b.readPayload(w, r, productSchemaID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	id, err := decodeID(p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	patch, err := decodeProductPatch(p)
	if err != nil {
		handleError(w, r, err)
		return
	}

	product, err := b.store.GetProduct(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	patch.Apply(product)
	if err = product.Validate(); err != nil {
		handleError(w, r, err)
		return
	}
	product.UpdatedAt = b.now()

	updated, err := b.store.ReplaceProduct(r.Context(), *product)
	if err != nil {
		handleError(w, r, err)
		return
	}

	b.notify(r.Context(), core.ResourceProduct, core.OperationUpdate, updated.ID.String(), updated)
	writeJSON(w, r, http.StatusOK, writeResult{Success: true, Data: updated})
}

func (b *Backend) patchProductStock(w http.ResponseWriter, r *http.Request) {
	p, err := b.readPayload(w, r, productSchemaID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	rawID, err := decodeField[string](p, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	stock, err := decodeField[catalog.StockStatus](p, "stock")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var missing []string
	if rawID.Blank() {
		missing = append(missing, "id")
	}
	if !stock.Present() || *stock.Value == "" {
		missing = append(missing, "stock")
	}
	if len(missing) > 0 {
		handleError(w, r, catalog.MissingFieldsError(missing...))
		return
	}
	id, err := decodeID(p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !stock.Value.Valid() {
		handleError(w, r, catalog.InvalidStockError())
		return
	}

	updated, err := b.store.UpdateProductStock(r.Context(), id, *stock.Value, b.now())
	if err != nil {
		handleError(w, r, err)
		return
	}

	b.notify(r.Context(), core.ResourceProduct, core.OperationPatch, updated.ID.String(), updated)
	writeJSON(w, r, http.StatusOK, writeResult{Success: true, Data: updated})
}

func (b *Backend) deleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := b.readPayload(w, r, productSchemaID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	id, err := decodeID(p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err = b.store.DeleteProduct(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}

	b.notify(r.Context(), core.ResourceProduct, core.OperationDelete, id.String(), map[string]string{"id": id.String()})
	writeJSON(w, r, http.StatusOK, writeResult{Success: true, Message: "Product deleted successfully"})
}
