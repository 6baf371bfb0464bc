package backend

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core"
	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
)

// handleGasPrice adds the routes of the gas price singleton. Reading it seeds
// the singleton with the default price if it does not exist yet.
func (b *Backend) handleGasPrice(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("gas price")
	rlog.Debugln("  handle route: /gas-price GET")
	rlog.Debugln("  handle route: /gas-price PATCH")

	router.HandleFunc("/gas-price", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		gasPrice, err := b.store.GetOrSeedGasPrice(r.Context(), b.gasDefaultPrice, b.now())
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSONWithEtag(w, r, gasPrice)
	}).Methods(http.MethodGet)

	router.HandleFunc("/gas-price", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.setGasPrice(w, r)
	}).Methods(http.MethodPatch)
}

func (b *Backend) setGasPrice(w http.ResponseWriter, r *http.Request) {
	p, err := b.readPayload(w, r, gasPriceSchemaID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	price, err := decodeField[catalog.Price](p, "price")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !price.Present() {
		handleError(w, r, catalog.MissingFieldsError("price"))
		return
	}
	if err = price.Value.Validate("price"); err != nil {
		handleError(w, r, err)
		return
	}

	updated, err := b.store.SetGasPrice(r.Context(), *price.Value, b.now())
	if err != nil {
		handleError(w, r, err)
		return
	}

	b.notify(r.Context(), core.ResourceGasPrice, core.OperationPatch, strconv.Itoa(updated.ID), updated)
	writeJSON(w, r, http.StatusOK, updated)
}
