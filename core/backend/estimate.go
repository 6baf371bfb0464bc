package backend

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
)

func (b *Backend) handleEstimate(router *mux.Router) {
	logger.Default().Debugln("solar estimate")
	logger.Default().Debugln("  handle route: /solar/estimate POST")

	router.HandleFunc("/solar/estimate", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		p, err := b.readPayload(w, r, estimateSchemaID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		load, err := decodeLoad(p)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, load.Estimate())
	}).Methods(http.MethodPost)
}

// decodeLoad reads the appliance counts. Absent and null counts are zero,
// counts above catalog.MaxApplianceCount are rejected.
func decodeLoad(p payload) (catalog.Load, error) {
	var load catalog.Load
	counts := map[string]*int{
		"fans":    &load.Fans,
		"tvs":     &load.TVs,
		"fridges": &load.Fridges,
		"bulbs":   &load.Bulbs,
		"laptops": &load.Laptops,
		"other":   &load.Other,
	}
	for key, count := range counts {
		f, err := decodeField[int](p, key)
		if err != nil {
			return load, err
		}
		if f.Present() {
			*count = *f.Value
		}
	}
	return load, load.Validate()
}
