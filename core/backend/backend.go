package backend

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core"
	"github.com/sahnaf-tech/storefront/core/access"
	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
	"github.com/sahnaf-tech/storefront/core/schema"
	"github.com/sahnaf-tech/storefront/core/store"
)

// Backend is the storefront REST backend
type Backend struct {
	store           store.Store
	router          *mux.Router
	gate            *access.Gate
	validator       *schema.Validator
	notifier        core.Notifier
	gasDefaultPrice catalog.Price
	now             func() time.Time
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Store is the persistent store. This is mandatory.
	Store store.Store
	// Router is a mux router. All routes are added to it as they are. This is mandatory.
	Router *mux.Router
	// Gate decides who may call admin routes. This is mandatory.
	Gate *access.Gate
	// Validator validates request payloads. Optional, defaults to the built-in schemas.
	Validator *schema.Validator
	// Notifier receives a notification after every successful write. This is optional.
	Notifier core.Notifier
	// GasDefaultPrice is the price the gas price is seeded with. Optional,
	// defaults to catalog.DefaultGasPrice
	GasDefaultPrice *catalog.Price
	// Now returns the current time. Optional, defaults to time.Now
	Now func() time.Time
}

// New realizes the actual backend and adds all routes to the router
func New(bb *Builder) *Backend {
	if bb.Store == nil {
		panic("Store is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.Gate == nil {
		panic("Gate is missing")
	}

	validator := bb.Validator
	if validator == nil {
		var err error
		validator, err = DefaultValidator()
		if err != nil {
			panic(err)
		}
	}
	gasDefaultPrice := catalog.DefaultGasPrice
	if bb.GasDefaultPrice != nil {
		gasDefaultPrice = *bb.GasDefaultPrice
	}
	now := bb.Now
	if now == nil {
		now = time.Now
	}

	b := &Backend{
		store:           bb.Store,
		router:          bb.Router,
		gate:            bb.Gate,
		validator:       validator,
		notifier:        bb.Notifier,
		gasDefaultPrice: gasDefaultPrice,
		now:             func() time.Time { return now().UTC() },
	}

	b.handleCORS()
	b.handleCompression()
	b.handleRoutes(b.router)
	return b
}

// Router returns the router of the backend
func (b *Backend) Router() *mux.Router {
	return b.router
}

// DefaultValidator returns a validator for the built-in payload schemas
func DefaultValidator() (*schema.Validator, error) {
	schemas, err := fs.Sub(schemaFS, "schemas")
	if err != nil {
		return nil, err
	}
	return schema.NewValidatorFromFS(schemas)
}

// handleRoutes adds all routes of the storefront
func (b *Backend) handleRoutes(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("backend: HandleRoutes")

	b.handleProducts(router)
	b.handleSolarProjects(router)
	b.handleGasPrice(router)
	b.handleShop(router)
	b.handleEstimate(router)
	b.handleStatistics(router)
	b.handleVersion(router)

	// catch-all so that preflight requests reach the CORS middleware
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// authorize returns true if the requester passes the gate. Otherwise it
// writes http.StatusUnauthorized and returns false.
func (b *Backend) authorize(w http.ResponseWriter, r *http.Request) bool {
	if b.gate.IsAdmin(r.Context()) {
		return true
	}
	logger.FromContext(r.Context()).Infoln("not authorized:", r.Method, r.URL.Path)
	writeError(w, r, http.StatusUnauthorized, &apiError{Error: "Unauthorized"})
	return false
}
