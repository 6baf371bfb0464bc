package backend

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
)

// handleShop adds the routes behind the shop page: the filtered product query
// and the shop directory
func (b *Backend) handleShop(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("shop")
	rlog.Debugln("  handle route: /shop/products GET")
	rlog.Debugln("  handle route: /shops GET")

	router.HandleFunc("/shop/products", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			handleError(w, r, err)
			return
		}
		products, err := b.store.ListProducts(r.Context(), catalog.CategoryAll)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSONWithEtag(w, r, filter.Apply(products))
	}).Methods(http.MethodGet)

	router.HandleFunc("/shops", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		writeJSON(w, r, http.StatusOK, catalog.Shops(b.now()))
	}).Methods(http.MethodGet)
}

// parseFilter reads a filter from the query parameters
//
//	q, category (repeatable or comma separated), minPrice, maxPrice, availability, sortBy
//
// The category "all" is the same as no category.
func parseFilter(query url.Values) (catalog.Filter, error) {
	filter := catalog.Filter{
		Search:       strings.TrimSpace(query.Get("q")),
		Availability: catalog.Availability(query.Get("availability")),
		SortBy:       catalog.SortOrder(query.Get("sortBy")),
	}
	for _, value := range query["category"] {
		for _, category := range strings.Split(value, ",") {
			category = strings.TrimSpace(category)
			if category == "" || category == catalog.CategoryAll {
				continue
			}
			filter.Categories = append(filter.Categories, category)
		}
	}

	bound := func(key string) (*catalog.Price, error) {
		value := strings.TrimSpace(query.Get(key))
		if value == "" {
			return nil, nil
		}
		price, err := catalog.NewPrice(value)
		if err != nil {
			return nil, &catalog.ValidationError{
				Message: "Invalid " + key + ": must be a number",
				Fields:  []string{key},
			}
		}
		return &price, nil
	}
	var err error
	if filter.PriceRange.Min, err = bound("minPrice"); err != nil {
		return filter, err
	}
	if filter.PriceRange.Max, err = bound("maxPrice"); err != nil {
		return filter, err
	}
	return filter, filter.Check()
}
