// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
)

// productStatistics represents information about the product catalog
type productStatistics struct {
	Count      int            `json:"count"`
	ByStock    map[string]int `json:"byStock"`
	ByCategory map[string]int `json:"byCategory"`
	ByShop     map[string]int `json:"byShop"`
}

// statisticsDetails represents information about the storefront resources
type statisticsDetails struct {
	Products      productStatistics `json:"products"`
	SolarProjects int               `json:"solarProjects"`
	GasPrice      *catalog.GasPrice `json:"gasPrice"`
}

func (b *Backend) handleStatistics(router *mux.Router) {
	logger.Default().Debugln("statistics")
	logger.Default().Debugln("  handle statistics route: /admin/statistics GET")
	router.HandleFunc("/admin/statistics", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if !b.authorize(w, r) {
			return
		}
		b.statistics(w, r)
	}).Methods(http.MethodGet)
}

func (b *Backend) statistics(w http.ResponseWriter, r *http.Request) {
	rlog := logger.FromContext(r.Context())

	products, err := b.store.ListProducts(r.Context(), catalog.CategoryAll)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4028: list products")
		handleError(w, r, err)
		return
	}
	projects, err := b.store.ListSolarProjects(r.Context(), "")
	if err != nil {
		rlog.WithError(err).Errorln("Error 4029: list solar projects")
		handleError(w, r, err)
		return
	}
	gasPrice, err := b.store.GetOrSeedGasPrice(r.Context(), b.gasDefaultPrice, b.now())
	if err != nil {
		rlog.WithError(err).Errorln("Error 4030: gas price")
		handleError(w, r, err)
		return
	}

	// every known key is present, so that empty buckets show up as 0
	s := statisticsDetails{
		Products: productStatistics{
			Count:      len(products),
			ByStock:    map[string]int{},
			ByCategory: map[string]int{},
			ByShop:     map[string]int{},
		},
		SolarProjects: len(projects),
		GasPrice:      gasPrice,
	}
	for _, stock := range catalog.StockStatuses {
		s.Products.ByStock[string(stock)] = 0
	}
	for _, category := range catalog.Categories {
		s.Products.ByCategory[category] = 0
	}
	for _, shop := range catalog.ShopLocations {
		s.Products.ByShop[string(shop)] = 0
	}
	for _, p := range products {
		s.Products.ByStock[string(p.Stock)]++
		s.Products.ByCategory[p.Category]++
		s.Products.ByShop[string(p.Shop)]++
	}

	// map keys are marshalled in sorted order, so the ETag only depends on the content
	writeJSONWithEtag(w, r, s)
}
