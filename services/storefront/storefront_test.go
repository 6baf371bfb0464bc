package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahnaf-tech/storefront/core/access"
	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/store"
)

func TestLoadService(t *testing.T) {
	for _, key := range []string{"POSTGRES", "MONGO_URI", "PORT", "LOG_LEVEL", "POSTGRES_SCHEMA", "GAS_DEFAULT_PRICE", "SESSION_SECURE_COOKIE"} {
		t.Setenv(key, "")
	}
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("STORE", "memory")

	service, err := loadService()
	require.NoError(t, err)
	assert.Equal(t, 3000, service.Port)
	assert.Equal(t, "storefront", service.PostgresSchema)
	assert.Equal(t, "1300.00", service.GasDefaultPrice)
	assert.Equal(t, "info", service.LogLevel)
	assert.True(t, service.SecureCookie)

	t.Setenv("STORE", "postgres")
	_, err = loadService()
	assert.ErrorContains(t, err, "POSTGRES")

	t.Setenv("STORE", "mongo")
	_, err = loadService()
	assert.ErrorContains(t, err, "MONGO_URI")

	t.Setenv("STORE", "sqlite")
	_, err = loadService()
	assert.Error(t, err)

	t.Setenv("STORE", "memory")
	t.Setenv("GAS_DEFAULT_PRICE", "cheap")
	_, err = loadService()
	assert.ErrorContains(t, err, "GAS_DEFAULT_PRICE")
}

func TestNotifierIsOptional(t *testing.T) {
	s := &Service{KafkaBrokers: " , "}
	assert.Nil(t, s.notifier())

	s = &Service{KafkaBrokers: "localhost:9092", KafkaTopic: "catalog"}
	n := s.notifier()
	require.NotNil(t, n)
	assert.NoError(t, n.Close())
}

func newTestRouter(t *testing.T) http.Handler {
	s := &Service{
		AdminEmails:     "owner@example.com",
		SessionSecret:   "0123456789abcdef0123456789abcdef",
		Backdoor:        "owner-token=owner@example.com,guest-token=guest@example.com",
		GasDefaultPrice: "1300.00",
	}
	return s.newRouter(store.NewMemory(), nil)
}

func serve(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, http.MethodGet, "/api/gas-price", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	var gasPrice catalog.GasPrice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gasPrice))
	assert.Equal(t, "1300.00", gasPrice.Price.String())

	product := `{"name":"Cable","price":500,"category":"Cables","shop":"Randa","stock":"in-stock","image":"https://img.example/cable.png"}`
	w = serve(router, http.MethodPost, "/api/products", "", product)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(router, http.MethodPost, "/api/products", "guest-token", product)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(router, http.MethodPost, "/api/products", "forged", product)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), "rejected tokens are readable by browsers")
	w = serve(router, http.MethodPost, "/api/products", "owner-token", product)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(router, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var products []catalog.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, catalog.ShopRanda, products[0].Shop)

	w = serve(router, http.MethodGet, "/api/auth/session", "owner-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	var session access.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "owner@example.com", session.Email)
	assert.True(t, session.Admin)

	w = serve(router, http.MethodPost, "/api/auth/signin", "", `{"idToken":"guest-token"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(router, http.MethodOptions, "/api/products", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
