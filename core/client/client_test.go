package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahnaf-tech/storefront/core/access"
)

func echoRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Identity", access.IdentityFromContext(r.Context()))
		w.Header().Set("X-Custom", r.Header.Get("X-Custom"))
		w.Header().Set("X-Authorization", r.Header.Get("Authorization"))
		if len(body) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write(body)
	})
	router.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, http.StatusNotFound)
	})
	return router
}

func TestClientWithRouter(t *testing.T) {
	c := NewWithRouter(echoRouter())

	var result map[string]string
	status, err := c.RawPost("/echo", map[string]string{"a": "b"}, &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "b", result["a"])

	status, header, err := c.WithIdentity("owner@example.com").WithHeader("X-Custom", "1").
		Do(http.MethodGet, "/echo", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, "owner@example.com", header.Get("X-Identity"))
	assert.Equal(t, "1", header.Get("X-Custom"))

	// WithHeader does not leak into the original client
	_, header, err = c.Do(http.MethodGet, "/echo", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", header.Get("X-Custom"))
	assert.Equal(t, "", header.Get("X-Identity"))

	var raw []byte
	_, err = c.RawPut("/echo", []byte(`{"x":1}`), &raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(raw))

	status, err = c.RawDelete("/fail", map[string]string{"id": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	var clientErr *Error
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusNotFound, clientErr.Status)
	assert.Contains(t, clientErr.Body, "nope")
}

func TestClientWithURL(t *testing.T) {
	server := httptest.NewServer(echoRouter())
	defer server.Close()

	c := NewWithURL(server.URL + "/").WithToken("please")
	var result map[string]int
	status, err := c.RawPatch("/echo", map[string]int{"n": 3}, &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, result["n"])

	_, header, err := c.Do(http.MethodGet, "/echo", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer please", header.Get("X-Authorization"))
}
