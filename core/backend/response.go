package backend

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/logger"
	"github.com/sahnaf-tech/storefront/core/schema"
	"github.com/sahnaf-tech/storefront/core/store"
)

// apiError is the body of every error response
type apiError struct {
	Error   string   `json:"error"`
	Fields  []string `json:"fields,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}

// writeResult is the body of successful admin writes
type writeResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("Error 4801: marshal response")
		http.Error(w, `{"error":"Error 4801"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(jsonData)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body *apiError) {
	writeJSON(w, r, status, body)
}

// writeJSONWithEtag writes body with an ETag header, or http.StatusNotModified if
// the request already holds the current version
func writeJSONWithEtag(w http.ResponseWriter, r *http.Request, body interface{}) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("Error 4802: marshal response")
		http.Error(w, `{"error":"Error 4802"}`, http.StatusInternalServerError)
		return
	}
	etag := bytesToEtag(jsonData)
	w.Header().Set("Etag", etag)
	if ifNoneMatchFound(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(jsonData)
}

// handleError maps err to a status code and writes the error response.
// Validation errors become 400, unknown entities 404, everything else 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	rlog := logger.FromContext(r.Context())

	var verr *catalog.ValidationError
	var derr *schema.InvalidDocumentError
	switch {
	case errors.As(err, &verr):
		rlog.Infoln("rejected payload:", verr.Message)
		writeError(w, r, http.StatusBadRequest, &apiError{Error: verr.Message, Fields: verr.Fields, Allowed: verr.Allowed})
	case errors.As(err, &derr):
		rlog.Infoln("rejected payload:", derr.Error())
		writeError(w, r, http.StatusBadRequest, &apiError{Error: derr.Error(), Fields: derr.Fields()})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, &apiError{Error: "Not found"})
	case errors.Is(err, store.ErrInvalid):
		rlog.WithError(err).Infoln("store rejected value")
		writeError(w, r, http.StatusBadRequest, &apiError{Error: err.Error()})
	default:
		rlog.WithError(err).Errorln("Error 4803: store failure")
		writeError(w, r, http.StatusInternalServerError, &apiError{Error: err.Error()})
	}
}

// bytesToEtag returns a strong entity tag for data
func bytesToEtag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// ifNoneMatchFound returns true if etag is in the If-None-Match header value
func ifNoneMatchFound(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}
