package access

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core/logger"
)

// IdentityMiddlewareBuilder is a helper builder for the identity middleware
type IdentityMiddlewareBuilder struct {
	// Verifier verifies bearer ID tokens. Optional, without verifier every
	// bearer token is rejected.
	Verifier TokenVerifier
	// Sessions reads the session cookie. Optional.
	Sessions *Sessions
	// Now returns the current time. Optional, defaults to time.Now
	Now func() time.Time
}

// NewIdentityMiddleware returns a middleware handler which puts the identity
// of the requester into the request context.
//
// ID tokens are accepted as "Authorization: Bearer" header. Without a bearer
// token the session cookie is used. Requests without either pass through
// anonymously, so public routes keep working.
//
// This is a final handler with regards to the bearer token. It will return
// http.StatusUnauthorized when a token is present but cannot be verified.
func NewIdentityMiddleware(imb *IdentityMiddlewareBuilder) mux.MiddlewareFunc {
	now := imb.Now
	if now == nil {
		now = time.Now
	}
	cache := NewIdentityCache()

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if len(IdentityFromContext(ctx)) > 0 { // already authenticated?
				h.ServeHTTP(w, r)
				return
			}
			rlog := logger.FromContext(ctx)

			identity := ""
			tokenString := ""
			bearer := r.Header.Get("Authorization")
			if len(bearer) >= 8 && strings.ToLower(bearer[:7]) == "bearer " {
				tokenString = strings.TrimSpace(bearer[7:])
			}
			if len(tokenString) > 0 && tokenString != "null" {
				var ok bool
				identity, ok = cache.Read(tokenString, now())
				if !ok {
					var expires time.Time
					var err error
					if imb.Verifier == nil {
						err = ErrInvalidToken
					} else {
						identity, expires, err = imb.Verifier.Verify(ctx, tokenString)
					}
					if err != nil {
						rlog.WithError(err).Infoln("rejected bearer token")
						writeError(w, http.StatusUnauthorized, "Unauthorized")
						return
					}
					cache.Write(tokenString, identity, expires, now())
				}
			} else if imb.Sessions != nil {
				identity = imb.Sessions.Identity(r)
			}

			if len(identity) == 0 {
				h.ServeHTTP(w, r) // no token no identity, moving on
				return
			}

			ctx = ContextWithIdentity(ctx, identity)
			ctx, _ = logger.ContextWithLoggerIdentity(ctx, identity)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// isInvalidToken reports whether err stems from token verification rather than infrastructure
func isInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
