package access

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/sahnaf-tech/storefront/core/logger"
)

// AuthRoutesBuilder is a helper builder for HandleAuthRoutes
type AuthRoutesBuilder struct {
	// Gate decides who may sign in. This is mandatory.
	Gate *Gate
	// Verifier verifies the ID token posted to /auth/signin. This is mandatory.
	Verifier TokenVerifier
	// Sessions stores the identity after sign-in. This is mandatory.
	Sessions *Sessions
}

// SignInRequest is the body of /auth/signin
type SignInRequest struct {
	IDToken string `json:"idToken"`
}

// SessionResponse describes the identity of the current session
type SessionResponse struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

// HandleAuthRoutes adds the routes
//
//   /auth/signin POST
//   /auth/signout POST
//   /auth/session GET
//
// Only identities which pass the gate can sign in; everybody else gets
// http.StatusForbidden with error "AccessDenied".
func HandleAuthRoutes(router *mux.Router, arb *AuthRoutesBuilder) {
	if arb.Gate == nil {
		panic("Gate is missing")
	}
	if arb.Verifier == nil {
		panic("Verifier is missing")
	}
	if arb.Sessions == nil {
		panic("Sessions is missing")
	}
	rlog := logger.Default()
	rlog.Debugln("auth")
	rlog.Debugln("  handle route: /auth/signin POST")
	rlog.Debugln("  handle route: /auth/signout POST")
	rlog.Debugln("  handle route: /auth/session GET")

	router.HandleFunc("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Infoln("called route for", r.URL, r.Method)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64*1024))
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read body")
			return
		}
		var req SignInRequest
		if err := json.Unmarshal(body, &req); err != nil || req.IDToken == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields: idToken")
			return
		}

		identity, _, err := arb.Verifier.Verify(r.Context(), req.IDToken)
		if err != nil {
			if isInvalidToken(err) {
				rlog.WithError(err).Infoln("sign-in with invalid token")
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			rlog.WithError(err).Errorln("Error 4101: cannot verify token")
			writeError(w, http.StatusInternalServerError, "cannot verify token")
			return
		}
		if !arb.Gate.IsAuthorized(identity) {
			rlog.Warnln("sign-in denied for", identity)
			writeError(w, http.StatusForbidden, "AccessDenied")
			return
		}
		if err := arb.Sessions.SignIn(w, r, identity); err != nil {
			rlog.WithError(err).Errorln("Error 4102: cannot save session")
			writeError(w, http.StatusInternalServerError, "cannot save session")
			return
		}
		rlog.Infoln("signed in", identity)
		writeJSON(w, http.StatusOK, SessionResponse{Email: identity, Admin: true})
	}).Methods(http.MethodPost)

	router.HandleFunc("/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		if err := arb.Sessions.SignOut(w, r); err != nil {
			logger.FromContext(r.Context()).WithError(err).Errorln("Error 4103: cannot expire session")
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)

	router.HandleFunc("/auth/session", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		identity := IdentityFromContext(r.Context())
		if identity == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, SessionResponse{Email: identity, Admin: arb.Gate.IsAuthorized(identity)})
	}).Methods(http.MethodGet)
}
