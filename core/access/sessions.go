// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "storefront-session"
	// SessionMaxAge is the lifetime of a session in seconds (30 days)
	SessionMaxAge = 30 * 24 * 60 * 60

	sessionKeyEmail = "email"
)

// Sessions keeps the identity of signed-in users in a signed cookie
type Sessions struct {
	store sessions.Store
}

// NewSessions returns a cookie based session store. The secret signs the cookie.
// Secure restricts the cookie to https.
func NewSessions(secret string, secure bool) *Sessions {
	if len(secret) == 0 {
		panic("session secret is missing")
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// Identity returns the identity stored in the request's session cookie, or
// an empty string if there is no valid session
func (s *Sessions) Identity(r *http.Request) string {
	session, err := s.store.Get(r, SessionCookieName)
	if err != nil || session.IsNew {
		return ""
	}
	email, _ := session.Values[sessionKeyEmail].(string)
	return email
}

// SignIn stores identity in a new session cookie
func (s *Sessions) SignIn(w http.ResponseWriter, r *http.Request, identity string) error {
	// a broken or foreign cookie gives a fresh session and an error we do not care about
	session, _ := s.store.Get(r, SessionCookieName)
	session.Values[sessionKeyEmail] = identity
	return session.Save(r, w)
}

// SignOut expires the session cookie
func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, SessionCookieName)
	session.Options.MaxAge = -1
	delete(session.Values, sessionKeyEmail)
	return session.Save(r, w)
}
