/*Package access provides utilities for access control

The storefront knows exactly one role: admin. An identity is the e-mail
address of a person who signed in with the identity provider. The Gate
decides whether an identity is an admin by looking it up in a fixed
allow-list.

Identities are added to a request context with

  ctx = ContextWithIdentity(ctx, email)

and retrieved with

  email := IdentityFromContext(ctx)

The identity middleware adds them from a bearer ID token or from the
session cookie.
*/
package access

import (
	"context"
	"strings"
	"sync"
	"time"
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

// the predefined context key
const (
	contextKeyIdentity contextKey = "_identity_"
)

// Gate is the authorization gate for admin operations
type Gate struct {
	allowed map[string]struct{}
}

// NewGate returns a gate for a comma-separated list of admin e-mail addresses.
// Each entry is trimmed before it is added, so "a@x.com, b@x.com" admits
// b@x.com and never " b@x.com". Identities are not trimmed; the comparison is
// exact and case-sensitive. Empty entries are skipped and an empty list denies
// everybody.
func NewGate(adminEmails string) *Gate {
	g := &Gate{allowed: map[string]struct{}{}}
	for _, email := range strings.Split(adminEmails, ",") {
		email = strings.TrimSpace(email)
		if email != "" {
			g.allowed[email] = struct{}{}
		}
	}
	return g
}

// IsAuthorized returns true if email is on the allow-list. It is false for
// an empty email and for a nil gate.
func (g *Gate) IsAuthorized(email string) bool {
	if g == nil || email == "" {
		return false
	}
	_, ok := g.allowed[email]
	return ok
}

// IsAdmin returns true if the identity of ctx passes the gate
func (g *Gate) IsAdmin(ctx context.Context) bool {
	return g.IsAuthorized(IdentityFromContext(ctx))
}

// ContextWithIdentity returns a new context with the given identity added to it
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFromContext retrieves an identity from the context. It returns an
// empty string for anonymous requests.
func IdentityFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	identity, _ := ctx.Value(contextKeyIdentity).(string)
	return identity
}

type cachedIdentity struct {
	identity string
	expires  time.Time
}

// IdentityCache is an in-memory cache for verified ID tokens. It is used by
// the identity middleware so that the signature of a bearer token is checked
// only once during its lifetime.
type IdentityCache struct {
	mutex sync.RWMutex
	cache map[string]cachedIdentity
}

// NewIdentityCache creates a new identity cache
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{cache: make(map[string]cachedIdentity)}
}

// Read returns the identity for a token, if the token is known and not expired.
// This function is go-routine safe
func (c *IdentityCache) Read(token string, now time.Time) (string, bool) {
	c.mutex.RLock()
	entry, ok := c.cache[token]
	c.mutex.RUnlock()
	if !ok || !now.Before(entry.expires) {
		return "", false
	}
	return entry.identity, true
}

// Write stores the identity of a verified token until expires. Expired
// entries are dropped on the way.
// This function is go-routine safe
func (c *IdentityCache) Write(token, identity string, expires time.Time, now time.Time) {
	c.mutex.Lock()
	for t, entry := range c.cache {
		if !now.Before(entry.expires) {
			delete(c.cache, t)
		}
	}
	c.cache[token] = cachedIdentity{identity: identity, expires: expires}
	c.mutex.Unlock()
}
