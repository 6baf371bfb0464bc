package access

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	gate := NewGate(" owner@example.com,admin@example.com ,, ")
	assert.True(t, gate.IsAuthorized("owner@example.com"))
	assert.True(t, gate.IsAuthorized("admin@example.com"))
	assert.False(t, gate.IsAuthorized("Owner@example.com"), "comparison is case-sensitive")
	assert.False(t, gate.IsAuthorized("someone@example.com"))
	assert.False(t, gate.IsAuthorized(""))
	assert.False(t, gate.IsAuthorized(" owner@example.com"))
}

func TestGateFailsClosed(t *testing.T) {
	for _, list := range []string{"", " ", ",", " , "} {
		gate := NewGate(list)
		assert.False(t, gate.IsAuthorized("owner@example.com"))
		assert.False(t, gate.IsAuthorized(""))
	}
	var gate *Gate
	assert.False(t, gate.IsAuthorized("owner@example.com"))
	assert.False(t, gate.IsAdmin(ContextWithIdentity(context.Background(), "owner@example.com")))
}

func TestGateIsAdmin(t *testing.T) {
	gate := NewGate("owner@example.com")
	assert.False(t, gate.IsAdmin(context.Background()))
	assert.True(t, gate.IsAdmin(ContextWithIdentity(context.Background(), "owner@example.com")))
	assert.False(t, gate.IsAdmin(ContextWithIdentity(context.Background(), "guest@example.com")))
}

func TestIdentityCache(t *testing.T) {
	c := NewIdentityCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.Write("t1", "a@example.com", now.Add(time.Minute), now)

	identity, ok := c.Read("t1", now)
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", identity)

	_, ok = c.Read("t1", now.Add(time.Minute))
	assert.False(t, ok, "expired")
	_, ok = c.Read("t2", now)
	assert.False(t, ok)

	c.Write("t2", "b@example.com", now.Add(2*time.Hour), now.Add(time.Hour))
	assert.Len(t, c.cache, 1, "expired entries are dropped on write")
}

func TestBackdoor(t *testing.T) {
	b := ParseBackdoor("please=owner@example.com, broken, =x,guest=guest@example.com")
	assert.Len(t, b, 2)

	identity, _, err := b.Verify(context.Background(), "please")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", identity)

	_, _, err = b.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)

	vs := Verifiers{nil, Backdoor{"x": "x@example.com"}, b}
	identity, _, err = vs.Verify(context.Background(), "guest")
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", identity)
	_, _, err = vs.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// identityProvider serves a certificate for a freshly generated key and signs ID tokens with it
type identityProvider struct {
	key       *rsa.PrivateKey
	server    *httptest.Server
	downloads int32
}

func newIdentityProvider(t *testing.T) *identityProvider {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	ip := &identityProvider{key: key}
	ip.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&ip.downloads, 1)
		data, _ := json.Marshal(map[string]string{"k1": string(certPEM)})
		w.Write(data)
	}))
	t.Cleanup(ip.server.Close)
	return ip
}

func (ip *identityProvider) token(t *testing.T, kid string, claims idTokenClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(ip.key)
	require.NoError(t, err)
	return s
}

func (ip *identityProvider) verifier() *JwtVerifier {
	return NewJwtVerifier(&JwtVerifierBuilder{
		PublicKeyDownloadURL: ip.server.URL,
		Audience:             "client-id",
	})
}

func validClaims(email string) idTokenClaims {
	return idTokenClaims{
		Email:         email,
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Audience:  jwt.ClaimStrings{"client-id"},
			Subject:   "1234",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestJwtVerifier(t *testing.T) {
	ip := newIdentityProvider(t)
	v := ip.verifier()
	ctx := context.Background()

	email, expires, err := v.Verify(ctx, ip.token(t, "k1", validClaims("owner@example.com")))
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", email)
	assert.True(t, expires.After(time.Now()))

	claims := validClaims("owner@example.com")
	claims.Issuer = "accounts.google.com"
	_, _, err = v.Verify(ctx, ip.token(t, "k1", claims))
	assert.NoError(t, err)

	// certificates are downloaded once
	assert.Equal(t, int32(1), atomic.LoadInt32(&ip.downloads))

	invalid := map[string]idTokenClaims{}
	c := validClaims("owner@example.com")
	c.Issuer = "https://evil.example.com"
	invalid["issuer"] = c
	c = validClaims("owner@example.com")
	c.Audience = jwt.ClaimStrings{"other-client"}
	invalid["audience"] = c
	c = validClaims("owner@example.com")
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	invalid["expired"] = c
	c = validClaims("owner@example.com")
	c.EmailVerified = false
	invalid["unverified email"] = c
	for name, claims := range invalid {
		_, _, err := v.Verify(ctx, ip.token(t, "k1", claims))
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}

	_, _, err = v.Verify(ctx, ip.token(t, "unknown-kid", validClaims("owner@example.com")))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = v.Verify(ctx, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a token signed by somebody else
	other := newIdentityProvider(t)
	_, _, err = v.Verify(ctx, other.token(t, "k1", validClaims("owner@example.com")))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJwtVerifierDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	v := NewJwtVerifier(&JwtVerifierBuilder{PublicKeyDownloadURL: server.URL, Audience: "client-id"})
	_, _, err := v.Verify(context.Background(), "whatever")
	require.Error(t, err)
	assert.False(t, isInvalidToken(err))
}

// newTestRouter returns a router with identity middleware and auth routes
func newTestRouter(verifier TokenVerifier, gate *Gate, s *Sessions) *mux.Router {
	router := mux.NewRouter()
	router.Use(NewIdentityMiddleware(&IdentityMiddlewareBuilder{Verifier: verifier, Sessions: s}))
	HandleAuthRoutes(router, &AuthRoutesBuilder{Gate: gate, Verifier: verifier, Sessions: s})
	router.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(IdentityFromContext(r.Context())))
	})
	return router
}

func serve(router http.Handler, method, path, body string, modify func(r *http.Request)) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if modify != nil {
		modify(r)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestIdentityMiddleware(t *testing.T) {
	ip := newIdentityProvider(t)
	router := newTestRouter(ip.verifier(), NewGate("owner@example.com"), NewSessions("secret", false))

	w := serve(router, http.MethodGet, "/whoami", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", w.Body.String(), "anonymous passes through")

	token := ip.token(t, "k1", validClaims("guest@example.com"))
	for i := 0; i < 2; i++ {
		w = serve(router, http.MethodGet, "/whoami", "", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "guest@example.com", w.Body.String())
	}

	w = serve(router, http.MethodGet, "/whoami", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer garbage")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	// an identity in the context wins
	w = serve(router, http.MethodGet, "/whoami", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer garbage")
		*r = *r.WithContext(ContextWithIdentity(r.Context(), "inner@example.com"))
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inner@example.com", w.Body.String())
}

func TestIdentityMiddlewareWithoutVerifier(t *testing.T) {
	router := mux.NewRouter()
	router.Use(NewIdentityMiddleware(&IdentityMiddlewareBuilder{}))
	router.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {})
	w := serve(router, http.MethodGet, "/whoami", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer something")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignInFlow(t *testing.T) {
	ip := newIdentityProvider(t)
	router := newTestRouter(ip.verifier(), NewGate("owner@example.com"), NewSessions("secret", false))

	w := serve(router, http.MethodGet, "/auth/session", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(router, http.MethodPost, "/auth/signin", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPost, "/auth/signin", `{"idToken":"garbage"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	guest := ip.token(t, "k1", validClaims("guest@example.com"))
	w = serve(router, http.MethodPost, "/auth/signin", `{"idToken":"`+guest+`"}`, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"AccessDenied"}`, w.Body.String())
	assert.Empty(t, w.Result().Cookies())

	owner := ip.token(t, "k1", validClaims("owner@example.com"))
	w = serve(router, http.MethodPost, "/auth/signin", `{"idToken":"`+owner+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"owner@example.com","admin":true}`, w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, SessionMaxAge, cookie.MaxAge)

	w = serve(router, http.MethodGet, "/auth/session", "", func(r *http.Request) { r.AddCookie(cookie) })
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"owner@example.com","admin":true}`, w.Body.String())

	// a cookie signed with another secret is ignored
	other := newTestRouter(ip.verifier(), NewGate("owner@example.com"), NewSessions("other", false))
	w = serve(other, http.MethodGet, "/auth/session", "", func(r *http.Request) { r.AddCookie(cookie) })
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(router, http.MethodPost, "/auth/signout", "", func(r *http.Request) { r.AddCookie(cookie) })
	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)
}
