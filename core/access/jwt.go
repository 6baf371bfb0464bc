package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"

	"github.com/sahnaf-tech/storefront/core/logger"
)

// ErrInvalidToken is returned for ID tokens which cannot be verified
var ErrInvalidToken = errors.New("invalid token")

// GoogleCertificatesURL is the download url for the public certificates of Google ID tokens
const GoogleCertificatesURL = "https://www.googleapis.com/oauth2/v1/certs"

// GoogleIssuers are the accepted issuers of Google ID tokens
var GoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// certificateRefresh is how long downloaded certificates are used before they are fetched again
const certificateRefresh = 6 * time.Hour

// TokenVerifier verifies an ID token and returns the e-mail address of its subject
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (email string, expires time.Time, err error)
}

// JwtVerifierBuilder is a helper builder for JwtVerifier
type JwtVerifierBuilder struct {
	// PublicKeyDownloadURL is the download url for public keys. For Google this is
	// GoogleCertificatesURL. The url must return a JSON object mapping key IDs
	// to PEM encoded certificates.
	PublicKeyDownloadURL string
	// Issuers are the accepted issuers for the token
	Issuers []string
	// Audience is the OAuth client ID the token must be issued for. This is mandatory.
	Audience string
	// HTTPClient is used to download the certificates. Optional, defaults to
	// a client with 10s timeout.
	HTTPClient *http.Client
}

// JwtVerifier verifies RS256 signed ID tokens against the downloaded public
// certificates of the identity provider
type JwtVerifier struct {
	url      string
	issuers  []string
	audience string
	client   *http.Client

	mutex   sync.Mutex
	keys    map[string]interface{}
	fetched time.Time
}

// NewJwtVerifier returns a new verifier. Certificates are downloaded with the
// first verification.
func NewJwtVerifier(jvb *JwtVerifierBuilder) *JwtVerifier {
	if jvb.Audience == "" {
		panic("Audience is missing")
	}
	url := jvb.PublicKeyDownloadURL
	if url == "" {
		url = GoogleCertificatesURL
	}
	issuers := jvb.Issuers
	if len(issuers) == 0 {
		issuers = GoogleIssuers
	}
	client := jvb.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JwtVerifier{
		url:      url,
		issuers:  issuers,
		audience: jvb.Audience,
		client:   client,
	}
}

// wellKnownKeys returns the public keys by key ID, downloading them if the
// cached set is older than certificateRefresh
func (v *JwtVerifier) wellKnownKeys(ctx context.Context) (map[string]interface{}, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.keys != nil && time.Since(v.fetched) < certificateRefresh {
		return v.keys, nil
	}
	rlog := logger.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return nil, err
	}
	res, err := v.client.Do(req)
	if err != nil {
		if v.keys != nil {
			rlog.WithError(err).Warnln("cannot refresh certificates, using cached keys")
			return v.keys, nil
		}
		return nil, fmt.Errorf("download certificates: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download certificates: status %d", res.StatusCode)
	}

	var wellKnownCertificates map[string]string
	if err := json.NewDecoder(res.Body).Decode(&wellKnownCertificates); err != nil {
		return nil, fmt.Errorf("decode certificates: %w", err)
	}
	keys := map[string]interface{}{}
	for kid, cert := range wellKnownCertificates {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cert))
		if err != nil {
			rlog.WithError(err).Warnln("certificate error for kid", kid)
			continue
		}
		keys[kid] = key
	}
	rlog.Debugf("downloaded %d certificates from %s", len(keys), v.url)
	v.keys = keys
	v.fetched = time.Now()
	return keys, nil
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// Verify implements TokenVerifier. It checks signature, expiry, issuer and
// audience, and requires a verified e-mail address.
func (v *JwtVerifier) Verify(ctx context.Context, tokenString string) (string, time.Time, error) {
	keys, err := v.wellKnownKeys(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	jwksLookup := func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			logger.FromContext(ctx).Warningf("have %d well known keys, but not kid '%s'", len(keys), kid)
			return nil, errors.New("cannot verify token")
		}
		return key, nil
	}

	claims := idTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, jwksLookup, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !token.Valid {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	issuerOK := false
	for _, issuer := range v.issuers {
		if claims.VerifyIssuer(issuer, true) {
			issuerOK = true
			break
		}
	}
	if !issuerOK {
		return "", time.Time{}, fmt.Errorf("%w: unexpected issuer '%s'", ErrInvalidToken, claims.Issuer)
	}
	if !claims.VerifyAudience(v.audience, true) {
		return "", time.Time{}, fmt.Errorf("%w: unexpected audience", ErrInvalidToken)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return "", time.Time{}, fmt.Errorf("%w: no verified email", ErrInvalidToken)
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return claims.Email, expires, nil
}
