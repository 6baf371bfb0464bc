package access

import (
	"context"
	"strings"
	"time"
)

// Backdoor is a TokenVerifier for a fixed set of magic bearer tokens.
//
// The key is the bearer token passed with the request, the value the identity
// it stands for. Example: with the backdoor
//
//   Backdoor{"please": "owner@example.com"}
//
// any request with the header 'Authorization: Bearer please' acts as
// owner@example.com. Whether that identity is an admin is still decided by
// the Gate.
//
// Backdoor tokens never expire. Use them for local development and tests only.
type Backdoor map[string]string

// Verify implements TokenVerifier
func (b Backdoor) Verify(ctx context.Context, token string) (string, time.Time, error) {
	if identity, ok := b[token]; ok && identity != "" {
		return identity, time.Time{}, nil
	}
	return "", time.Time{}, ErrInvalidToken
}

// ParseBackdoor parses a comma-separated list of token=identity pairs. Malformed
// entries are skipped.
func ParseBackdoor(s string) Backdoor {
	b := Backdoor{}
	for _, pair := range strings.Split(s, ",") {
		token, identity, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || token == "" || identity == "" {
			continue
		}
		b[token] = identity
	}
	return b
}

// Verifiers combines several token verifiers. The first one which accepts a
// token wins.
type Verifiers []TokenVerifier

// Verify implements TokenVerifier
func (vs Verifiers) Verify(ctx context.Context, token string) (string, time.Time, error) {
	err := ErrInvalidToken
	for _, v := range vs {
		if v == nil {
			continue
		}
		var identity string
		var expires time.Time
		identity, expires, err = v.Verify(ctx, token)
		if err == nil {
			return identity, expires, nil
		}
	}
	return "", time.Time{}, err
}
