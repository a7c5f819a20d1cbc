package jwtx

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeyResolver looks up a verification key by kid.
type KeyResolver interface {
	Key(ctx context.Context, kid string) (any, error)
}

// FederatedVerifier validates tokens issued by an external identity provider
// using asymmetric keys published at its discovery endpoint.
type FederatedVerifier struct {
	keys     KeyResolver
	issuer   string
	audience []string
	leeway   time.Duration
	now      func() time.Time
}

// NewFederatedVerifier builds a verifier. Empty issuer or audience disable
// the corresponding check.
func NewFederatedVerifier(keys KeyResolver, issuer string, audience []string) *FederatedVerifier {
	return &FederatedVerifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		leeway:   30 * time.Second,
		now:      time.Now,
	}
}

// WithClock returns a copy of v using now as its clock.
func (v *FederatedVerifier) WithClock(now func() time.Time) *FederatedVerifier {
	c := *v
	c.now = now
	return &c
}

// Verify reads the kid from the unverified header, resolves the public key,
// checks the signature over the header and payload segments and finally
// validates iss, aud, exp and nbf. A key lookup failure is returned as
// ErrKeyResolution and is not retried.
func (v *FederatedVerifier) Verify(ctx context.Context, token string) (FederatedIdentityClaims, error) {
	d, err := Decode(token)
	if err != nil {
		return FederatedIdentityClaims{}, err
	}
	if d.Header.Kid == "" {
		return FederatedIdentityClaims{}, fmt.Errorf("%w: token has no kid", ErrKeyResolution)
	}

	method, err := signingMethod(d.Header.Alg)
	if err != nil {
		return FederatedIdentityClaims{}, err
	}

	key, err := v.keys.Key(ctx, d.Header.Kid)
	if err != nil {
		return FederatedIdentityClaims{}, err
	}
	if !keyMatches(method, key) {
		return FederatedIdentityClaims{}, fmt.Errorf("%w: %s key for %T", ErrAlgMismatch, d.Header.Alg, key)
	}

	if err := method.Verify(string(d.SigningInput), d.Signature, key); err != nil {
		return FederatedIdentityClaims{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}

	var c FederatedIdentityClaims
	if err := d.Claims(&c); err != nil {
		return FederatedIdentityClaims{}, err
	}
	if err := validateRegistered(&c.RegisteredClaims, v.issuer, v.audience, v.now(), v.leeway); err != nil {
		return FederatedIdentityClaims{}, err
	}
	if err := c.Validate(); err != nil {
		return FederatedIdentityClaims{}, err
	}
	return c, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case jwt.SigningMethodRS256.Alg():
		return jwt.SigningMethodRS256, nil
	case jwt.SigningMethodES256.Alg():
		return jwt.SigningMethodES256, nil
	case jwt.SigningMethodEdDSA.Alg():
		return jwt.SigningMethodEdDSA, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAlgMismatch, alg)
	}
}

func keyMatches(m jwt.SigningMethod, key any) bool {
	switch m {
	case jwt.SigningMethodRS256:
		_, ok := key.(*rsa.PublicKey)
		return ok
	case jwt.SigningMethodES256:
		_, ok := key.(*ecdsa.PublicKey)
		return ok
	case jwt.SigningMethodEdDSA:
		_, ok := key.(ed25519.PublicKey)
		return ok
	}
	return false
}
