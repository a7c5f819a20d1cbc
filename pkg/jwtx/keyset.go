package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// KeySet maps kid to an identity provider's public verification key.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]any // *rsa.PublicKey | ed25519.PublicKey | *ecdsa.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// AddJWK parses j and registers it under its kid.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := publicKeyFromJWK(j)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = key
	return nil
}

// Get returns the public key for kid or ErrNoKey.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// Len returns the number of loaded keys.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub)
}

// ResetFromJWKS swaps in the signature keys of jwks. Unparseable or
// non-"sig" entries are skipped; it fails, keeping the old keys, only when
// nothing usable remains.
func (k *KeySet) ResetFromJWKS(jwks JWKS) (int, error) {
	next := make(map[string]any, len(jwks.Keys))
	var errs []error
	for _, j := range jwks.Keys {
		if j.Use != "" && j.Use != "sig" {
			continue
		}
		key, err := publicKeyFromJWK(j)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		next[j.Kid] = key
	}
	if len(next) == 0 {
		return 0, errors.Join(append([]error{errors.New("jwtx: no usable keys in set")}, errs...)...)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	return len(next), nil
}

func publicKeyFromJWK(j JWK) (any, error) {
	switch j.Kty {
	case "RSA":
		return rsaFromJWK(j)
	case "OKP":
		return ed25519FromJWK(j)
	case "EC":
		return ecdsaFromJWK(j)
	}
	return nil, fmt.Errorf("jwtx: unsupported kty %q", j.Kty)
}

func rsaFromJWK(j JWK) (*rsa.PublicKey, error) {
	n, err := b64Field("n", j.N)
	if err != nil {
		return nil, err
	}
	e, err := b64Field("e", j.E)
	if err != nil {
		return nil, err
	}
	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 3 {
		return nil, errors.New("jwtx: invalid RSA exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}

func ed25519FromJWK(j JWK) (ed25519.PublicKey, error) {
	if j.Crv != "Ed25519" {
		return nil, fmt.Errorf("jwtx: unsupported OKP curve %q", j.Crv)
	}
	x, err := b64Field("x", j.X)
	if err != nil {
		return nil, err
	}
	if len(x) != ed25519.PublicKeySize {
		return nil, errors.New("jwtx: invalid Ed25519 public key size")
	}
	return ed25519.PublicKey(x), nil
}

// Only P-256 is accepted, matching the ES256 verifier.
func ecdsaFromJWK(j JWK) (*ecdsa.PublicKey, error) {
	if j.Crv != "P-256" {
		return nil, fmt.Errorf("jwtx: unsupported EC curve %q", j.Crv)
	}
	x, err := b64Field("x", j.X)
	if err != nil {
		return nil, err
	}
	y, err := b64Field("y", j.Y)
	if err != nil {
		return nil, err
	}
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: new(big.Int).SetBytes(x), Y: new(big.Int).SetBytes(y)}
	if _, err := pub.ECDH(); err != nil {
		return nil, fmt.Errorf("jwtx: EC point: %w", err)
	}
	return pub, nil
}

func b64Field(name, v string) ([]byte, error) {
	if v == "" {
		return nil, fmt.Errorf("jwtx: jwk missing %q", name)
	}
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("jwtx: jwk field %q: %w", name, err)
	}
	return b, nil
}
