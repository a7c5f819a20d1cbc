package cryptox

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// GenerateSigningKey creates a fresh asymmetric key for the given JWS
// algorithm ("RS256", "ES256" or "EdDSA"). Federated identity providers own
// their keys; this exists for local identity-provider stubs and tests.
func GenerateSigningKey(alg string) (crypto.Signer, error) {
	switch alg {
	case "RS256":
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("cryptox: generate RSA key: %w", err)
		}
		return k, nil
	case "ES256":
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("cryptox: generate ECDSA key: %w", err)
		}
		return k, nil
	case "EdDSA":
		_, k, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("cryptox: generate Ed25519 key: %w", err)
		}
		return k, nil
	default:
		return nil, fmt.Errorf("cryptox: unsupported algorithm %q", alg)
	}
}
