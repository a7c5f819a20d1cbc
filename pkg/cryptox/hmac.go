package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptyKey is returned when a MAC is requested with zero-length key
// material. Callers treat it as a fatal configuration error.
var ErrEmptyKey = errors.New("cryptox: empty hmac key")

// MAC is an HMAC-SHA256 keyed with a validated secret. It is safe for
// concurrent use; every call allocates its own hash state.
type MAC struct {
	key []byte
}

// NewMAC copies key and returns a MAC, or ErrEmptyKey.
func NewMAC(key []byte) (*MAC, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &MAC{key: k}, nil
}

// MustNewMAC is like NewMAC but panics on an empty key. Only use it with
// constant test keys.
func MustNewMAC(key []byte) *MAC {
	m, err := NewMAC(key)
	if err != nil {
		panic(err)
	}
	return m
}

// Sum returns the raw MAC bytes of msg.
func (m *MAC) Sum(msg []byte) []byte {
	h := hmac.New(sha256.New, m.key)
	h.Write(msg)
	return h.Sum(nil)
}

// Hex returns the lowercase hex MAC of msg.
func (m *MAC) Hex(msg []byte) string {
	return hex.EncodeToString(m.Sum(msg))
}

// Equal reports whether sig is the raw MAC of msg, in constant time.
func (m *MAC) Equal(msg, sig []byte) bool {
	return hmac.Equal(m.Sum(msg), sig)
}

// EqualHex reports whether sig is the hex MAC of msg. Comparison happens on
// the decoded bytes so upper-case hex from a client is still accepted.
func (m *MAC) EqualHex(msg []byte, sig string) bool {
	raw, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return m.Equal(msg, raw)
}

// HMACSum computes HMAC-SHA256(key, msg) as raw bytes.
func HMACSum(key, msg []byte) ([]byte, error) {
	m, err := NewMAC(key)
	if err != nil {
		return nil, err
	}
	return m.Sum(msg), nil
}

// HMACHex computes HMAC-SHA256(key, msg) as lowercase hex.
func HMACHex(key, msg []byte) (string, error) {
	m, err := NewMAC(key)
	if err != nil {
		return "", err
	}
	return m.Hex(msg), nil
}

// EqualHex compares two hex signatures in constant time.
func EqualHex(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
