package jwtx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Header is the JOSE header of a compact token.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ,omitempty"`
	Kid string `json:"kid,omitempty"`
}

func (h Header) jose() map[string]any {
	m := map[string]any{"alg": h.Alg}
	if h.Typ != "" {
		m["typ"] = h.Typ
	}
	if h.Kid != "" {
		m["kid"] = h.Kid
	}
	return m
}

func headerFromJOSE(m map[string]any) (Header, error) {
	var h Header
	for name, dst := range map[string]*string{"alg": &h.Alg, "typ": &h.Typ, "kid": &h.Kid} {
		v, ok := m[name]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return Header{}, fmt.Errorf("%w: header %s is %T", ErrMalformed, name, v)
		}
		*dst = s
	}
	return h, nil
}

// SignFunc signs the "<header>.<payload>" signing input and returns raw
// signature bytes.
type SignFunc func(signingInput []byte) ([]byte, error)

// Decoded is a token split into its parts. Nothing in it has been verified.
type Decoded struct {
	Header       Header
	Payload      json.RawMessage
	Signature    []byte
	SigningInput []byte
}

// payload lets any JSON value ride in a jwt.Token. The embedded
// RegisteredClaims only satisfies jwt.Claims; it is never populated, and
// claim validation happens in this package.
type payload struct {
	jwt.RegisteredClaims
	value any
	raw   json.RawMessage
}

func (p *payload) MarshalJSON() ([]byte, error) { return json.Marshal(p.value) }

func (p *payload) UnmarshalJSON(b []byte) error {
	if !isObject(b) || !json.Valid(b) {
		return errors.New("payload is not a JSON object")
	}
	p.raw = append(json.RawMessage(nil), b...)
	return nil
}

// strict rejects non-canonical base64url so that every encoded signature
// maps to exactly one byte string.
var strict = jwt.NewParser(jwt.WithStrictDecoding())

// Encode serialises header and payload as base64url JSON segments, signs the
// joined segments with sign and returns the three-part compact form.
func Encode(h Header, claims any, sign SignFunc) (string, error) {
	t := &jwt.Token{Header: h.jose(), Claims: &payload{value: claims}}
	input, err := t.SigningString()
	if err != nil {
		return "", fmt.Errorf("jwtx: encode: %w", err)
	}

	sig, err := sign([]byte(input))
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return input + "." + t.EncodeSegment(sig), nil
}

// Decode splits a compact token and decodes its segments. It fails with
// ErrMalformed unless there are exactly three segments, header and payload
// are JSON objects and the signature is canonical base64url. The signature
// is never checked here.
func Decode(token string) (Decoded, error) {
	var p payload
	t, parts, err := strict.ParseUnverified(token, &p)
	// An alg golang-jwt does not know is still a well-formed token; the
	// verifier decides whether to accept it.
	if err != nil && !(errors.Is(err, jwt.ErrTokenUnverifiable) && t != nil) {
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if t.Header == nil || p.raw == nil {
		return Decoded{}, fmt.Errorf("%w: header and payload must be JSON objects", ErrMalformed)
	}

	h, err := headerFromJOSE(t.Header)
	if err != nil {
		return Decoded{}, err
	}

	sig, err := strict.DecodeSegment(parts[2])
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: signature encoding", ErrMalformed)
	}

	return Decoded{
		Header:       h,
		Payload:      p.raw,
		Signature:    sig,
		SigningInput: []byte(parts[0] + "." + parts[1]),
	}, nil
}

// Claims unmarshals the payload into into.
func (d Decoded) Claims(into any) error {
	if err := json.Unmarshal(d.Payload, into); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// DecodeClaims reads the payload of token into into without verifying the
// signature. Use it after verification, or to inspect routing hints such as
// the issuer before choosing a verifier.
func DecodeClaims(token string, into any) error {
	d, err := Decode(token)
	if err != nil {
		return err
	}
	return d.Claims(into)
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 1 && b[0] == '{' && b[len(b)-1] == '}'
}
