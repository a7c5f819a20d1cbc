// Package signedurl issues and checks self-verifying resource URLs. A URL
// carries an object id, an expiry and HMAC-SHA256(secret, id + "-" + exp),
// so access can be granted without a database lookup.
package signedurl

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
)

const (
	QuerySignature = "hmac_token"
	QueryExpiry    = "token_exp"
)

var (
	ErrInvalidSignature = errors.New("signedurl: invalid signature")
	ErrLinkExpired      = errors.New("signedurl: link expired")
	ErrInvalidObject    = errors.New("signedurl: empty object id")
	ErrInvalidTTL       = errors.New("signedurl: ttl must be positive")
)

// Options configures a Signer.
type Options struct {
	// BaseURL is the public origin, e.g. "https://scontent.example.com".
	BaseURL string
	// PathPrefix is joined after BaseURL, e.g. "v1/images".
	PathPrefix string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Signer is bound to one trust domain's secret. Use a separate Signer per
// domain; secrets are never shared.
type Signer struct {
	mac    *cryptox.MAC
	base   string
	prefix string
	now    func() time.Time
}

// New validates secret and returns a Signer. An empty secret is a fatal
// configuration error.
func New(secret []byte, opts Options) (*Signer, error) {
	mac, err := cryptox.NewMAC(secret)
	if err != nil {
		return nil, fmt.Errorf("signedurl: %w", err)
	}
	if opts.BaseURL != "" {
		if _, err := url.Parse(opts.BaseURL); err != nil {
			return nil, fmt.Errorf("signedurl: base url: %w", err)
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Signer{
		mac:    mac,
		base:   strings.TrimRight(opts.BaseURL, "/"),
		prefix: strings.Trim(opts.PathPrefix, "/"),
		now:    opts.Now,
	}, nil
}

// SignedURL is a ready to serve link.
type SignedURL struct {
	URL       string `json:"url"`
	ObjectID  string `json:"-"`
	ExpiresAt int64  `json:"expires_at"`
	Signature string `json:"-"`
}

// Params is the (object, expiry, signature) triple carried by a URL.
type Params struct {
	ObjectID  string
	ExpiresAt int64
	Signature string
}

// Signature returns the hex signature for objectID at expiresAt. It is
// deterministic for fixed inputs.
func (s *Signer) Signature(objectID string, expiresAt int64) string {
	return s.mac.Hex(tokenData(objectID, expiresAt))
}

// Sign produces a query-form URL for objectID valid for ttl:
// <base>/<prefix>/<objectID>?hmac_token=<hex>&token_exp=<unix>.
func (s *Signer) Sign(objectID string, ttl time.Duration) (SignedURL, error) {
	return s.SignResource(url.PathEscape(objectID), objectID, ttl)
}

// SignResource is like Sign but lets the caller pick the path under the
// prefix, for resources addressed by more than their id (e.g.
// "<account>/<id>"). Only objectID is covered by the signature.
func (s *Signer) SignResource(resourcePath, objectID string, ttl time.Duration) (SignedURL, error) {
	exp, err := s.expiry(objectID, ttl)
	if err != nil {
		return SignedURL{}, err
	}
	sig := s.Signature(objectID, exp)

	q := url.Values{}
	q.Set(QuerySignature, sig)
	q.Set(QueryExpiry, strconv.FormatInt(exp, 10))

	return SignedURL{
		URL:       s.join(resourcePath) + "?" + q.Encode(),
		ObjectID:  objectID,
		ExpiresAt: exp,
		Signature: sig,
	}, nil
}

// SignPath produces the path-embedded form used for playlists, where
// relative segment URLs must inherit the credentials:
// <base>/<prefix>/<exp>/<sig>/<objectID>/<file>.
func (s *Signer) SignPath(objectID, file string, ttl time.Duration) (SignedURL, error) {
	exp, err := s.expiry(objectID, ttl)
	if err != nil {
		return SignedURL{}, err
	}
	sig := s.Signature(objectID, exp)

	p := strings.Join([]string{
		strconv.FormatInt(exp, 10),
		sig,
		url.PathEscape(objectID),
		url.PathEscape(file),
	}, "/")

	return SignedURL{
		URL:       s.join(p),
		ObjectID:  objectID,
		ExpiresAt: exp,
		Signature: sig,
	}, nil
}

// Verify checks the signature first, then expiry. A link is expired once
// now is strictly after expiresAt.
func (s *Signer) Verify(objectID string, expiresAt int64, signature string) error {
	if objectID == "" || signature == "" {
		return ErrInvalidSignature
	}
	if !s.mac.EqualHex(tokenData(objectID, expiresAt), signature) {
		return ErrInvalidSignature
	}
	if s.now().Unix() > expiresAt {
		return fmt.Errorf("%w at %s", ErrLinkExpired, time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
	}
	return nil
}

// VerifyParams is Verify over a parsed triple.
func (s *Signer) VerifyParams(p Params) error {
	return s.Verify(p.ObjectID, p.ExpiresAt, p.Signature)
}

// ParseQuery reads hmac_token and token_exp for objectID. A missing or
// non-numeric expiry is reported as ErrInvalidSignature.
func ParseQuery(objectID string, q url.Values) (Params, error) {
	sig := q.Get(QuerySignature)
	raw := q.Get(QueryExpiry)
	if sig == "" || raw == "" {
		return Params{}, ErrInvalidSignature
	}
	exp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Params{}, ErrInvalidSignature
	}
	return Params{ObjectID: objectID, ExpiresAt: exp, Signature: sig}, nil
}

// ParsePath reads "<exp>/<sig>/<objectID>/<file>" from the portion of a
// request path after the signer's prefix and returns the triple plus the
// trailing file name.
func ParsePath(p string) (Params, string, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 4 {
		return Params{}, "", ErrInvalidSignature
	}
	exp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Params{}, "", ErrInvalidSignature
	}
	id, err := url.PathUnescape(parts[2])
	if err != nil {
		return Params{}, "", ErrInvalidSignature
	}
	file, err := url.PathUnescape(parts[3])
	if err != nil || file == "" {
		return Params{}, "", ErrInvalidSignature
	}
	return Params{ObjectID: id, ExpiresAt: exp, Signature: parts[1]}, file, nil
}

func (s *Signer) expiry(objectID string, ttl time.Duration) (int64, error) {
	if objectID == "" {
		return 0, ErrInvalidObject
	}
	if ttl <= 0 {
		return 0, ErrInvalidTTL
	}
	return s.now().Add(ttl).Unix(), nil
}

func (s *Signer) join(p string) string {
	var b strings.Builder
	b.WriteString(s.base)
	if s.prefix != "" {
		b.WriteByte('/')
		b.WriteString(s.prefix)
	}
	b.WriteByte('/')
	b.WriteString(p)
	return b.String()
}

func tokenData(objectID string, expiresAt int64) []byte {
	return []byte(objectID + "-" + strconv.FormatInt(expiresAt, 10))
}
