package jwtx

import (
	"bytes"
	"fmt"
	"time"

	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// AlgHS256 is the only alg an HS256 verifier accepts.
const AlgHS256 = "HS256"

// HS256Options configures a symmetric issuer/verifier.
type HS256Options struct {
	// Issuer is written into iss on issue and enforced on verify when set.
	Issuer string

	// Audience values a verified token must contain. Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// KeyID is written into the header kid. Optional.
	KeyID string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// HS256 issues and verifies tokens signed with HMAC-SHA256 under a single
// trust-domain secret.
type HS256 struct {
	secret []byte
	opts   HS256Options
}

// Token is an issued token together with the claims it carries. It marshals
// to {"jwt": "...", "payload": {...}}.
type Token struct {
	JWT       string    `json:"jwt"`
	Payload   any       `json:"payload"`
	ExpiresAt time.Time `json:"-"`
}

// NewHS256 validates secret and returns an HS256. An empty secret is a
// configuration error and fails with cryptox.ErrEmptyKey.
func NewHS256(secret []byte, opts HS256Options) (*HS256, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwtx: hs256: %w", cryptox.ErrEmptyKey)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HS256{secret: bytes.Clone(secret), opts: opts}, nil
}

// Issuer returns the configured iss value.
func (h *HS256) Issuer() string { return h.opts.Issuer }

// Issue stamps iss, iat, nbf, exp and jti onto claims and signs them. The
// passed claims are modified in place so the caller can echo them back.
func (h *HS256) Issue(claims Issuable, ttl time.Duration) (Token, error) {
	if ttl <= 0 {
		return Token{}, fmt.Errorf("jwtx: ttl must be positive, got %s", ttl)
	}
	if err := claims.Validate(); err != nil {
		return Token{}, err
	}

	now := h.opts.Now().UTC().Truncate(time.Second)
	c := claims.base()
	if c.Issuer == "" {
		c.Issuer = h.opts.Issuer
	}
	c.IssuedAt = jwt.NewNumericDate(now)
	c.NotBefore = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if c.ID == "" {
		c.ID = NewJTI()
	}

	raw, err := Encode(Header{Alg: AlgHS256, Typ: "JWT", Kid: h.opts.KeyID}, claims, h.sign)
	if err != nil {
		return Token{}, err
	}
	return Token{JWT: raw, Payload: claims, ExpiresAt: c.ExpiresAt.Time}, nil
}

// IssuePair issues an access and a refresh token from one identity event.
// Both carry the same subject, scope and audience and differ only in their
// category and lifetime.
func (h *HS256) IssuePair(
	subject, scope string,
	audience []string,
	props map[string]any,
	accessTTL, refreshTTL time.Duration,
) (access, refresh Token, err error) {
	access, err = h.Issue(NewAccessClaims(subject, scope, audience, props), accessTTL)
	if err != nil {
		return Token{}, Token{}, err
	}
	refresh, err = h.Issue(NewRefreshClaims(subject, scope, audience), refreshTTL)
	if err != nil {
		return Token{}, Token{}, err
	}
	return access, refresh, nil
}

func (h *HS256) sign(input []byte) ([]byte, error) {
	return jwt.SigningMethodHS256.Sign(string(input), h.secret)
}

// Verify reports whether token carries a valid signature under this secret
// and is live. It never panics and collapses every failure to false.
func (h *HS256) Verify(token string) bool {
	_, err := h.Check(token)
	return err == nil
}

// Check verifies signature, issuer, audience and expiry and returns the
// common claims. Errors are drawn from this package's sentinels.
func (h *HS256) Check(token string) (Claims, error) {
	var c Claims
	if err := h.check(token, &c, &c.RegisteredClaims); err != nil {
		return Claims{}, err
	}
	return c, nil
}

// VerifyAccess accepts only live access tokens. A valid refresh token fails
// with ErrRefreshTokenMisuse.
func (h *HS256) VerifyAccess(token string) (AccessClaims, error) {
	var c AccessClaims
	if err := h.check(token, &c, &c.RegisteredClaims); err != nil {
		return AccessClaims{}, err
	}
	if err := c.Validate(); err != nil {
		return AccessClaims{}, err
	}
	return c, nil
}

// VerifyRefresh accepts only live refresh tokens.
func (h *HS256) VerifyRefresh(token string) (RefreshClaims, error) {
	var c RefreshClaims
	if err := h.check(token, &c, &c.RegisteredClaims); err != nil {
		return RefreshClaims{}, err
	}
	if err := c.Validate(); err != nil {
		return RefreshClaims{}, err
	}
	return c, nil
}

// VerifyService accepts only live service tokens.
func (h *HS256) VerifyService(token string) (ServiceClaims, error) {
	var c ServiceClaims
	if err := h.check(token, &c, &c.RegisteredClaims); err != nil {
		return ServiceClaims{}, err
	}
	if err := c.Validate(); err != nil {
		return ServiceClaims{}, err
	}
	return c, nil
}

func (h *HS256) check(token string, into any, rc *jwt.RegisteredClaims) error {
	d, err := Decode(token)
	if err != nil {
		return err
	}
	if d.Header.Alg != AlgHS256 {
		return fmt.Errorf("%w: %q", ErrAlgMismatch, d.Header.Alg)
	}
	// Constant-time HMAC comparison.
	if err := jwt.SigningMethodHS256.Verify(string(d.SigningInput), d.Signature, h.secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	if err := d.Claims(into); err != nil {
		return err
	}
	return validateRegistered(rc, h.opts.Issuer, h.opts.Audience, h.opts.Now(), h.opts.Leeway)
}
