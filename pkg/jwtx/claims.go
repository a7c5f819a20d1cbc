package jwtx

import (
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/mediagate/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes for tokens issued at login.
const (
	DefaultAccessTokenTTL  = 2 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultServiceTokenTTL = time.Hour
)

// TokenType tags the category of a first-party token.
type TokenType string

const (
	TypeAccess  TokenType = "USER_ACCESS_TOKEN"
	TypeRefresh TokenType = "USER_REFRESH_TOKEN"
	TypeService TokenType = "SERVICE_TOKEN"
)

// Claims is the payload shared by every first-party token. Categories wrap it
// in their own type so a refresh token can never be passed where an access
// token is expected without an explicit conversion.
type Claims struct {
	jwt.RegisteredClaims

	Type TokenType `json:"type"`

	// Space-delimited capability list, e.g. "read:photos write:photos".
	Scope string `json:"scope,omitempty"`

	Props map[string]any `json:"props,omitempty"`

	// Refresh is true only on refresh tokens.
	Refresh bool `json:"refresh,omitempty"`
}

func (c *Claims) base() *Claims { return c }

// Scopes splits Scope on whitespace.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// AccessClaims authorise API calls.
type AccessClaims struct{ Claims }

// RefreshClaims are only accepted by the refresh endpoint.
type RefreshClaims struct{ Claims }

// ServiceClaims are issued to a downstream application after a federated
// identity token has been exchanged.
type ServiceClaims struct{ Claims }

// Issuable is implemented by every first-party claims category.
type Issuable interface {
	base() *Claims
	Validate() error
}

// NewAccessClaims builds access claims for subject. Times, issuer and jti
// are filled in by the issuer.
func NewAccessClaims(subject, scope string, audience []string, props map[string]any) *AccessClaims {
	return &AccessClaims{Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Audience: jwt.ClaimStrings(audience),
		},
		Type:  TypeAccess,
		Scope: scope,
		Props: props,
	}}
}

// NewRefreshClaims builds refresh claims carrying the scope the next access
// token will be issued with.
func NewRefreshClaims(subject, scope string, audience []string) *RefreshClaims {
	return &RefreshClaims{Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Audience: jwt.ClaimStrings(audience),
		},
		Type:    TypeRefresh,
		Scope:   scope,
		Refresh: true,
	}}
}

// NewServiceClaims builds an application token for subject scoped to a
// single downstream service audience.
func NewServiceClaims(subject, audience string, props map[string]any) *ServiceClaims {
	return &ServiceClaims{Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Audience: jwt.ClaimStrings{audience},
		},
		Type:  TypeService,
		Props: props,
	}}
}

// Validate checks the token is a user access token. Anything flagged as a
// refresh token fails with ErrRefreshTokenMisuse so callers can tell misuse
// apart from garbage.
func (c *AccessClaims) Validate() error {
	if c.Refresh || c.Type == TypeRefresh {
		return ErrRefreshTokenMisuse
	}
	if c.Type != TypeAccess || c.Subject == "" {
		return ErrInvalidClaim
	}
	return nil
}

// Validate accepts only refresh-category tokens with a subject.
func (c *RefreshClaims) Validate() error {
	if !c.Refresh || c.Type != TypeRefresh || c.Subject == "" {
		return ErrNotRefreshToken
	}
	return nil
}

// Validate requires a subject and exactly the service category. The
// audience must be set, since it names the service the token is for.
func (c *ServiceClaims) Validate() error {
	if c.Refresh || c.Type != TypeService || c.Subject == "" || len(c.Audience) == 0 {
		return ErrInvalidClaim
	}
	return nil
}

// FederatedIdentityClaims are issued by an external identity provider and
// verified against its published keys.
type FederatedIdentityClaims struct {
	jwt.RegisteredClaims

	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Scope         string `json:"scope,omitempty"`
	AuthorizedBy  string `json:"azp,omitempty"`
}

func (c *FederatedIdentityClaims) Validate() error {
	if c.Subject == "" {
		return ErrInvalidClaim
	}
	return nil
}

// NewJTI returns a unique, time-sortable identifier for the "jti" claim.
func NewJTI() string {
	return idx.New().String()
}

// validateRegistered runs the issuer, audience and time checks shared by
// every verifier.
func validateRegistered(rc *jwt.RegisteredClaims, issuer string, audience []string, now time.Time, leeway time.Duration) error {
	if err := ValidateIssuer(rc, issuer); err != nil {
		return err
	}
	if err := ValidateAudience(rc, audience); err != nil {
		return err
	}
	return ValidateTime(rc, now, leeway)
}

// ValidateIssuer checks iss. An empty expectation enforces nothing.
func ValidateIssuer(rc *jwt.RegisteredClaims, expected string) error {
	if expected == "" {
		return nil
	}
	if rc.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks that at least one expected audience is present.
func ValidateAudience(rc *jwt.RegisteredClaims, expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(rc.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateTime requires exp to be strictly after now and nbf to be at or
// before now, both widened by leeway. A token without exp is rejected.
func ValidateTime(rc *jwt.RegisteredClaims, now time.Time, leeway time.Duration) error {
	if rc.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !now.Before(rc.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if rc.NotBefore != nil && now.Before(rc.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
