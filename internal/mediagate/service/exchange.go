package service

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/metrics"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/aussiebroadwan/mediagate/pkg/scopes"
)

var serviceIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// ExchangeService trades a verified federated identity for a token scoped
// to one downstream application.
type ExchangeService struct {
	// Tokens signs with the service trust domain's secret.
	Tokens *jwtx.HS256

	// Domain is appended to the service id to form the audience,
	// e.g. "photos" + "iam.example.com" -> "photos.iam.example.com".
	Domain string

	// Scopes bounds what the identity provider can grant. Scopes it asserts
	// that are not registered here are dropped from the minted token.
	Scopes *scopes.Registry

	TTL time.Duration
}

// Audience returns the aud value minted for serviceID.
func (s *ExchangeService) Audience(serviceID string) string {
	return serviceID + "." + s.Domain
}

// Exchange mints a service token for serviceID from an already verified
// identity. The subject carries over unchanged; the audience is
// "<serviceID>.<Domain>" and the scope is the identity's scope minus
// anything unregistered.
func (s *ExchangeService) Exchange(identity jwtx.FederatedIdentityClaims, serviceID string) (jwtx.Token, error) {
	if !serviceIDPattern.MatchString(serviceID) {
		return jwtx.Token{}, fmt.Errorf("%w: %q", ErrInvalidService, serviceID)
	}
	if s.Scopes == nil {
		return jwtx.Token{}, errors.New("service: exchange has no scope registry")
	}

	props := map[string]any{
		"name":       serviceID + "-medium",
		"idp_issuer": identity.Issuer,
	}
	if identity.Email != "" {
		props["email"] = identity.Email
	}

	claims := jwtx.NewServiceClaims(identity.Subject, s.Audience(serviceID), props)
	claims.Scope, _ = s.Scopes.Filter(identity.Scope)

	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultServiceTokenTTL
	}
	tok, err := s.Tokens.Issue(claims, ttl)
	if err != nil {
		return jwtx.Token{}, err
	}
	metrics.IncTokenIssued(string(jwtx.TypeService))
	return tok, nil
}
