package httpx

import (
	"context"

	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
)

type ctxKey string

const (
	ctxKeySubject   ctxKey = "subject"
	ctxKeyScope     ctxKey = "scope"
	ctxKeyAccess    ctxKey = "access_claims"
	ctxKeyFederated ctxKey = "federated_claims"
)

// WithAccessClaims stores verified first-party claims on ctx.
func WithAccessClaims(ctx context.Context, c jwtx.AccessClaims) context.Context {
	ctx = context.WithValue(ctx, ctxKeySubject, c.Subject)
	ctx = context.WithValue(ctx, ctxKeyScope, c.Scope)
	return context.WithValue(ctx, ctxKeyAccess, c)
}

// WithFederatedClaims stores verified identity-provider claims on ctx.
func WithFederatedClaims(ctx context.Context, c jwtx.FederatedIdentityClaims) context.Context {
	ctx = context.WithValue(ctx, ctxKeySubject, c.Subject)
	ctx = context.WithValue(ctx, ctxKeyScope, c.Scope)
	return context.WithValue(ctx, ctxKeyFederated, c)
}

// AccessClaimsFrom returns the claims set by AuthnMiddleware.
func AccessClaimsFrom(ctx context.Context) (jwtx.AccessClaims, bool) {
	c, ok := ctx.Value(ctxKeyAccess).(jwtx.AccessClaims)
	return c, ok
}

// FederatedClaimsFrom returns the claims set by FederatedAuthnMiddleware.
func FederatedClaimsFrom(ctx context.Context) (jwtx.FederatedIdentityClaims, bool) {
	c, ok := ctx.Value(ctxKeyFederated).(jwtx.FederatedIdentityClaims)
	return c, ok
}

// SubjectFrom returns the authenticated subject, or "".
func SubjectFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySubject).(string)
	return s
}

// scopeFrom returns the granted scope string and whether any principal is
// present at all.
func scopeFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ctxKeyScope).(string)
	return s, ok
}
