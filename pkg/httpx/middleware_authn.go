package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

// AccessTokenParam is the query fallback for clients that cannot set
// headers, e.g. media players.
const AccessTokenParam = "access_token"

// AccessVerifier verifies first-party access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (jwtx.AccessClaims, error)
}

// IdentityVerifier verifies tokens minted by an external identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (jwtx.FederatedIdentityClaims, error)
}

// AuthObserver receives one call per verification with the token kind and
// a jwtx.Reason label.
type AuthObserver func(kind, reason string)

// AuthnOptions are shared by the authentication middlewares.
type AuthnOptions struct {
	Errors  *svcerr.Registry
	Observe AuthObserver
}

func (o AuthnOptions) registry() *svcerr.Registry {
	if o.Errors != nil {
		return o.Errors
	}
	return svcerr.Default()
}

func (o AuthnOptions) observe(kind string, err error) {
	if o.Observe != nil {
		o.Observe(kind, jwtx.Reason(err))
	}
}

// BearerToken extracts the token from "Authorization: Bearer <t>" or the
// access_token query parameter. The header wins when both are present.
func BearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		tok = strings.TrimSpace(tok)
		return tok, tok != ""
	}
	if tok := r.URL.Query().Get(AccessTokenParam); tok != "" {
		return tok, true
	}
	return "", false
}

// AuthnMiddleware requires a live first-party access token. Refresh tokens
// are refused with 403 IllegalRefreshToken.
func AuthnMiddleware(v AccessVerifier, opts AuthnOptions) Middleware {
	reg := opts.registry()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerChallenge(w, "")
				reg.Write(w, svcerr.InvalidAuthenticationToken, http.StatusUnauthorized, nil)
				return
			}

			claims, err := v.VerifyAccess(raw)
			opts.observe("access", err)
			if err != nil {
				log.Warn("access token rejected",
					"reason", jwtx.Reason(err),
					"token_fp", cryptox.FingerprintToken(raw),
				)
				writeAccessError(w, reg, err)
				return
			}

			ctx = slogx.WithContext(ctx, log.With("sub", claims.Subject))
			next.ServeHTTP(w, r.WithContext(WithAccessClaims(ctx, claims)))
		})
	}
}

func writeAccessError(w http.ResponseWriter, reg *svcerr.Registry, err error) {
	switch {
	case errors.Is(err, jwtx.ErrRefreshTokenMisuse):
		writeBearerChallenge(w, "refresh token not accepted")
		reg.Write(w, svcerr.IllegalRefreshToken, http.StatusForbidden, nil)
	case errors.Is(err, jwtx.ErrExpired):
		writeBearerChallenge(w, "token expired")
		reg.Write(w, svcerr.JWTBearerExpired, http.StatusForbidden, nil)
	default:
		writeBearerChallenge(w, "token verification failed")
		reg.Write(w, svcerr.JWTBearerInvalid, http.StatusUnauthorized, nil)
	}
}

// FederatedAuthnMiddleware requires a token from the external identity
// provider. Key discovery failures are reported separately from bad
// signatures.
func FederatedAuthnMiddleware(v IdentityVerifier, opts AuthnOptions) Middleware {
	reg := opts.registry()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerChallenge(w, "")
				reg.Write(w, svcerr.JWTBearerNotFound, http.StatusUnauthorized, nil)
				return
			}

			claims, err := v.Verify(ctx, raw)
			opts.observe("federated", err)
			if err != nil {
				log.Warn("identity token rejected",
					"reason", jwtx.Reason(err),
					"token_fp", cryptox.FingerprintToken(raw),
					"err", err,
				)
				switch {
				case errors.Is(err, jwtx.ErrKeyResolution):
					writeBearerChallenge(w, "signing key unavailable")
					reg.Write(w, svcerr.KeyResolutionFailed, http.StatusUnauthorized, nil)
				case errors.Is(err, jwtx.ErrExpired):
					writeBearerChallenge(w, "token expired")
					reg.Write(w, svcerr.JWTBearerExpired, http.StatusForbidden, nil)
				default:
					writeBearerChallenge(w, "token verification failed")
					reg.Write(w, svcerr.ExchangeTokenRejected, http.StatusUnauthorized, nil)
				}
				return
			}

			ctx = slogx.WithContext(ctx, log.With("sub", claims.Subject))
			next.ServeHTTP(w, r.WithContext(WithFederatedClaims(ctx, claims)))
		})
	}
}

// RFC 6750 challenge. An empty desc means no credentials were sent, which
// carries no error code.
func writeBearerChallenge(w http.ResponseWriter, desc string) {
	if desc == "" {
		w.Header().Set("WWW-Authenticate", `Bearer realm="mediagate"`)
		return
	}
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
}
