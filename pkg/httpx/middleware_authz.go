package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/mediagate/pkg/scopes"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

// RequireScopes lets the request through only if the authenticated token
// grants every scope in required. It must run after an authentication
// middleware.
func RequireScopes(reg *svcerr.Registry, required ...scopes.Scope) Middleware {
	if reg == nil {
		reg = svcerr.Default()
	}
	want := make([]string, len(required))
	for i, s := range required {
		want[i] = string(s)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			granted, ok := scopeFrom(r.Context())
			if !ok {
				writeBearerChallenge(w, "")
				reg.Write(w, svcerr.InvalidAuthenticationToken, http.StatusUnauthorized, nil)
				return
			}

			err := scopes.Authorize(granted, required...)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			var ise *scopes.InsufficientScopeError
			if !errors.As(err, &ise) {
				reg.Write(w, svcerr.ServiceFailure, http.StatusInternalServerError, nil)
				return
			}

			slogx.FromContext(r.Context()).Info("insufficient scope",
				"required", ise.Required,
				"missing", ise.Missing,
			)
			w.Header().Set("WWW-Authenticate",
				`Bearer error="insufficient_scope", scope="`+strings.Join(want, " ")+`"`)
			reg.Write(w, svcerr.InsufficientScope, http.StatusForbidden, ise)
		})
	}
}
