package http

import (
	"net/http"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/pkg/httpx"
	"github.com/aussiebroadwan/mediagate/pkg/mediasdk"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

type ExchangeHandler struct {
	ExchangeService *service.ExchangeService
	Errors          *svcerr.Registry
}

// ServeHTTP mints a service token for the identity behind a federated
// bearer token.
//
//	@Summary		Exchange an identity token for a service token
//	@Description	The bearer token must be issued by the configured identity provider.
//	@Description	The minted token's audience is "<service_id>.<domain>".
//	@Tags			Services
//	@Security		BearerAuth
//	@Produce		json
//	@Param			service_id	path		string	true	"Downstream service id"
//	@Success		200			{object}	mediasdk.ServiceTokenResponse
//	@Failure		400			{object}	svcerr.Response	"Invalid service id"
//	@Failure		401			{object}	svcerr.Response	"Identity token rejected"
//	@Router			/v1/services/{service_id}/token [post].
func (h *ExchangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.FederatedClaimsFrom(r.Context())
	if !ok {
		h.Errors.Write(w, svcerr.JWTBearerNotFound, http.StatusUnauthorized, nil)
		return
	}

	serviceID := r.PathValue("service_id")
	tok, err := h.ExchangeService.Exchange(identity, serviceID)
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}

	slogx.FromContext(r.Context()).Info("service token issued",
		"service", serviceID,
		"expires_at", tok.ExpiresAt,
	)
	httpx.WriteJSON(w, http.StatusOK, mediasdk.ServiceTokenResponse{JWT: tok.JWT, Payload: tok.Payload})
}
