package http

import (
	"net/http"

	"github.com/aussiebroadwan/mediagate/pkg/httpx"
	"github.com/aussiebroadwan/mediagate/pkg/mediasdk"
	"github.com/aussiebroadwan/mediagate/pkg/scopes"
)

type ScopesHandler struct {
	Scopes *scopes.Registry
}

// ServeHTTP lists the scope registry.
//
//	@Summary	List known scopes
//	@Tags		Sessions
//	@Produce	json
//	@Success	200	{object}	mediasdk.ScopesResponse
//	@Router		/v1/scopes [get].
func (h *ScopesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defs := h.Scopes.All()
	out := make([]mediasdk.ScopeInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, mediasdk.ScopeInfo{Name: string(d.Name), Description: d.Description})
	}
	httpx.WriteJSON(w, http.StatusOK, mediasdk.ScopesResponse{Success: true, Scopes: out})
}
