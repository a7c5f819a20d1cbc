package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/store"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
	"github.com/aussiebroadwan/mediagate/pkg/httpx"
	"github.com/aussiebroadwan/mediagate/pkg/mediasdk"
)

var nowUnix = func() int64 { return time.Now().Unix() }

// LivezHandler godoc
//
//	@Summary		Liveness Check Endpoint
//	@Description	Liveness probe returning uptime and build version. Never checks dependencies.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	mediasdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, mediasdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the database, the blob store and, when an identity
//	@Description	provider is configured, that its signing keys have been fetched.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	mediasdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	mediasdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	blobs blob.Store,
	keys KeyReadiness,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &mediasdk.HealthChecks{
			Database: "ok",
			Blobs:    "ok",
			Keys:     "disabled",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := blobs.Ping(r.Context()); err != nil {
			checks.Blobs = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Federated keys load lazily, so a cold key set only degrades the
		// exchange route and is reported without failing the probe.
		if keys != nil {
			checks.Keys = "ok"
			if !keys.IsReady() {
				checks.Keys = "pending: no keys fetched"
			}
		}

		httpx.WriteJSON(w, statusCode, mediasdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
