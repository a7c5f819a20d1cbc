package http

import (
	"log/slog"
	"net/http"
	"time"

	_ "github.com/aussiebroadwan/mediagate/api/mediagate" // Swagger docs
	"github.com/aussiebroadwan/mediagate/internal/mediagate/metrics"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
	"github.com/aussiebroadwan/mediagate/pkg/httpx"
	"github.com/aussiebroadwan/mediagate/pkg/scopes"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits groups the limiter tiers applied per route.
type RateLimits struct {
	// Strict guards credential checks (login, refresh, exchange).
	Strict httpx.RateLimitConfig
	// Moderate guards authenticated API calls.
	Moderate httpx.RateLimitConfig
	// Lenient guards signed content and health probes.
	Lenient httpx.RateLimitConfig
}

// KeyReadiness is implemented by jwtx.RemoteKeySet.
type KeyReadiness interface {
	IsReady() bool
}

// RouterConfig carries the shared dependencies of every handler.
type RouterConfig struct {
	Store    store.Store
	Blobs    blob.Store
	Errors   *svcerr.Registry
	Scopes   *scopes.Registry
	Verifier httpx.AccessVerifier

	// Identity and Keys are nil when no identity provider is configured;
	// the service token exchange is then not routed.
	Identity httpx.IdentityVerifier
	Keys     KeyReadiness

	Limits       RateLimits
	BuildVersion string
	Logger       *slog.Logger
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	cfg       RouterConfig
	startTime time.Time
	logger    *slog.Logger

	SessionService  *service.SessionService
	ExchangeService *service.ExchangeService
	MediaService    *service.MediaService
	PlaybackService *service.PlaybackService
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Errors == nil {
		cfg.Errors = svcerr.Default()
	}
	r := &Router{
		Mux:       http.NewServeMux(),
		cfg:       cfg,
		startTime: time.Now(),
		logger:    cfg.Logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, metrics.ObserveRequest),
	}
	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerExchange()
	r.registerMedia()
	r.registerVideos()
	r.registerSignedContent()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
	r.Mux.HandleFunc("/", r.notFound)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			mediagate API
//	@version		0.1.0
//	@description	Capability tokens and signed media links.
//	@description
//	@description				Access tokens are HS256 JWTs carrying space-delimited scopes. Media and video
//	@description				bytes are served from HMAC signed links that need no bearer token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/mediagate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed verifies the access token, then the scopes, then limits per
// subject.
func (r *Router) authed(h http.Handler, required ...scopes.Scope) http.Handler {
	mws := []httpx.Middleware{
		httpx.AuthnMiddleware(r.cfg.Verifier, httpx.AuthnOptions{
			Errors:  r.cfg.Errors,
			Observe: metrics.ObserveAuth,
		}),
	}
	if len(required) > 0 {
		mws = append(mws, httpx.RequireScopes(r.cfg.Errors, required...))
	}
	mws = append(mws, httpx.RateLimitBySubject(r.cfg.Limits.Moderate, r.cfg.Errors))
	return httpx.Chain(h, mws...)
}

func (r *Router) registerAuth() {
	h := &SessionHandler{SessionService: r.SessionService, Errors: r.cfg.Errors}

	// Credential checks share one strict limiter per route.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.cfg.Limits.Strict, r.cfg.Errors),
		),
	)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.cfg.Limits.Strict, r.cfg.Errors),
		),
	)

	r.Mux.Handle("GET /v1/auth/verify", r.authed(http.HandlerFunc(h.HandleVerify)))
	r.Mux.Handle("GET /v1/auth/me", r.authed(http.HandlerFunc(h.HandleMe), scopes.Profile))
	r.Mux.Handle("POST /v1/auth/totp", r.authed(http.HandlerFunc(h.HandleEnrollTOTP)))

	sh := &ScopesHandler{Scopes: r.cfg.Scopes}
	r.Mux.Handle("GET /v1/scopes",
		httpx.Chain(sh, httpx.RateLimitByIP(r.cfg.Limits.Lenient, r.cfg.Errors)),
	)
}

func (r *Router) registerExchange() {
	if r.cfg.Identity == nil || r.ExchangeService == nil {
		return
	}
	h := &ExchangeHandler{ExchangeService: r.ExchangeService, Errors: r.cfg.Errors}

	r.Mux.Handle("POST /v1/services/{service_id}/token",
		httpx.Chain(h,
			httpx.RateLimitByIP(r.cfg.Limits.Strict, r.cfg.Errors),
			httpx.FederatedAuthnMiddleware(r.cfg.Identity, httpx.AuthnOptions{
				Errors:  r.cfg.Errors,
				Observe: metrics.ObserveAuth,
			}),
		),
	)
}

func (r *Router) registerMedia() {
	h := &MediaHandler{MediaService: r.MediaService, Errors: r.cfg.Errors}

	r.Mux.Handle("GET /v1/media", r.authed(http.HandlerFunc(h.HandleList), scopes.ReadPhotos))
	r.Mux.Handle("POST /v1/media", r.authed(http.HandlerFunc(h.HandleUpload), scopes.WritePhotos))
	r.Mux.Handle("GET /v1/media/{id}", r.authed(http.HandlerFunc(h.HandleGet), scopes.ReadPhotos))
	r.Mux.Handle("DELETE /v1/media/{id}", r.authed(http.HandlerFunc(h.HandleDelete), scopes.ReadPhotos, scopes.WritePhotos))
}

func (r *Router) registerVideos() {
	h := &VideoHandler{PlaybackService: r.PlaybackService, Errors: r.cfg.Errors}
	r.Mux.Handle("GET /v1/videos/{id}", r.authed(h, scopes.ReadVideos))
}

func (r *Router) registerSignedContent() {
	h := &ContentHandler{
		MediaService:    r.MediaService,
		PlaybackService: r.PlaybackService,
		Errors:          r.cfg.Errors,
	}

	// No bearer token: the link's HMAC is the credential.
	r.Mux.Handle("GET /v1/images/{account}/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleImage),
			httpx.RateLimitByIP(r.cfg.Limits.Lenient, r.cfg.Errors),
		),
	)
	r.Mux.Handle("GET /v1/videos/{exp}/{sig}/{id}/{file}",
		httpx.Chain(http.HandlerFunc(h.HandleVideoFile),
			httpx.RateLimitByIP(r.cfg.Limits.Lenient, r.cfg.Errors),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.cfg.BuildVersion),
			httpx.RateLimitByIP(r.cfg.Limits.Lenient, r.cfg.Errors),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.cfg.BuildVersion, r.cfg.Store, r.cfg.Blobs, r.cfg.Keys),
			httpx.RateLimitByIP(r.cfg.Limits.Lenient, r.cfg.Errors),
		),
	)
	r.Mux.Handle("GET /metrics", metrics.Handler())
}

func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	r.cfg.Errors.Write(w, svcerr.ResourceNotFound, http.StatusNotFound, map[string]string{"path": req.URL.Path})
}
