package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/mediagate/internal/mediagate/http"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob/memory"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob/s3"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/drivers/sqlite"
	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
	"github.com/aussiebroadwan/mediagate/pkg/httpx"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/aussiebroadwan/mediagate/pkg/scopes"
	"github.com/aussiebroadwan/mediagate/pkg/signedurl"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

// BuildVersion is overridden at build time with -ldflags.
var BuildVersion = "v0.1.0"

// Application owns every long-lived dependency of the service.
type Application struct {
	cfg       Config
	logger    *slog.Logger
	logCloser io.Closer

	db    store.Store
	blobs blob.Store

	errors    *svcerr.Registry
	scopes    *scopes.Registry
	tokens    *jwtx.HS256
	svcTokens *jwtx.HS256
	images    *signedurl.Signer
	videos    *signedurl.Signer
	identity  *jwtx.FederatedVerifier
	keys      *jwtx.RemoteKeySet

	sessionService      *service.SessionService
	exchangeService     *service.ExchangeService
	mediaService        *service.MediaService
	playbackService     *service.PlaybackService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	logger, closer := slogx.New(slogx.Config{
		Service:    "mediagate",
		Version:    BuildVersion,
		Env:        cfg.Env,
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	app := &Application{cfg: cfg, logger: logger, logCloser: closer}

	if cfg.IsDev() {
		if err := app.fillDevSecrets(); err != nil {
			return nil, err
		}
	}
	if err := app.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initBlobs(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initCrypto(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	if err := app.seedUser(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed handler, for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("mediagate starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down mediagate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("mediagate stopped")
	_ = app.logCloser.Close()
	return nil
}

// fillDevSecrets generates a random secret for each unset trust domain.
// Tokens and links do not survive a restart.
func (app *Application) fillDevSecrets() error {
	for _, s := range []*string{
		&app.cfg.Tokens.Secret,
		&app.cfg.Tokens.ServiceSecret,
		&app.cfg.Media.PhotosSecret,
		&app.cfg.Media.VideoSecret,
	} {
		if *s != "" {
			continue
		}
		v, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("failed to generate dev secret: %w", err)
		}
		*s = v
	}
	app.logger.Warn("using ephemeral secrets for unset trust domains (dev mode)")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.Store.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initBlobs(ctx context.Context) error {
	switch app.cfg.Store.BlobDriver {
	case "s3":
		st, err := s3.New(ctx, s3.Config{
			Endpoint:  app.cfg.Store.S3Endpoint,
			AccessKey: app.cfg.Store.S3AccessKey,
			SecretKey: app.cfg.Store.S3SecretKey,
			Bucket:    app.cfg.Store.S3Bucket,
			Region:    app.cfg.Store.S3Region,
			UseSSL:    app.cfg.Store.S3UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize blob store: %w", err)
		}
		app.blobs = st
	default:
		app.logger.Warn("using in-memory blob store; uploads are lost on restart")
		app.blobs = memory.New()
	}
	return nil
}

// initCrypto builds one signer per trust domain.
func (app *Application) initCrypto() error {
	var err error
	if app.errors, err = svcerr.New(app.cfg.DocsBaseURL); err != nil {
		return fmt.Errorf("failed to load error registry: %w", err)
	}
	if app.scopes, err = scopes.Default(); err != nil {
		return fmt.Errorf("failed to load scope registry: %w", err)
	}

	tc := app.cfg.Tokens
	if app.tokens, err = jwtx.NewHS256([]byte(tc.Secret), jwtx.HS256Options{
		Issuer:   tc.Issuer,
		Audience: tc.Audience,
		Leeway:   30 * time.Second,
	}); err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	if app.svcTokens, err = jwtx.NewHS256([]byte(tc.ServiceSecret), jwtx.HS256Options{
		Issuer: tc.Issuer,
		Leeway: 30 * time.Second,
	}); err != nil {
		return fmt.Errorf("failed to initialize service token signer: %w", err)
	}

	mc := app.cfg.Media
	if app.images, err = signedurl.New([]byte(mc.PhotosSecret), signedurl.Options{
		BaseURL:    mc.PhotosBaseURL,
		PathPrefix: "v1/images",
	}); err != nil {
		return fmt.Errorf("failed to initialize image signer: %w", err)
	}
	if app.videos, err = signedurl.New([]byte(mc.VideoSecret), signedurl.Options{
		BaseURL:    mc.VideoBaseURL,
		PathPrefix: "v1/videos",
	}); err != nil {
		return fmt.Errorf("failed to initialize video signer: %w", err)
	}

	if idp := app.cfg.IdP; idp.JWKSURL != "" {
		app.keys = jwtx.NewRemoteKeySet(idp.JWKSURL,
			jwtx.WithCacheTTL(idp.CacheTTL),
			jwtx.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		)
		app.identity = jwtx.NewFederatedVerifier(app.keys, idp.Issuer, idp.Audience)
		app.logger.Info("federated identity enabled", "issuer", idp.Issuer)
	}
	return nil
}

func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Store:      app.db,
		Tokens:     app.tokens,
		Scopes:     app.scopes,
		Hasher:     cryptox.PasswordHasher{Pepper: app.cfg.Tokens.Pepper},
		Audience:   app.cfg.Tokens.Audience,
		AccessTTL:  app.cfg.Tokens.AccessTTL,
		RefreshTTL: app.cfg.Tokens.RefreshTTL,
		TOTPIssuer: app.cfg.Tokens.TOTPIssuer,
	}
	app.exchangeService = &service.ExchangeService{
		Tokens: app.svcTokens,
		Domain: app.cfg.Tokens.ServiceDomain,
		Scopes: app.scopes,
		TTL:    app.cfg.Tokens.ServiceTTL,
	}
	app.mediaService = &service.MediaService{
		Store:          app.db,
		Blobs:          app.blobs,
		Signer:         app.images,
		URLTTL:         app.cfg.Media.ImageURLTTL,
		MaxUploadBytes: app.cfg.Media.MaxUploadBytes,
	}
	app.playbackService = &service.PlaybackService{
		Store:  app.db,
		Blobs:  app.blobs,
		Signer: app.videos,
		TTL:    app.cfg.Media.PlaybackTTL,
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.MediaRetention,
	)
}

// seedUser creates the configured first user when the database has none.
func (app *Application) seedUser(ctx context.Context) error {
	seed := app.cfg.Seed
	if seed.Email == "" || seed.Password == "" {
		return nil
	}
	empty, err := app.db.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to check users: %w", err)
	}
	if !empty {
		return nil
	}

	u, _, err := app.sessionService.CreateUser(ctx, service.NewUser{
		Email:    seed.Email,
		Password: seed.Password,
		Scope:    seed.Scope,
	})
	if err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}
	app.logger.Info("seed user created", "user_id", u.ID, "scope", u.Scope)
	return nil
}

func perMinute(n int) httpx.RateLimitConfig {
	return httpx.RateLimitConfig{Requests: n, Window: time.Minute}
}

func (app *Application) initHTTP() {
	rc := httpapi.RouterConfig{
		Store:    app.db,
		Blobs:    app.blobs,
		Errors:   app.errors,
		Scopes:   app.scopes,
		Verifier: app.tokens,
		Limits: httpapi.RateLimits{
			Strict:   perMinute(app.cfg.Limits.Strict),
			Moderate: perMinute(app.cfg.Limits.Moderate),
			Lenient:  perMinute(app.cfg.Limits.Lenient),
		},
		BuildVersion: BuildVersion,
		Logger:       app.logger,
	}
	// Typed nil pointers would defeat the router's nil checks.
	if app.identity != nil {
		rc.Identity = app.identity
		rc.Keys = app.keys
	}

	router := httpapi.NewRouter(rc)
	router.SessionService = app.sessionService
	router.ExchangeService = app.exchangeService
	router.MediaService = app.mediaService
	router.PlaybackService = app.playbackService
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
