package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config is read from the environment. Each trust domain has its own
// secret; see Validate.
type Config struct {
	Env                  string        `env:"ENV" envDefault:"dev"`
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
	MediaRetention       time.Duration `env:"MEDIA_RETENTION" envDefault:"2160h"`

	Log    LogConfig
	Tokens TokenConfig
	Media  MediaConfig
	IdP    FederatedConfig
	Store  StoreConfig
	Limits RateLimitConfig
	Seed   SeedConfig

	DocsBaseURL string `env:"ERROR_DOCS_BASE_URL" envDefault:"https://developers.homeapis.com"`
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"json"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
}

// TokenConfig covers first-party session and service tokens.
type TokenConfig struct {
	Issuer        string        `env:"MEDIAGATE_ISSUER" envDefault:"https://auth.mediagate.local"`
	Audience      []string      `env:"MEDIAGATE_AUDIENCE" envSeparator:"," envDefault:"mediagate"`
	Secret        string        `env:"MEDIAGATE_JWT_SECRET"`
	ServiceSecret string        `env:"MEDIAGATE_SERVICE_SECRET"`
	ServiceDomain string        `env:"MEDIAGATE_SERVICE_DOMAIN" envDefault:"iam.mediagate.local"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"2h"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	ServiceTTL    time.Duration `env:"SERVICE_TOKEN_TTL" envDefault:"1h"`
	Pepper        string        `env:"PASSWORD_PEPPER"`
	TOTPIssuer    string        `env:"TOTP_ISSUER" envDefault:"mediagate"`
}

// MediaConfig covers the two signed-URL trust domains.
type MediaConfig struct {
	PhotosSecret   string        `env:"MEDIAGATE_PHOTOS_SECRET"`
	VideoSecret    string        `env:"MEDIAGATE_VIDEO_SECRET"`
	PhotosBaseURL  string        `env:"PHOTOS_BASE_URL" envDefault:"http://localhost:8080"`
	VideoBaseURL   string        `env:"VIDEO_BASE_URL" envDefault:"http://localhost:8080"`
	ImageURLTTL    time.Duration `env:"IMAGE_URL_TTL" envDefault:"24h"`
	PlaybackTTL    time.Duration `env:"PLAYBACK_TTL" envDefault:"1h"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
}

// FederatedConfig enables the service token exchange when JWKSURL is set.
type FederatedConfig struct {
	JWKSURL  string        `env:"FEDERATED_JWKS_URL"`
	Issuer   string        `env:"FEDERATED_ISSUER"`
	Audience []string      `env:"FEDERATED_AUDIENCE" envSeparator:","`
	CacheTTL time.Duration `env:"FEDERATED_JWKS_CACHE_TTL" envDefault:"1h"`
}

type StoreConfig struct {
	DatabaseFile string `env:"DATABASE_FILE" envDefault:"mediagate.db"`
	BlobDriver   string `env:"BLOB_DRIVER" envDefault:"memory"`
	S3Endpoint   string `env:"S3_ENDPOINT"`
	S3AccessKey  string `env:"S3_ACCESS_KEY"`
	S3SecretKey  string `env:"S3_SECRET_KEY"`
	S3Bucket     string `env:"S3_BUCKET" envDefault:"mediagate"`
	S3Region     string `env:"S3_REGION"`
	S3UseSSL     bool   `env:"S3_USE_SSL" envDefault:"true"`
}

// RateLimitConfig sets requests per minute for each limiter tier. Zero
// disables a tier.
type RateLimitConfig struct {
	Strict   int `env:"RATE_LIMIT_STRICT" envDefault:"10"`
	Moderate int `env:"RATE_LIMIT_MODERATE" envDefault:"120"`
	Lenient  int `env:"RATE_LIMIT_LENIENT" envDefault:"600"`
}

// SeedConfig creates a first user on an empty database.
type SeedConfig struct {
	Email    string `env:"SEED_USER_EMAIL"`
	Password string `env:"SEED_USER_PASSWORD"`
	Scope    string `env:"SEED_USER_SCOPE" envDefault:"openid profile email offline_access read:photos write:photos read:videos"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether missing secrets may be generated at start.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

type namedSecret struct{ name, value string }

func (c Config) secrets() []namedSecret {
	return []namedSecret{
		{"MEDIAGATE_JWT_SECRET", c.Tokens.Secret},
		{"MEDIAGATE_SERVICE_SECRET", c.Tokens.ServiceSecret},
		{"MEDIAGATE_PHOTOS_SECRET", c.Media.PhotosSecret},
		{"MEDIAGATE_VIDEO_SECRET", c.Media.VideoSecret},
	}
}

// Validate rejects missing secrets and any secret reused across trust
// domains. It runs after dev defaults have been filled in.
func (c Config) Validate() error {
	var errs []error

	seen := make(map[string]string)
	for _, s := range c.secrets() {
		if strings.TrimSpace(s.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", s.name))
			continue
		}
		if other, ok := seen[s.value]; ok {
			errs = append(errs, fmt.Errorf("%s must differ from %s", s.name, other))
			continue
		}
		seen[s.value] = s.name
	}

	switch c.Store.BlobDriver {
	case "memory":
	case "s3":
		if c.Store.S3Endpoint == "" {
			errs = append(errs, errors.New("S3_ENDPOINT is required for the s3 blob driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_DRIVER %q", c.Store.BlobDriver))
	}

	if c.IdP.JWKSURL != "" && c.IdP.Issuer == "" {
		errs = append(errs, errors.New("FEDERATED_ISSUER is required with FEDERATED_JWKS_URL"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}

	return errors.Join(errs...)
}
