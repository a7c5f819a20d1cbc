package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/domain"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/metrics"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store"
	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
	"github.com/aussiebroadwan/mediagate/pkg/idx"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/aussiebroadwan/mediagate/pkg/scopes"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// SessionService authenticates users with a password (and a TOTP code when
// enrolled) and issues first-party access and refresh tokens.
type SessionService struct {
	Store    store.Store
	Tokens   *jwtx.HS256
	Scopes   *scopes.Registry
	Hasher   cryptox.PasswordHasher
	Audience []string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// TOTPIssuer labels enrolled authenticator entries.
	TOTPIssuer string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// Session is the result of a successful login.
type Session struct {
	Access  jwtx.Token
	Refresh jwtx.Token
	User    domain.User
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Email       string
	DisplayName string
	Password    string
	Scope       string
	EnableTOTP  bool
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Login checks the credentials and issues an access and refresh pair. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.Hasher.Verify(req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to verify password: %w", err)
	}

	if user.TOTPEnabled() {
		if req.TOTPCode == "" {
			return Session{}, ErrTOTPRequired
		}
		if !totp.Validate(req.TOTPCode, *user.TOTPSecret) {
			return Session{}, ErrInvalidTOTPCode
		}
	}

	access, refresh, err := s.Tokens.IssuePair(
		user.ID, user.Scope, s.Audience, profileProps(user),
		s.accessTTL(), s.refreshTTL(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to issue tokens: %w", err)
	}
	metrics.IncTokenIssued(string(jwtx.TypeAccess))
	metrics.IncTokenIssued(string(jwtx.TypeRefresh))

	return Session{Access: access, Refresh: refresh, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token. The user is
// reloaded so a deleted account or a narrowed grant takes effect: the new
// token carries only scopes present on both the refresh token and the
// account.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (jwtx.Token, error) {
	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return jwtx.Token{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return jwtx.Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return jwtx.Token{}, fmt.Errorf("failed to load user: %w", err)
	}

	scope := intersectScopes(claims.Scope, user.Scope)
	tok, err := s.Tokens.Issue(
		jwtx.NewAccessClaims(user.ID, scope, claims.Audience, profileProps(user)),
		s.accessTTL(),
	)
	if err != nil {
		return jwtx.Token{}, fmt.Errorf("failed to issue access token: %w", err)
	}
	metrics.IncTokenIssued(string(jwtx.TypeAccess))
	return tok, nil
}

// Me returns the profile behind an access token subject.
func (s *SessionService) Me(ctx context.Context, subject string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, subject)
}

// CreateUser registers an account. Scopes are checked against the registry
// so a typo cannot be baked into every token the user is issued. When
// EnableTOTP is set the returned URL is the otpauth:// enrolment link.
func (s *SessionService) CreateUser(ctx context.Context, in NewUser) (domain.User, string, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return domain.User{}, "", errors.New("email and password are required")
	}
	if s.Scopes != nil {
		if err := s.Scopes.Validate(in.Scope); err != nil {
			return domain.User{}, "", err
		}
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        strings.TrimSpace(in.Email),
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
		Scope:        strings.Join(strings.Fields(in.Scope), " "),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var otpURL string
	if in.EnableTOTP {
		key, err := s.generateTOTP(user.Email)
		if err != nil {
			return domain.User{}, "", err
		}
		secret := key.Secret()
		user.TOTPSecret = &secret
		otpURL = key.URL()
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, "", err
	}
	return user, otpURL, nil
}

// EnrollTOTP turns on the second factor for an existing account and returns
// the otpauth:// URL to show the user once. Enrolling again replaces the
// previous secret.
func (s *SessionService) EnrollTOTP(ctx context.Context, userID string) (string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	key, err := s.generateTOTP(user.Email)
	if err != nil {
		return "", err
	}
	if err := s.Store.Users().UpdateTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return "", fmt.Errorf("failed to store TOTP secret: %w", err)
	}
	return key.URL(), nil
}

func (s *SessionService) generateTOTP(account string) (*otp.Key, error) {
	issuer := s.TOTPIssuer
	if issuer == "" {
		issuer = "mediagate"
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	return key, nil
}

func profileProps(u domain.User) map[string]any {
	props := map[string]any{"email": u.Email}
	if u.DisplayName != "" {
		props["name"] = u.DisplayName
	}
	return props
}

// intersectScopes keeps the order of granted.
func intersectScopes(granted, allowed string) string {
	allow := scopes.Parse(allowed)
	var out []string
	for _, sc := range strings.Fields(granted) {
		if allow.Has(scopes.Scope(sc)) {
			out = append(out, sc)
		}
	}
	return strings.Join(out, " ")
}
