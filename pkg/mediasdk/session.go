package mediasdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// refreshSkew refreshes the access token this long before it expires.
const refreshSkew = 30 * time.Second

// Session is an authenticated user session with automatic refresh.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	scopes       map[string]bool
}

func newSession(c *Client, tok *TokenResponse) *Session {
	return &Session{
		client:       c,
		accessToken:  tok.Token,
		refreshToken: tok.RefreshToken,
		expiresAt:    time.Unix(tok.ExpiresAt, 0).Add(-refreshSkew),
		scopes:       parseScopes(tok.Scope),
	}
}

// NewSessionFromTokens resumes a session from stored tokens.
func (c *Client) NewSessionFromTokens(accessToken, refreshToken, scope string, expiresAt time.Time) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt.Add(-refreshSkew),
		scopes:       parseScopes(scope),
	}
}

func parseScopes(scope string) map[string]bool {
	parts := strings.Fields(scope)
	out := make(map[string]bool, len(parts))
	for _, s := range parts {
		out[s] = true
	}
	return out
}

func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	tok, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.accessToken = tok.Token
	if tok.RefreshToken != "" {
		s.refreshToken = tok.RefreshToken
	}
	s.expiresAt = time.Unix(tok.ExpiresAt, 0).Add(-refreshSkew)
	s.scopes = parseScopes(tok.Scope)
	return s.accessToken, nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// HasScope reports whether the last issued access token carried scope.
func (s *Session) HasScope(scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scopes[scope]
}

func (s *Session) checkScopes(required ...string) error {
	if !s.client.CheckScopes || len(required) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []string
	for _, scope := range required {
		if !s.scopes[scope] {
			missing = append(missing, scope)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required scope(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// Verify asks the service to check the current access token.
func (s *Session) Verify(ctx context.Context) (*VerifyResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/verify", nil, nil)
	if err != nil {
		return nil, err
	}
	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the caller's profile.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollTOTP turns on the second factor and returns the otpauth:// URL.
func (s *Session) EnrollTOTP(ctx context.Context) (*EnrollTOTPResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/auth/totp", nil, nil)
	if err != nil {
		return nil, err
	}
	var out EnrollTOTPResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMedia returns the page starting at offset (requires read:photos).
func (s *Session) ListMedia(ctx context.Context, offset int) (*MediaListResponse, error) {
	path := "/v1/media"
	if offset > 0 {
		path += "?start=" + strconv.Itoa(offset)
	}
	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, nil, "read:photos")
	if err != nil {
		return nil, err
	}
	var out MediaListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadMedia sends body as a new item (requires write:photos). Uploading
// bytes already in the account returns the existing item with Duplicate set.
func (s *Session) UploadMedia(ctx context.Context, contentType string, body io.Reader) (*MediaResponse, error) {
	headers := map[string]string{"Content-Type": contentType}
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/media", body, headers, "write:photos")
	if err != nil {
		return nil, err
	}
	var out MediaResponse
	if resp.StatusCode == http.StatusOK {
		err = decodeJSON(resp, &out, http.StatusOK)
	} else {
		err = decodeJSON(resp, &out, http.StatusCreated)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) GetMedia(ctx context.Context, id string) (*MediaResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/media/"+url.PathEscape(id), nil, nil, "read:photos")
	if err != nil {
		return nil, err
	}
	var out MediaResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMedia requires both read:photos and write:photos.
func (s *Session) DeleteMedia(ctx context.Context, id string) (*DeleteResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/media/"+url.PathEscape(id), nil, nil, "read:photos", "write:photos")
	if err != nil {
		return nil, err
	}
	var out DeleteResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetVideo returns metadata and a signed playback link (requires
// read:videos).
func (s *Session) GetVideo(ctx context.Context, id string) (*PlaybackResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/videos/"+url.PathEscape(id), nil, nil, "read:videos")
	if err != nil {
		return nil, err
	}
	var out PlaybackResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
