package mediasdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a mediagate deployment.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// CheckScopes makes a Session refuse calls it lacks the scope for
	// without a round trip. Turn it off to exercise server side checks.
	CheckScopes bool
}

// NewClient returns a Client with a 10s timeout and client-side scope
// checks on.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		CheckScopes: true,
	}
}

// Login authenticates with email and password and returns a Session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	tok, err := c.LoginTokens(ctx, req)
	if err != nil {
		return nil, err
	}
	return newSession(c, tok), nil
}

// LoginTokens is Login without the Session wrapper.
func (c *Client) LoginTokens(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	body, headers, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", "", body, headers)
	if err != nil {
		return nil, err
	}
	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh trades a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	body, headers, err := jsonBody(RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/refresh", "", body, headers)
	if err != nil {
		return nil, err
	}
	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangeServiceToken trades an identity provider token for an application
// token scoped to serviceID.
func (c *Client) ExchangeServiceToken(ctx context.Context, identityToken, serviceID string) (*ServiceTokenResponse, error) {
	path := "/v1/services/" + url.PathEscape(serviceID) + "/token"
	resp, err := c.doRequest(ctx, http.MethodPost, path, identityToken, nil, nil)
	if err != nil {
		return nil, err
	}
	var out ServiceTokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scopes lists every scope the service knows.
func (c *Client) Scopes(ctx context.Context) (*ScopesResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/scopes", "", nil, nil)
	if err != nil {
		return nil, err
	}
	var out ScopesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLiveness calls /livez.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness calls /readyz. A degraded service returns an error.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *Client) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, "", nil, nil)
	if err != nil {
		return nil, err
	}
	var out HealthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fetch downloads a signed media or playback link. No bearer token is sent;
// the link carries its own credentials.
func (c *Client) Fetch(ctx context.Context, signedURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", parseErrorResponse(resp, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
