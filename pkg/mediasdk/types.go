package mediasdk

import "time"

// ============================================================================
// Sessions
// ============================================================================

// LoginRequest is the body of POST /v1/auth/login. TOTPCode is required
// once the account has enrolled a second factor.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// RefreshRequest carries a refresh token; it is the only endpoint that
// accepts one.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login and refresh. Refresh leaves
// RefreshToken empty; the original refresh token stays valid.
type TokenResponse struct {
	Success      bool   `json:"success"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
	Scope        string `json:"scope"`
	Payload      any    `json:"payload"`
}

// VerifyResponse echoes the claims of the presented access token.
type VerifyResponse struct {
	Success bool `json:"success"`
	Claims  any  `json:"claims"`
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Scope       string    `json:"scope"`
	TOTPEnabled bool      `json:"totp_enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserResponse struct {
	Success bool     `json:"success"`
	User    UserInfo `json:"user"`
}

// EnrollTOTPResponse holds the otpauth:// URL. It is only shown once.
type EnrollTOTPResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"otpauth_url"`
}

// ServiceTokenResponse is an application token minted from a federated
// identity: {"jwt": "...", "payload": {...}}.
type ServiceTokenResponse struct {
	JWT     string `json:"jwt"`
	Payload any    `json:"payload"`
}

type ScopeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScopesResponse lists every scope the server will issue.
type ScopesResponse struct {
	Success bool        `json:"success"`
	Scopes  []ScopeInfo `json:"scopes"`
}

// ============================================================================
// Media
// ============================================================================

// MediaItem describes one stored image. URL is a signed link valid until
// URLExpiresAt (unix seconds).
type MediaItem struct {
	ID           string     `json:"id"`
	AccountHash  string     `json:"account_uid_sha256"`
	ContentHash  string     `json:"original_image_hash"`
	ContentType  string     `json:"content_type"`
	Size         int64      `json:"original_size"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	Deleted      bool       `json:"is_deleted"`
	URL          string     `json:"url,omitempty"`
	URLExpiresAt int64      `json:"url_expires_at,omitempty"`
}

// MediaListResponse is one page of the caller's images, newest first.
type MediaListResponse struct {
	Success bool `json:"success"`
	// Sub is the account the listing belongs to.
	Sub    string      `json:"sub"`
	Images []MediaItem `json:"images"`
	// Next is the start offset of the following page, or 0 when this page
	// was the last.
	Next int `json:"next,omitempty"`
}

// MediaResponse is returned by upload and get. Duplicate is set when an
// upload matched bytes already in the account.
type MediaResponse struct {
	Success   bool      `json:"success"`
	Image     MediaItem `json:"image"`
	Duplicate bool      `json:"duplicate,omitempty"`
}

type Operation struct {
	Message       string `json:"message"`
	OperationType string `json:"operationType"`
}

// DeleteResponse reports a soft delete; Image is the state before removal.
type DeleteResponse struct {
	Success   bool      `json:"success"`
	Operation Operation `json:"operation"`
	Image     MediaItem `json:"image"`
}

// ============================================================================
// Video
// ============================================================================

type VideoInfo struct {
	ID              string    `json:"id"`
	ShortID         string    `json:"short_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Owner           string    `json:"owner"`
	MasterPlaylist  string    `json:"master_playlist"`
	VideoLength     int64     `json:"video_length"`
	Adaptive        bool      `json:"adaptive"`
	EnableDownloads bool      `json:"enable_downloads"`
	CreatedAt       time.Time `json:"created_at"`
}

// PlaybackFrame bounds, in unix seconds, when PlaybackURL is accepted.
type PlaybackFrame struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type PlaybackAccess struct {
	PlaybackURL string        `json:"playback_url"`
	Frame       PlaybackFrame `json:"frame"`
}

// PlaybackResponse is a video with a path-signed playlist link.
type PlaybackResponse struct {
	Success bool           `json:"success"`
	Video   VideoInfo      `json:"video"`
	Access  PlaybackAccess `json:"access"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz; only readyz fills Checks.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Blobs    string `json:"blobs"`
	// Keys reports the federated key set; "disabled" when no IdP is set.
	Keys string `json:"keys"`
}
