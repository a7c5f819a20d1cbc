package jwtx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultJWKSCacheTTL is how long a fetched key set is trusted before the
// discovery endpoint is consulted again.
const DefaultJWKSCacheTTL = time.Hour

const maxJWKSBytes = 1 << 20

// RemoteKeySet resolves public keys from an identity provider's JWKS
// endpoint and caches them for a fixed TTL. There is no explicit
// invalidation: a key rotated inside the window is unknown until the cache
// expires. Concurrent callers share a single in-flight fetch.
type RemoteKeySet struct {
	url    string
	client *http.Client
	ttl    time.Duration
	now    func() time.Time
	keys   *KeySet

	fetchMu sync.Mutex

	mu        sync.RWMutex
	fetchedAt time.Time
}

// RemoteOption customises a RemoteKeySet.
type RemoteOption func(*RemoteKeySet)

// WithHTTPClient sets the client used for discovery requests.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteKeySet) { r.client = c }
}

// WithCacheTTL overrides DefaultJWKSCacheTTL.
func WithCacheTTL(ttl time.Duration) RemoteOption {
	return func(r *RemoteKeySet) { r.ttl = ttl }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) RemoteOption {
	return func(r *RemoteKeySet) { r.now = now }
}

// NewRemoteKeySet returns a key set backed by the JWKS document at url.
// Nothing is fetched until the first lookup.
func NewRemoteKeySet(url string, opts ...RemoteOption) *RemoteKeySet {
	r := &RemoteKeySet{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    DefaultJWKSCacheTTL,
		now:    time.Now,
		keys:   NewKeySet(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the public key for kid, fetching the key set first if the
// cache is empty or older than the TTL. Every failure wraps ErrKeyResolution.
func (r *RemoteKeySet) Key(ctx context.Context, kid string) (any, error) {
	if r.stale() {
		if err := r.refresh(ctx); err != nil {
			return nil, err
		}
	}

	key, err := r.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("%w: kid %q: %w", ErrKeyResolution, kid, err)
	}
	return key, nil
}

// IsReady reports whether a key set has been loaded and is within its TTL.
func (r *RemoteKeySet) IsReady() bool {
	return !r.stale()
}

func (r *RemoteKeySet) stale() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchedAt.IsZero() || r.now().Sub(r.fetchedAt) >= r.ttl
}

func (r *RemoteKeySet) refresh(ctx context.Context) error {
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	// Another caller may have refreshed while we waited.
	if !r.stale() {
		return nil
	}

	jwks, err := r.fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyResolution, err)
	}
	if _, err := r.keys.ResetFromJWKS(jwks); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyResolution, err)
	}

	r.mu.Lock()
	r.fetchedAt = r.now()
	r.mu.Unlock()
	return nil
}

func (r *RemoteKeySet) fetch(ctx context.Context) (JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return JWKS{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return JWKS{}, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JWKS{}, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBytes)).Decode(&jwks); err != nil {
		return JWKS{}, fmt.Errorf("decode jwks: %w", err)
	}
	return jwks, nil
}
