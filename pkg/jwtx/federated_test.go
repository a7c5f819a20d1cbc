package jwtx_test

import (
	"crypto"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	idpIssuer   = "https://idp.mediagate.test/"
	idpAudience = "https://api.mediagate.test"
)

// identityProvider is a minimal stand-in for an external IdP: it holds one
// key per algorithm and serves their public halves as a JWKS document.
type identityProvider struct {
	t       *testing.T
	keys    map[string]crypto.Signer
	jwks    jwtx.JWKS
	fetches atomic.Int32
	fail    atomic.Bool
	srv     *httptest.Server
}

func newIdentityProvider(t *testing.T, algs ...string) *identityProvider {
	t.Helper()
	idp := &identityProvider{t: t, keys: map[string]crypto.Signer{}}
	for _, alg := range algs {
		key, err := cryptox.GenerateSigningKey(alg)
		require.NoError(t, err)
		kid := "kid-" + alg
		j, err := jwtx.NewJWK(kid, alg, key.Public())
		require.NoError(t, err)
		idp.keys[alg] = key
		idp.jwks.Keys = append(idp.jwks.Keys, j)
	}

	idp.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idp.fetches.Add(1)
		if idp.fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(idp.jwks)
	}))
	t.Cleanup(idp.srv.Close)
	return idp
}

func (idp *identityProvider) sign(alg, kid string, claims jwt.Claims) string {
	idp.t.Helper()
	method := jwt.GetSigningMethod(alg)
	require.NotNil(idp.t, method)
	tok := jwt.NewWithClaims(method, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(idp.keys[alg])
	require.NoError(idp.t, err)
	return s
}

func identityClaims(now time.Time) *jwtx.FederatedIdentityClaims {
	return &jwtx.FederatedIdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    idpIssuer,
			Subject:   "auth0|user-1",
			Audience:  jwt.ClaimStrings{idpAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "user-1@example.com",
		Scope: "openid profile email",
	}
}

func TestFederatedVerifier_Algorithms(t *testing.T) {
	idp := newIdentityProvider(t, "RS256", "ES256", "EdDSA")
	keys := jwtx.NewRemoteKeySet(idp.srv.URL)
	v := jwtx.NewFederatedVerifier(keys, idpIssuer, []string{idpAudience})

	for _, alg := range []string{"RS256", "ES256", "EdDSA"} {
		t.Run(alg, func(t *testing.T) {
			tok := idp.sign(alg, "kid-"+alg, identityClaims(time.Now()))

			c, err := v.Verify(t.Context(), tok)
			require.NoError(t, err)
			require.Equal(t, "auth0|user-1", c.Subject)
			require.Equal(t, "user-1@example.com", c.Email)
		})
	}

	require.EqualValues(t, 1, idp.fetches.Load(), "key set should be fetched once and cached")
}

func TestFederatedVerifier_Rejections(t *testing.T) {
	idp := newIdentityProvider(t, "RS256", "ES256")
	v := jwtx.NewFederatedVerifier(jwtx.NewRemoteKeySet(idp.srv.URL), idpIssuer, []string{idpAudience})
	now := time.Now()

	t.Run("unknown kid", func(t *testing.T) {
		tok := idp.sign("RS256", "rotated-key", identityClaims(now))
		_, err := v.Verify(t.Context(), tok)
		require.ErrorIs(t, err, jwtx.ErrKeyResolution)
	})

	t.Run("missing kid", func(t *testing.T) {
		tok := idp.sign("RS256", "", identityClaims(now))
		_, err := v.Verify(t.Context(), tok)
		require.ErrorIs(t, err, jwtx.ErrKeyResolution)
	})

	t.Run("key type does not match alg", func(t *testing.T) {
		tok := idp.sign("ES256", "kid-RS256", identityClaims(now))
		_, err := v.Verify(t.Context(), tok)
		require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
	})

	t.Run("signed by another key", func(t *testing.T) {
		stranger := newIdentityProvider(t, "RS256")
		tok := stranger.sign("RS256", "kid-RS256", identityClaims(now))
		_, err := v.Verify(t.Context(), tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("symmetric alg", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims(now))
		tok.Header["kid"] = "kid-RS256"
		s, err := tok.SignedString([]byte("guess"))
		require.NoError(t, err)
		_, err = v.Verify(t.Context(), s)
		require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
	})

	t.Run("expired", func(t *testing.T) {
		c := identityClaims(now.Add(-2 * time.Hour))
		_, err := v.Verify(t.Context(), idp.sign("RS256", "kid-RS256", c))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := identityClaims(now)
		c.Audience = jwt.ClaimStrings{"https://other.test"}
		_, err := v.Verify(t.Context(), idp.sign("RS256", "kid-RS256", c))
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := identityClaims(now)
		c.Issuer = "https://evil.test/"
		_, err := v.Verify(t.Context(), idp.sign("RS256", "kid-RS256", c))
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := v.Verify(t.Context(), "not-a-token")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestRemoteKeySet_CacheWindow(t *testing.T) {
	idp := newIdentityProvider(t, "EdDSA")

	var mu sync.Mutex
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	keys := jwtx.NewRemoteKeySet(idp.srv.URL, jwtx.WithClock(clock))
	require.False(t, keys.IsReady())

	_, err := keys.Key(t.Context(), "kid-EdDSA")
	require.NoError(t, err)
	require.True(t, keys.IsReady())
	require.EqualValues(t, 1, idp.fetches.Load())

	// Unknown kids inside the window do not trigger a refetch.
	_, err = keys.Key(t.Context(), "kid-new")
	require.ErrorIs(t, err, jwtx.ErrKeyResolution)
	require.ErrorIs(t, err, jwtx.ErrNoKey)
	require.EqualValues(t, 1, idp.fetches.Load())

	advance(59 * time.Minute)
	_, err = keys.Key(t.Context(), "kid-EdDSA")
	require.NoError(t, err)
	require.EqualValues(t, 1, idp.fetches.Load())

	advance(time.Minute)
	_, err = keys.Key(t.Context(), "kid-EdDSA")
	require.NoError(t, err)
	require.EqualValues(t, 2, idp.fetches.Load(), "expired cache should refetch")
}

func TestRemoteKeySet_FetchFailure(t *testing.T) {
	idp := newIdentityProvider(t, "RS256")
	idp.fail.Store(true)

	keys := jwtx.NewRemoteKeySet(idp.srv.URL, jwtx.WithCacheTTL(time.Minute))
	_, err := keys.Key(t.Context(), "kid-RS256")
	require.ErrorIs(t, err, jwtx.ErrKeyResolution)

	// A failed fetch is not cached, the next lookup tries again.
	idp.fail.Store(false)
	_, err = keys.Key(t.Context(), "kid-RS256")
	require.NoError(t, err)
	require.EqualValues(t, 2, idp.fetches.Load())
}

func TestRemoteKeySet_ConcurrentLookupsShareFetch(t *testing.T) {
	idp := newIdentityProvider(t, "ES256")
	keys := jwtx.NewRemoteKeySet(idp.srv.URL)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := keys.Key(t.Context(), "kid-ES256")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, idp.fetches.Load())
}
