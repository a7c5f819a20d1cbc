package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/domain"
	mghttp "github.com/aussiebroadwan/mediagate/internal/mediagate/http"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob/memory"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/drivers/sqlite"
	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/aussiebroadwan/mediagate/pkg/mediasdk"
	"github.com/aussiebroadwan/mediagate/pkg/scopes"
	"github.com/aussiebroadwan/mediagate/pkg/signedurl"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://auth.example.com"
	testAudience = "mediagate"
	testDomain   = "iam.example.com"
)

type fakeIdentity struct {
	claims jwtx.FederatedIdentityClaims
	err    error
}

func (f fakeIdentity) Verify(_ context.Context, token string) (jwtx.FederatedIdentityClaims, error) {
	if token != "idp-token" {
		return jwtx.FederatedIdentityClaims{}, jwtx.ErrInvalidSig
	}
	return f.claims, f.err
}

type testEnv struct {
	srv    *httptest.Server
	tokens *jwtx.HS256
	store  *sqlite.Store
	blobs  *memory.Store
	user   domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens, err := jwtx.NewHS256([]byte("access-secret"), jwtx.HS256Options{
		Issuer:   testIssuer,
		Audience: []string{testAudience},
	})
	require.NoError(t, err)

	serviceTokens, err := jwtx.NewHS256([]byte("service-secret"), jwtx.HS256Options{Issuer: testIssuer})
	require.NoError(t, err)

	images, err := signedurl.New([]byte("image-secret"), signedurl.Options{PathPrefix: "v1/images"})
	require.NoError(t, err)
	videos, err := signedurl.New([]byte("video-secret"), signedurl.Options{PathPrefix: "v1/videos"})
	require.NoError(t, err)

	reg, err := scopes.Default()
	require.NoError(t, err)

	blobs := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := mghttp.NewRouter(mghttp.RouterConfig{
		Store:    st,
		Blobs:    blobs,
		Errors:   svcerr.Default(),
		Scopes:   reg,
		Verifier: tokens,
		Identity: fakeIdentity{claims: jwtx.FederatedIdentityClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "idp|42", Issuer: "https://idp.example.com"},
			Email:            "bob@example.com",
			Scope:            "read:videos",
		}},
		BuildVersion: "test",
		Logger:       logger,
	})
	router.SessionService = &service.SessionService{
		Store:    st,
		Tokens:   tokens,
		Scopes:   reg,
		Hasher:   cryptox.PasswordHasher{Pepper: "pepper"},
		Audience: []string{testAudience},
	}
	router.ExchangeService = &service.ExchangeService{Tokens: serviceTokens, Domain: testDomain, Scopes: reg}
	router.MediaService = &service.MediaService{Store: st, Blobs: blobs, Signer: images}
	router.PlaybackService = &service.PlaybackService{Store: st, Blobs: blobs, Signer: videos}
	router.ApplyRoutes()

	user, _, err := router.SessionService.CreateUser(context.Background(), service.NewUser{
		Email:    "alice@example.com",
		Password: "correct horse",
		Scope:    "openid profile read:photos read:videos",
	})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, tokens: tokens, store: st, blobs: blobs, user: user}
}

func (e *testEnv) token(t *testing.T, scope string) string {
	t.Helper()
	return e.tokenFor(t, e.user.ID, scope)
}

func (e *testEnv) tokenFor(t *testing.T, subject, scope string) string {
	t.Helper()
	tok, err := e.tokens.Issue(jwtx.NewAccessClaims(subject, scope, []string{testAudience}, nil), time.Hour)
	require.NoError(t, err)
	return tok.JWT
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRouter_ScopeEnforcement(t *testing.T) {
	env := newTestEnv(t)
	tok := env.tokenFor(t, "user-1", "read:photos")

	resp := env.do(t, http.MethodGet, "/v1/media", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"sub":"user-1"`)

	var list mediasdk.MediaListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.True(t, list.Success)
	require.Equal(t, "user-1", list.Sub)
	require.Empty(t, list.Images)

	resp = env.do(t, http.MethodPost, "/v1/media", tok, strings.NewReader("png bytes"))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "insufficient_scope")
	errResp := decode[svcerr.Response](t, resp)
	require.Equal(t, svcerr.InsufficientScope, errResp.FirstCode())
}

func TestRouter_Authentication(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/v1/media", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, svcerr.InvalidAuthenticationToken, decode[svcerr.Response](t, resp).FirstCode())
	})

	t.Run("refresh token refused", func(t *testing.T) {
		_, refresh, err := env.tokens.IssuePair(env.user.ID, "read:photos", []string{testAudience}, nil, time.Hour, time.Hour)
		require.NoError(t, err)
		resp := env.do(t, http.MethodGet, "/v1/media", refresh.JWT, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, svcerr.IllegalRefreshToken, decode[svcerr.Response](t, resp).FirstCode())
	})

	t.Run("expired", func(t *testing.T) {
		past, err := jwtx.NewHS256([]byte("access-secret"), jwtx.HS256Options{
			Issuer:   testIssuer,
			Audience: []string{testAudience},
			Now:      func() time.Time { return time.Now().Add(-3 * time.Hour) },
		})
		require.NoError(t, err)
		tok, err := past.Issue(jwtx.NewAccessClaims(env.user.ID, "read:photos", []string{testAudience}, nil), time.Hour)
		require.NoError(t, err)

		resp := env.do(t, http.MethodGet, "/v1/media", tok.JWT, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, svcerr.JWTBearerExpired, decode[svcerr.Response](t, resp).FirstCode())
	})

	t.Run("query parameter", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/v1/auth/verify?access_token="+env.token(t, "openid"), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestRouter_LoginFlow(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(mediasdk.LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	resp := env.do(t, http.MethodPost, "/v1/auth/login", "", bytes.NewReader(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	tr := decode[mediasdk.TokenResponse](t, resp)
	require.NotEmpty(t, tr.Token)
	require.NotEmpty(t, tr.RefreshToken)

	resp = env.do(t, http.MethodGet, "/v1/auth/me", tr.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[mediasdk.UserResponse](t, resp)
	require.Equal(t, "alice@example.com", me.User.Email)

	body, _ = json.Marshal(mediasdk.RefreshRequest{RefreshToken: tr.RefreshToken})
	resp = env.do(t, http.MethodPost, "/v1/auth/refresh", "", bytes.NewReader(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := decode[mediasdk.TokenResponse](t, resp)
	require.Empty(t, refreshed.RefreshToken)
	require.Equal(t, "openid profile read:photos read:videos", refreshed.Scope)

	body, _ = json.Marshal(mediasdk.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	resp = env.do(t, http.MethodPost, "/v1/auth/login", "", bytes.NewReader(body))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, svcerr.InvalidCredentials, decode[svcerr.Response](t, resp).FirstCode())
}

func TestRouter_MediaLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "read:photos write:photos")
	png := []byte("\x89PNG\r\n\x1a\n fake image payload")

	resp := env.do(t, http.MethodPost, "/v1/media", tok, bytes.NewReader(png))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[mediasdk.MediaResponse](t, resp)
	require.Equal(t, "image/png", created.Image.ContentType)
	require.NotEmpty(t, created.Image.URL)

	resp = env.do(t, http.MethodPost, "/v1/media", tok, bytes.NewReader(png))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dup := decode[mediasdk.MediaResponse](t, resp)
	require.True(t, dup.Duplicate)
	require.Equal(t, created.Image.ID, dup.Image.ID)

	// The signed link needs no bearer token.
	resp = env.do(t, http.MethodGet, created.Image.URL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Cache-Control"), "private")
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, png, got)

	tampered := strings.Replace(created.Image.URL, "token_exp=", "token_exp=1", 1)
	resp = env.do(t, http.MethodGet, tampered, "", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, svcerr.InvalidHmac, decode[svcerr.Response](t, resp).FirstCode())

	resp = env.do(t, http.MethodDelete, "/v1/media/"+created.Image.ID, tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	del := decode[mediasdk.DeleteResponse](t, resp)
	require.Equal(t, "delete", del.Operation.OperationType)
	require.True(t, del.Image.Deleted)

	resp = env.do(t, http.MethodGet, "/v1/media/"+created.Image.ID, tok, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, svcerr.MediaNotFound, decode[svcerr.Response](t, resp).FirstCode())

	resp = env.do(t, http.MethodGet, "/v1/media?start=-1", tok, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_Playback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Videos().CreateVideo(ctx, domain.Video{
		ID:      "vid-1",
		ShortID: "launch",
		Title:   "Launch",
		OwnerID: env.user.ID,
	}))
	playlist := []byte("#EXTM3U\nsegment0.ts\n")
	require.NoError(t, env.blobs.Put(ctx, blob.Object{
		Key:  domain.VideoBlobKey("vid-1", "output.m3u8"),
		Size: int64(len(playlist)),
	}, bytes.NewReader(playlist)))

	resp := env.do(t, http.MethodGet, "/v1/videos/launch", env.token(t, "read:photos"), nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/v1/videos/launch", env.token(t, "read:videos"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pb := decode[mediasdk.PlaybackResponse](t, resp)
	require.Equal(t, "vid-1", pb.Video.ID)
	require.Equal(t, int64(time.Hour/time.Second), pb.Access.Frame.End-pb.Access.Frame.Start)

	resp = env.do(t, http.MethodGet, pb.Access.PlaybackURL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/vnd.apple.mpegurl", resp.Header.Get("Content-Type"))

	// Segments resolve relative to the playlist and share its signature.
	seg, err := url.Parse(pb.Access.PlaybackURL)
	require.NoError(t, err)
	seg = seg.ResolveReference(&url.URL{Path: "segment0.ts"})
	resp = env.do(t, http.MethodGet, seg.Path, "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ServiceExchange(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/services/photos/token", "idp-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[mediasdk.ServiceTokenResponse](t, resp)
	require.NotEmpty(t, st.JWT)

	resp = env.do(t, http.MethodPost, "/v1/services/photos/token", "forged", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, svcerr.ExchangeTokenRejected, decode[svcerr.Response](t, resp).FirstCode())

	resp = env.do(t, http.MethodPost, "/v1/services/Bad_Service/token", "idp-token", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_System(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "test", decode[mediasdk.HealthResponse](t, resp).Version)

	resp = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ready := decode[mediasdk.HealthResponse](t, resp)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "disabled", ready.Checks.Keys)

	resp = env.do(t, http.MethodGet, "/v1/scopes", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, decode[mediasdk.ScopesResponse](t, resp).Scopes)

	resp = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	metrics, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(metrics), "mediagate_http_requests_total")

	resp = env.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
