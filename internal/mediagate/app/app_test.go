package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/mediagate/pkg/mediasdk"
	"github.com/stretchr/testify/require"
)

func TestNew_DevDefaultsAndSeed(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.Store.DatabaseFile = filepath.Join(t.TempDir(), "app.db")
	cfg.Log.Level = "error"
	cfg.Seed.Email = "admin@example.com"
	cfg.Seed.Password = "bootstrap-password"

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.db.Close() })

	require.NotEmpty(t, a.cfg.Tokens.Secret)
	require.NotEqual(t, a.cfg.Tokens.Secret, a.cfg.Media.PhotosSecret)
	require.Nil(t, a.identity)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/v1/auth/login", "application/json",
		strings.NewReader(`{"email":"admin@example.com","password":"bootstrap-password"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tr mediasdk.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	require.Contains(t, tr.Scope, "write:photos")

	// No identity provider configured: the exchange route is absent.
	resp2, err := http.Post(srv.URL+"/v1/services/photos/token", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.Env = "prod"
	cfg.Log.Level = "error"
	cfg.Store.DatabaseFile = filepath.Join(t.TempDir(), "app.db")

	_, err = New(cfg)
	require.ErrorContains(t, err, "MEDIAGATE_JWT_SECRET is required")
}
