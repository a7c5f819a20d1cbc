package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	rc := &jwt.RegisteredClaims{Issuer: "api.mediagate.test"}

	require.NoError(t, jwtx.ValidateIssuer(rc, "api.mediagate.test"))
	require.NoError(t, jwtx.ValidateIssuer(rc, ""))
	require.ErrorIs(t, jwtx.ValidateIssuer(rc, "gateway.mediagate.test"), jwtx.ErrIssuer)
}

func TestValidateAudience(t *testing.T) {
	rc := &jwt.RegisteredClaims{Audience: []string{"photos", "videos"}}

	require.NoError(t, jwtx.ValidateAudience(rc, []string{"photos"}))
	require.NoError(t, jwtx.ValidateAudience(rc, []string{"links", "videos"}))
	require.NoError(t, jwtx.ValidateAudience(rc, nil))
	require.ErrorIs(t, jwtx.ValidateAudience(rc, []string{"support"}), jwtx.ErrAudience)
}

func TestValidateTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("missing exp", func(t *testing.T) {
		require.ErrorIs(t, jwtx.ValidateTime(&jwt.RegisteredClaims{}, now, 0), jwtx.ErrInvalidClaim)
	})

	t.Run("exp must be strictly after now", func(t *testing.T) {
		rc := &jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now)}
		require.ErrorIs(t, jwtx.ValidateTime(rc, now, 0), jwtx.ErrExpired)

		rc.ExpiresAt = jwt.NewNumericDate(now.Add(time.Second))
		require.NoError(t, jwtx.ValidateTime(rc, now, 0))
	})

	t.Run("nbf", func(t *testing.T) {
		rc := &jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
		}
		require.ErrorIs(t, jwtx.ValidateTime(rc, now, 0), jwtx.ErrNotYetValid)
		require.NoError(t, jwtx.ValidateTime(rc, now, 2*time.Minute))
	})
}

func TestCategoryValidation(t *testing.T) {
	access := jwtx.NewAccessClaims("user-1", "openid", nil, nil)
	require.NoError(t, access.Validate())

	// A refresh flag smuggled into access claims is still a refresh token.
	access.Refresh = true
	require.ErrorIs(t, access.Validate(), jwtx.ErrRefreshTokenMisuse)

	refresh := jwtx.NewRefreshClaims("user-1", "openid", nil)
	require.NoError(t, refresh.Validate())
	refresh.Refresh = false
	require.ErrorIs(t, refresh.Validate(), jwtx.ErrNotRefreshToken)

	fed := &jwtx.FederatedIdentityClaims{}
	require.ErrorIs(t, fed.Validate(), jwtx.ErrInvalidClaim)
}

func TestNewJTI(t *testing.T) {
	a, b := jwtx.NewJTI(), jwtx.NewJTI()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
