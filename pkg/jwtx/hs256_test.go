package jwtx_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "api.mediagate.test"
	testAudience = "user-1@mediagate.test"
)

var testSecret = []byte("general-purpose-secret")

func newHS256(t *testing.T, now func() time.Time) *jwtx.HS256 {
	t.Helper()
	h, err := jwtx.NewHS256(testSecret, jwtx.HS256Options{
		Issuer:   testIssuer,
		Audience: []string{testAudience},
		Now:      now,
	})
	require.NoError(t, err)
	return h
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewHS256_EmptySecret(t *testing.T) {
	_, err := jwtx.NewHS256(nil, jwtx.HS256Options{})
	require.ErrorIs(t, err, cryptox.ErrEmptyKey)
}

func TestHS256_RoundTrip(t *testing.T) {
	h := newHS256(t, time.Now)

	claims := jwtx.NewAccessClaims("user-1", "read:photos write:photos", []string{testAudience},
		map[string]any{"plan": "pro"})
	tok, err := h.Issue(claims, time.Hour)
	require.NoError(t, err)
	require.True(t, h.Verify(tok.JWT))

	got, err := h.VerifyAccess(tok.JWT)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, testIssuer, got.Issuer)
	require.Equal(t, jwtx.TypeAccess, got.Type)
	require.Equal(t, []string{"read:photos", "write:photos"}, got.Scopes())
	require.Equal(t, "pro", got.Props["plan"])
	require.NotEmpty(t, got.ID)
	require.Equal(t, got.IssuedAt.Unix(), got.NotBefore.Unix())
	require.Equal(t, got.IssuedAt.Add(time.Hour).Unix(), got.ExpiresAt.Unix())
}

func TestHS256_TokenJSONShape(t *testing.T) {
	h := newHS256(t, time.Now)
	tok, err := h.Issue(jwtx.NewAccessClaims("user-1", "openid", nil, nil), time.Minute)
	require.NoError(t, err)

	raw, err := json.Marshal(tok)
	require.NoError(t, err)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Contains(t, body, "jwt")
	require.Contains(t, body, "payload")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body["payload"], &payload))
	require.Equal(t, "user-1", payload["sub"])
	require.Equal(t, "USER_ACCESS_TOKEN", payload["type"])
	require.IsType(t, float64(0), payload["exp"], "exp must be integer unix seconds")
}

func TestHS256_InteropWithGolangJWT(t *testing.T) {
	h := newHS256(t, time.Now)
	tok, err := h.Issue(jwtx.NewAccessClaims("user-1", "openid", []string{testAudience}, nil), time.Minute)
	require.NoError(t, err)

	var parsed jwtx.AccessClaims
	_, err = jwt.ParseWithClaims(tok.JWT, &parsed, func(*jwt.Token) (any, error) { return testSecret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(testIssuer),
		jwt.WithAudience(testAudience),
	)
	require.NoError(t, err)
	require.Equal(t, "user-1", parsed.Subject)
}

func TestHS256_TamperSensitivity(t *testing.T) {
	h := newHS256(t, time.Now)
	tok, err := h.Issue(jwtx.NewAccessClaims("user-1", "read:photos", nil, nil), time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok.JWT, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for bit := range len(sig) * 8 {
		flipped := append([]byte(nil), sig...)
		flipped[bit/8] ^= 1 << (bit % 8)
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(flipped)
		require.False(t, h.Verify(forged), "bit %d", bit)
	}

	t.Run("encoded signature characters", func(t *testing.T) {
		const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
		enc := parts[2]
		for i := range len(enc) {
			v := strings.IndexByte(alphabet, enc[i])
			require.GreaterOrEqual(t, v, 0)
			for bit := range 6 {
				forgedSig := enc[:i] + string(alphabet[v^(1<<bit)]) + enc[i+1:]
				forged := parts[0] + "." + parts[1] + "." + forgedSig
				require.False(t, h.Verify(forged), "char %d bit %d", i, bit)
			}
		}
	})

	t.Run("payload edit", func(t *testing.T) {
		var c map[string]any
		require.NoError(t, jwtx.DecodeClaims(tok.JWT, &c))
		c["scope"] = "read:photos write:photos"
		pb, _ := json.Marshal(c)
		forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(pb) + "." + parts[2]

		_, err := h.Check(forged)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte("photos-secret"), jwtx.HS256Options{Issuer: testIssuer})
		require.NoError(t, err)
		_, err = other.Check(tok.JWT)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})
}

func TestHS256_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	issuer := newHS256(t, fixedClock(issuedAt))

	tok, err := issuer.Issue(jwtx.NewAccessClaims("user-1", "", []string{testAudience}, nil), 10*time.Second)
	require.NoError(t, err)
	exp := issuedAt.Add(10 * time.Second)

	tests := []struct {
		name string
		now  time.Time
		err  error
	}{
		{"one second before exp", exp.Add(-time.Second), nil},
		{"at exp", exp, jwtx.ErrExpired},
		{"one second after exp", exp.Add(time.Second), jwtx.ErrExpired},
		{"before nbf", issuedAt.Add(-time.Second), jwtx.ErrNotYetValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newHS256(t, fixedClock(tt.now))
			_, err := v.VerifyAccess(tok.JWT)
			if tt.err == nil {
				require.NoError(t, err)
				require.True(t, v.Verify(tok.JWT))
				return
			}
			require.ErrorIs(t, err, tt.err)
			require.False(t, v.Verify(tok.JWT))
		})
	}
}

func TestHS256_Leeway(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	tok, err := newHS256(t, fixedClock(issuedAt)).
		Issue(jwtx.NewAccessClaims("user-1", "", nil, nil), time.Minute)
	require.NoError(t, err)

	v, err := jwtx.NewHS256(testSecret, jwtx.HS256Options{
		Leeway: 5 * time.Second,
		Now:    fixedClock(issuedAt.Add(time.Minute + 3*time.Second)),
	})
	require.NoError(t, err)
	require.True(t, v.Verify(tok.JWT))
}

func TestHS256_RefreshIsolation(t *testing.T) {
	h := newHS256(t, time.Now)

	access, refresh, err := h.IssuePair("user-1", "read:photos", []string{testAudience}, nil,
		jwtx.DefaultAccessTokenTTL, jwtx.DefaultRefreshTokenTTL)
	require.NoError(t, err)

	// Both are cryptographically valid and live.
	require.True(t, h.Verify(access.JWT))
	require.True(t, h.Verify(refresh.JWT))

	_, err = h.VerifyAccess(refresh.JWT)
	require.ErrorIs(t, err, jwtx.ErrRefreshTokenMisuse)

	_, err = h.VerifyRefresh(access.JWT)
	require.ErrorIs(t, err, jwtx.ErrNotRefreshToken)

	rc, err := h.VerifyRefresh(refresh.JWT)
	require.NoError(t, err)
	require.True(t, rc.Refresh)
	require.Equal(t, "read:photos", rc.Scope)
	require.True(t, rc.ExpiresAt.After(access.ExpiresAt))
}

func TestHS256_ServiceTokens(t *testing.T) {
	h, err := jwtx.NewHS256(testSecret, jwtx.HS256Options{
		Issuer:   "gateway.mediagate.test",
		Audience: []string{"photos.iam.mediagate.test"},
	})
	require.NoError(t, err)

	tok, err := h.Issue(jwtx.NewServiceClaims("auth0|abc", "photos.iam.mediagate.test",
		map[string]any{"email": "a@example.com"}), jwtx.DefaultServiceTokenTTL)
	require.NoError(t, err)

	sc, err := h.VerifyService(tok.JWT)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", sc.Props["email"])

	_, err = h.VerifyAccess(tok.JWT)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)

	_, err = h.Issue(jwtx.NewServiceClaims("auth0|abc", "", nil), time.Minute)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

func TestHS256_IssuerAndAudience(t *testing.T) {
	other, err := jwtx.NewHS256(testSecret, jwtx.HS256Options{Issuer: "someone-else"})
	require.NoError(t, err)
	tok, err := other.Issue(jwtx.NewAccessClaims("user-1", "", []string{testAudience}, nil), time.Minute)
	require.NoError(t, err)

	_, err = newHS256(t, time.Now).Check(tok.JWT)
	require.ErrorIs(t, err, jwtx.ErrIssuer)

	tok, err = newHS256(t, time.Now).Issue(jwtx.NewAccessClaims("user-1", "", []string{"elsewhere"}, nil), time.Minute)
	require.NoError(t, err)
	_, err = newHS256(t, time.Now).Check(tok.JWT)
	require.ErrorIs(t, err, jwtx.ErrAudience)
}

func TestHS256_RejectsOtherAlgorithms(t *testing.T) {
	h := newHS256(t, time.Now)

	none, err := jwtx.Encode(jwtx.Header{Alg: "none"}, jwtx.NewAccessClaims("user-1", "", nil, nil),
		func([]byte) ([]byte, error) { return nil, nil })
	require.NoError(t, err)

	_, err = h.Check(none)
	require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
	require.False(t, h.Verify(none))
}

func TestHS256_VerifyNeverPanics(t *testing.T) {
	h := newHS256(t, time.Now)
	for _, in := range []string{"", ".", "..", "a.b.c", "\x00.\x00.\x00", strings.Repeat(".", 10)} {
		require.NotPanics(t, func() { require.False(t, h.Verify(in)) })
	}
}

func TestHS256_IssueValidation(t *testing.T) {
	h := newHS256(t, time.Now)

	_, err := h.Issue(jwtx.NewAccessClaims("user-1", "", nil, nil), 0)
	require.Error(t, err)

	_, err = h.Issue(jwtx.NewAccessClaims("", "", nil, nil), time.Minute)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

func TestReason(t *testing.T) {
	require.Equal(t, "ok", jwtx.Reason(nil))
	require.Equal(t, "expired", jwtx.Reason(jwtx.ErrExpired))
	require.Equal(t, "refresh_misuse", jwtx.Reason(jwtx.ErrRefreshTokenMisuse))
	require.Equal(t, "error", jwtx.Reason(errDummy{}))
}

type errDummy struct{}

func (errDummy) Error() string { return "dummy" }
