package scopes_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aussiebroadwan/mediagate/pkg/scopes"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		granted  string
		required []scopes.Scope
		ok       bool
	}{
		{"single present", "read:photos write:photos", []scopes.Scope{scopes.ReadPhotos}, true},
		{"all present", "read:photos write:photos", []scopes.Scope{scopes.WritePhotos, scopes.ReadPhotos}, true},
		{"nothing required", "", nil, true},
		{"extra whitespace", "  read:photos\twrite:photos \n", []scopes.Scope{scopes.WritePhotos}, true},
		{"missing", "read:photos write:photos", []scopes.Scope{scopes.ReadLinks}, false},
		{"partially missing", "read:photos", []scopes.Scope{scopes.ReadPhotos, scopes.WritePhotos}, false},
		{"empty grant", "", []scopes.Scope{scopes.OpenID}, false},
		{"prefix is not a match", "read:photo", []scopes.Scope{scopes.ReadPhotos}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scopes.Authorize(tt.granted, tt.required...)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, scopes.ErrInsufficientScope)
		})
	}
}

func TestAuthorize_ReportsBothSets(t *testing.T) {
	err := scopes.Authorize("write:photos read:photos", scopes.ReadLinks)

	var ise *scopes.InsufficientScopeError
	require.True(t, errors.As(err, &ise))
	require.Equal(t, []string{"read:links"}, ise.Required)
	require.Equal(t, []string{"read:photos", "write:photos"}, ise.Granted)
	require.Equal(t, []string{"read:links"}, ise.Missing)
	require.Contains(t, ise.Error(), "read:links")
}

func TestAuthorize_SubsetLaw(t *testing.T) {
	all := []scopes.Scope{scopes.OpenID, scopes.ReadPhotos, scopes.WritePhotos, scopes.ReadLinks}

	// Every subset of the granted set passes; adding anything outside fails.
	granted := "openid read:photos write:photos"
	for mask := range 1 << 3 {
		var req []scopes.Scope
		for i := range 3 {
			if mask&(1<<i) != 0 {
				req = append(req, all[i])
			}
		}
		require.NoError(t, scopes.Authorize(granted, req...))
		require.Error(t, scopes.Authorize(granted, append(req, scopes.ReadLinks)...))
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := scopes.Default()
	require.NoError(t, err)

	for _, s := range []scopes.Scope{
		scopes.OpenID, scopes.Profile, scopes.OfflineAccess, scopes.Email,
		scopes.ReadSubscriptions, scopes.ReadPhotos, scopes.WritePhotos, scopes.ReadVideos,
		scopes.ReadLinks, scopes.WriteLinks, scopes.ReadSupport, scopes.WriteSupport,
	} {
		require.True(t, reg.Known(s), s)
	}
	require.False(t, reg.Known("admin:write"))
	require.Len(t, reg.All(), 12)

	require.NoError(t, reg.Validate("openid read:photos"))
	require.ErrorIs(t, reg.Validate("openid admin:write"), scopes.ErrUnknownScope)
}

func TestRegistry_Filter(t *testing.T) {
	reg, err := scopes.Default()
	require.NoError(t, err)

	kept, dropped := reg.Filter("openid admin:everything read:photos openid  write:root")
	require.Equal(t, "openid read:photos", kept)
	require.Equal(t, []string{"admin:everything", "write:root"}, dropped)
	require.NoError(t, reg.Validate(kept))

	kept, dropped = reg.Filter("")
	require.Empty(t, kept)
	require.Empty(t, dropped)
}

func TestRegistry_AllReturnsCopy(t *testing.T) {
	reg, err := scopes.Default()
	require.NoError(t, err)

	defs := reg.All()
	defs[0].Name = "tampered"
	require.True(t, reg.Known(scopes.OpenID))
	require.Equal(t, scopes.OpenID, reg.All()[0].Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":     "scopes: []",
		"duplicate": "scopes:\n  - name: a\n  - name: a\n",
		"blank":     "scopes:\n  - name: \"\"\n",
		"space":     "scopes:\n  - name: \"a b\"\n",
		"not yaml":  "scopes: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := scopes.Load(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}
