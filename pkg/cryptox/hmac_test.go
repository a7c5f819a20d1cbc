package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RFC 4231 test case 2.
const (
	rfcKey  = "Jefe"
	rfcData = "what do ya want for nothing?"
	rfcMAC  = "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
)

func TestHMACHex(t *testing.T) {
	got, err := HMACHex([]byte(rfcKey), []byte(rfcData))
	require.NoError(t, err)
	require.Equal(t, rfcMAC, got)

	// Deterministic for a fixed key and message.
	again, err := HMACHex([]byte(rfcKey), []byte(rfcData))
	require.NoError(t, err)
	require.Equal(t, got, again)

	other, err := HMACHex([]byte("jefe"), []byte(rfcData))
	require.NoError(t, err)
	require.NotEqual(t, got, other)
}

func TestHMAC_EmptyKey(t *testing.T) {
	_, err := NewMAC(nil)
	require.ErrorIs(t, err, ErrEmptyKey)

	_, err = HMACHex([]byte{}, []byte("x"))
	require.ErrorIs(t, err, ErrEmptyKey)

	_, err = HMACSum(nil, []byte("x"))
	require.ErrorIs(t, err, ErrEmptyKey)

	require.Panics(t, func() { MustNewMAC(nil) })
}

func TestMAC_Equal(t *testing.T) {
	m := MustNewMAC([]byte(rfcKey))
	msg := []byte(rfcData)

	require.True(t, m.Equal(msg, m.Sum(msg)))
	require.True(t, m.EqualHex(msg, rfcMAC))
	require.True(t, m.EqualHex(msg, strings.ToUpper(rfcMAC)))

	tampered := m.Sum(msg)
	tampered[0] ^= 0x01
	require.False(t, m.Equal(msg, tampered))
	require.False(t, m.EqualHex(msg, "not-hex"))
	require.False(t, m.EqualHex([]byte("other"), rfcMAC))
}

func TestMAC_KeyIsCopied(t *testing.T) {
	key := []byte(rfcKey)
	m := MustNewMAC(key)
	key[0] = 'X'

	require.Equal(t, rfcMAC, m.Hex([]byte(rfcData)))
}

func TestEqualHex(t *testing.T) {
	require.True(t, EqualHex(rfcMAC, rfcMAC))
	require.False(t, EqualHex(rfcMAC, rfcMAC[:10]))
}
