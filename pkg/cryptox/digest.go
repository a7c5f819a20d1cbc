package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// DigestSize is the length in hex characters of every digest produced here.
const DigestSize = sha256.Size * 2

// DigestHex returns the lowercase hex SHA-256 of b.
func DigestHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// DigestReaderHex streams r through SHA-256 and returns the hex digest.
// Used for content de-duplication of uploads.
func DigestReaderHex(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("cryptox: digest stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
