package jwtx

import "errors"

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")

	// ErrRefreshTokenMisuse is returned when a refresh token is presented on
	// a path that only accepts access tokens, even if it is otherwise valid.
	ErrRefreshTokenMisuse = errors.New("jwtx: refresh token used as access token")
	ErrNotRefreshToken    = errors.New("jwtx: not a refresh token")

	// ErrKeyResolution covers federated key discovery failures: the JWKS
	// endpoint was unreachable or did not contain the token's kid.
	ErrKeyResolution = errors.New("jwtx: key resolution failed")
	ErrNoKey         = errors.New("jwtx: key not found")
)

// Reason maps a verification error onto a short stable label for logs and
// metrics. Unknown errors map to "error".
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrAlgMismatch):
		return "alg_mismatch"
	case errors.Is(err, ErrInvalidSig):
		return "invalid_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, ErrIssuer):
		return "issuer"
	case errors.Is(err, ErrAudience):
		return "audience"
	case errors.Is(err, ErrRefreshTokenMisuse):
		return "refresh_misuse"
	case errors.Is(err, ErrNotRefreshToken):
		return "not_refresh"
	case errors.Is(err, ErrKeyResolution):
		return "key_resolution"
	case errors.Is(err, ErrInvalidClaim):
		return "invalid_claims"
	default:
		return "error"
	}
}
