package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/aussiebroadwan/mediagate/pkg/scopes"
	"github.com/aussiebroadwan/mediagate/pkg/signedurl"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

// writeError maps a service or package error onto the error envelope.
// Anything unrecognised is logged and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, reg *svcerr.Registry, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidTOTPCode):
		reg.Write(w, svcerr.InvalidCredentials, http.StatusUnauthorized, nil)
	case errors.Is(err, service.ErrTOTPRequired):
		reg.Write(w, svcerr.InvalidCredentials, http.StatusUnauthorized, map[string]bool{"totp_required": true})

	case errors.Is(err, service.ErrMediaNotFound),
		errors.Is(err, service.ErrVideoNotFound):
		reg.Write(w, svcerr.MediaNotFound, http.StatusNotFound, nil)
	case errors.Is(err, store.ErrNotFound):
		reg.Write(w, svcerr.ResourceNotFound, http.StatusNotFound, nil)
	case errors.Is(err, store.ErrAlreadyExists):
		reg.Write(w, svcerr.InvalidRequest, http.StatusConflict, nil)

	case errors.Is(err, service.ErrUploadTooLarge):
		reg.Write(w, svcerr.InvalidRequest, http.StatusRequestEntityTooLarge, map[string]string{"reason": err.Error()})
	case errors.Is(err, service.ErrEmptyUpload),
		errors.Is(err, service.ErrInvalidFile),
		errors.Is(err, scopes.ErrUnknownScope):
		reg.Write(w, svcerr.InvalidRequest, http.StatusBadRequest, map[string]string{"reason": err.Error()})
	case errors.Is(err, service.ErrInvalidService):
		reg.Write(w, svcerr.DestinationNotSpecified, http.StatusBadRequest, nil)

	case errors.Is(err, signedurl.ErrLinkExpired):
		reg.Write(w, svcerr.InvalidTimestamp, http.StatusForbidden, nil)
	case errors.Is(err, signedurl.ErrInvalidSignature):
		reg.Write(w, svcerr.InvalidHmac, http.StatusForbidden, nil)

	case errors.Is(err, jwtx.ErrExpired):
		reg.Write(w, svcerr.JWTBearerExpired, http.StatusForbidden, nil)
	case jwtx.Reason(err) != "error":
		reg.Write(w, svcerr.TokenRejected, http.StatusUnauthorized, nil)

	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		reg.Write(w, svcerr.ServiceFailure, http.StatusInternalServerError, nil)
	}
}
