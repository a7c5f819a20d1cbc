package http

import (
	"net/http"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/domain"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/pkg/httpx"
	"github.com/aussiebroadwan/mediagate/pkg/jwtx"
	"github.com/aussiebroadwan/mediagate/pkg/mediasdk"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

type SessionHandler struct {
	SessionService *service.SessionService
	Errors         *svcerr.Registry
}

// HandleLogin exchanges credentials for an access and refresh token pair.
//
//	@Summary		Log in
//	@Description	Checks email and password (and a TOTP code when enrolled) and issues tokens.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		mediasdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	mediasdk.TokenResponse
//	@Failure		400		{object}	svcerr.Response	"Malformed body"
//	@Failure		401		{object}	svcerr.Response	"Invalid credentials"
//	@Failure		429		{object}	svcerr.Response	"Rate limited"
//	@Router			/v1/auth/login [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req mediasdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.Errors.Write(w, svcerr.InvalidRequest, http.StatusBadRequest, map[string]string{"reason": err.Error()})
		return
	}

	sess, err := h.SessionService.Login(r.Context(), service.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		TOTPCode: req.TOTPCode,
	})
	if err != nil {
		slogx.FromContext(r.Context()).Info("login refused", "err", err)
		writeError(w, r, h.Errors, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mediasdk.TokenResponse{
		Success:      true,
		Token:        sess.Access.JWT,
		RefreshToken: sess.Refresh.JWT,
		ExpiresAt:    sess.Access.ExpiresAt.Unix(),
		Scope:        sess.User.Scope,
		Payload:      sess.Access.Payload,
	})
}

// HandleRefresh issues a new access token from a refresh token.
//
//	@Summary		Refresh an access token
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		mediasdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	mediasdk.TokenResponse
//	@Failure		401		{object}	svcerr.Response	"Refresh token rejected"
//	@Failure		403		{object}	svcerr.Response	"Refresh token expired"
//	@Router			/v1/auth/refresh [post].
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req mediasdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		h.Errors.Write(w, svcerr.InvalidRequest, http.StatusBadRequest, nil)
		return
	}

	tok, err := h.SessionService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}

	scope := ""
	if c, ok := tok.Payload.(*jwtx.AccessClaims); ok {
		scope = c.Scope
	}
	httpx.WriteJSON(w, http.StatusOK, mediasdk.TokenResponse{
		Success:   true,
		Token:     tok.JWT,
		ExpiresAt: tok.ExpiresAt.Unix(),
		Scope:     scope,
		Payload:   tok.Payload,
	})
}

// HandleVerify echoes the claims of a valid access token.
//
//	@Summary		Verify an access token
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	mediasdk.VerifyResponse
//	@Failure		401	{object}	svcerr.Response
//	@Failure		403	{object}	svcerr.Response
//	@Router			/v1/auth/verify [get].
func (h *SessionHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.AccessClaimsFrom(r.Context())
	if !ok {
		h.Errors.Write(w, svcerr.InvalidAuthenticationToken, http.StatusUnauthorized, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mediasdk.VerifyResponse{Success: true, Claims: claims})
}

// HandleMe returns the authenticated user's profile.
//
//	@Summary		Current user
//	@Description	Requires the 'profile' scope.
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	mediasdk.UserResponse
//	@Failure		401	{object}	svcerr.Response
//	@Failure		403	{object}	svcerr.Response	"Insufficient scope"
//	@Router			/v1/auth/me [get].
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.SessionService.Me(r.Context(), httpx.SubjectFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mediasdk.UserResponse{Success: true, User: userInfo(u)})
}

// HandleEnrollTOTP turns on the second factor and returns the otpauth URL
// once.
//
//	@Summary		Enroll TOTP
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	mediasdk.EnrollTOTPResponse
//	@Failure		401	{object}	svcerr.Response
//	@Router			/v1/auth/totp [post].
func (h *SessionHandler) HandleEnrollTOTP(w http.ResponseWriter, r *http.Request) {
	url, err := h.SessionService.EnrollTOTP(r.Context(), httpx.SubjectFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mediasdk.EnrollTOTPResponse{Success: true, URL: url})
}

func userInfo(u domain.User) mediasdk.UserInfo {
	return mediasdk.UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Scope:       u.Scope,
		TOTPEnabled: u.TOTPEnabled(),
		CreatedAt:   u.CreatedAt,
	}
}
