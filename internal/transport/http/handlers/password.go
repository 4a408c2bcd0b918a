package http_handlers

import (
	"net/http"
	"strings"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/security"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/logger"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/dto"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/middleware"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/response"
)

// PasswordChange is the authenticated change (requires the current password).
// A successful change revokes the live session, so clients must log in again.
func (h *AuthHandler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenInvalid())
		return
	}

	var req dto.PasswordChangeRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.ValidateStruct(&req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.PasswordChange(r.Context(), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("account_id", accountID).
		Msg("password_changed")

	security.ClearRefreshToken(w, h.secureCookies)
	response.OK(w, dto.StatusData{Status: "ok"})
}

// ForgotPassword always answers 200 with the same body whether or not the
// email maps to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	req.Normalize()
	if err := dto.ValidateStruct(&req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.PasswordResetRequest(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.StatusData{Status: "ok"})
}

// ValidateResetToken lets the frontend check a reset link before showing the
// form. GET /password/reset/validate?token=...
func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		response.WriteError(w, r, domain.ErrMissingField("token"))
		return
	}

	if err := h.svc.PasswordResetValidate(r.Context(), token); err != nil {
		if domain.Is(err, "token_invalid_or_expired") {
			response.OK(w, dto.ResetTokenValidity{Valid: false})
			return
		}
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ResetTokenValidity{Valid: true})
}

// ResetPassword consumes a reset token and installs the new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.ValidateStruct(&req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.PasswordResetConfirm(r.Context(), req.Token, req.NewPassword); err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Msg("password_reset_completed")

	security.ClearRefreshToken(w, h.secureCookies)
	response.OK(w, dto.StatusData{Status: "ok"})
}
