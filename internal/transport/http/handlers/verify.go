package http_handlers

import (
	"net/http"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/logger"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/dto"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/response"
)

// VerifyEmail consumes a verification token and marks the account verified.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.ValidateStruct(&req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.VerifyEmailConfirm(r.Context(), req.Token); err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Msg("email_verified")
	response.OK(w, dto.StatusData{Status: "verified"})
}

// ResendVerification re-issues the verification link. Same 200 whether or
// not the email maps to an unverified account.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendVerificationRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	req.Normalize()
	if err := dto.ValidateStruct(&req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.VerifyEmailRequest(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.StatusData{Status: "ok"})
}
