package http_handlers

import (
	"net/http"
	"time"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/application/session"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/security"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/logger"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/dto"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/middleware"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/response"
)

type AuthHandler struct {
	svc           *session.Service
	refreshTTL    time.Duration
	secureCookies bool
}

func NewAuthHandler(svc *session.Service, refreshTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		svc:           svc,
		refreshTTL:    refreshTTL,
		secureCookies: secureCookies,
	}
}

func (h *AuthHandler) authData(res session.AuthTokens, a domain.Account) dto.AuthData {
	return dto.AuthData{
		Account: dto.NewAccountView(a),
		Tokens: dto.TokensView{
			AccessToken: res.AccessToken,
			TokenType:   res.TokenType,
			ExpiresIn:   res.ExpiresIn,
		},
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	req.Normalize()
	if err := dto.ValidateStruct(&req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("account_id", res.Account.ID).
		Msg("account_registered")

	security.SetRefreshToken(w, res.Tokens.RefreshToken, h.refreshTTL, h.secureCookies)
	response.Created(w, h.authData(res.Tokens, res.Account))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	req.Normalize()
	if err := dto.ValidateStruct(&req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("account_id", res.Account.ID).
		Msg("account_logged_in")

	security.SetRefreshToken(w, res.Tokens.RefreshToken, h.refreshTTL, h.secureCookies)
	response.OK(w, h.authData(res.Tokens, res.Account))
}

// Refresh rotates the session: the expired access token arrives in the body,
// the refresh token in the HttpOnly cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.ValidateStruct(&req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	refreshTok, err := security.ReadRefreshToken(r)
	if err != nil || refreshTok == "" {
		response.WriteError(w, r, domain.ErrTokenInvalidOrExpired())
		return
	}

	toks, err := h.svc.Refresh(r.Context(), req.AccessToken, refreshTok)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	security.SetRefreshToken(w, toks.RefreshToken, h.refreshTTL, h.secureCookies)
	response.OK(w, dto.RefreshData{
		Tokens: dto.TokensView{
			AccessToken: toks.AccessToken,
			TokenType:   toks.TokenType,
			ExpiresIn:   toks.ExpiresIn,
		},
	})
}

// Logout ends the caller's session. With a valid bearer token the account's
// credential is cleared; otherwise the cookie value is revoked by lookup.
// Always 204: logging out twice is not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if accountID, ok := middleware.AccountIDFromContext(r.Context()); ok {
		if err := h.svc.Logout(r.Context(), accountID); err != nil {
			response.WriteError(w, r, err)
			return
		}
	} else if tok, err := security.ReadRefreshToken(r); err == nil && tok != "" {
		if err := h.svc.Revoke(r.Context(), tok); err != nil {
			response.WriteError(w, r, err)
			return
		}
	}

	security.ClearRefreshToken(w, h.secureCookies)
	response.NoContent(w)
}
