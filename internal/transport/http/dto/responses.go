package dto

import "github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"

// AccountView is the standard account payload for responses. The password
// hash and stored tokens never leave the service.
type AccountView struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	EmailVerified bool   `json:"email_verified"`
}

func NewAccountView(a domain.Account) AccountView {
	return AccountView{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.Name,
		Role:          a.Role,
		Status:        string(a.Status),
		EmailVerified: a.EmailVerified,
	}
}

// TokensView is the access token payload. The refresh token is set as an
// HttpOnly cookie, never returned in JSON.
type TokensView struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // "Bearer"
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// AuthData is returned by register and login.
type AuthData struct {
	Account AccountView `json:"account"`
	Tokens  TokensView  `json:"tokens"`
}

// RefreshData is returned by refresh.
type RefreshData struct {
	Tokens TokensView `json:"tokens"`
}

type StatusData struct {
	Status string `json:"status"`
}

type ResetTokenValidity struct {
	Valid bool `json:"valid"`
}
