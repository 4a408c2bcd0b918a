package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	// Core auth
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)

	// Email verification
	VerifyEmail(w http.ResponseWriter, r *http.Request)
	ResendVerification(w http.ResponseWriter, r *http.Request)

	// Password reset
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	ValidateResetToken(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)

	// Account management
	PasswordChange(w http.ResponseWriter, r *http.Request)
}

// Middleware bundles the chain pieces bootstrap wires in. Rate limiters may
// be pass-through when Redis is not configured.
type Middleware struct {
	RequestID    func(http.Handler) http.Handler
	Auth         func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler

	LoginLimit    func(http.Handler) http.Handler
	RegisterLimit func(http.Handler) http.Handler
	ForgotLimit   func(http.Handler) http.Handler
	ResendLimit   func(http.Handler) http.Handler
}

type Deps struct {
	Health HealthHandler
	Auth   AuthHandler
	MW     Middleware
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.MW.RequestID == nil {
		return nil, fmt.Errorf("nil RequestID middleware")
	}
	if deps.MW.Auth == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}

	passthrough := func(next http.Handler) http.Handler { return next }
	mw := deps.MW
	if mw.OptionalAuth == nil {
		mw.OptionalAuth = passthrough
	}
	if mw.LoginLimit == nil {
		mw.LoginLimit = passthrough
	}
	if mw.RegisterLimit == nil {
		mw.RegisterLimit = passthrough
	}
	if mw.ForgotLimit == nil {
		mw.ForgotLimit = passthrough
	}
	if mw.ResendLimit == nil {
		mw.ResendLimit = passthrough
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)

	r.Route("/auth/v1", func(r chi.Router) {
		// --- Core auth ---
		r.With(mw.RegisterLimit).Post("/register", deps.Auth.Register)
		r.With(mw.LoginLimit).Post("/login", deps.Auth.Login)
		r.Post("/refresh", deps.Auth.Refresh)
		r.With(mw.OptionalAuth).Post("/logout", deps.Auth.Logout)

		// --- Email verification ---
		r.Post("/verify-email/confirm", deps.Auth.VerifyEmail)
		r.With(mw.ResendLimit).Post("/verify-email/request", deps.Auth.ResendVerification)

		// --- Password reset ---
		r.With(mw.ForgotLimit).Post("/password/reset/request", deps.Auth.ForgotPassword)
		r.Get("/password/reset/validate", deps.Auth.ValidateResetToken) // ?token=...
		r.Post("/password/reset/confirm", deps.Auth.ResetPassword)

		// --- Account management ---
		r.With(mw.Auth).Post("/password/change", deps.Auth.PasswordChange)
	})

	return r, nil
}
