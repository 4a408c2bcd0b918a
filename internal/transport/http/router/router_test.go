package router

import (
	"net/http"
	"testing"
)

type stubHealth struct{}

func (stubHealth) Healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
func (stubHealth) Readyz(w http.ResponseWriter, r *http.Request)  { w.WriteHeader(http.StatusOK) }

type stubAuth struct{}

func (stubAuth) Register(w http.ResponseWriter, r *http.Request)           {}
func (stubAuth) Login(w http.ResponseWriter, r *http.Request)              {}
func (stubAuth) Refresh(w http.ResponseWriter, r *http.Request)            {}
func (stubAuth) Logout(w http.ResponseWriter, r *http.Request)             {}
func (stubAuth) VerifyEmail(w http.ResponseWriter, r *http.Request)        {}
func (stubAuth) ResendVerification(w http.ResponseWriter, r *http.Request) {}
func (stubAuth) ForgotPassword(w http.ResponseWriter, r *http.Request)     {}
func (stubAuth) ValidateResetToken(w http.ResponseWriter, r *http.Request) {}
func (stubAuth) ResetPassword(w http.ResponseWriter, r *http.Request)      {}
func (stubAuth) PasswordChange(w http.ResponseWriter, r *http.Request)     {}

func passthrough(next http.Handler) http.Handler { return next }

func TestNew_RequiresHandlersAndMiddleware(t *testing.T) {
	valid := Deps{
		Health: stubHealth{},
		Auth:   stubAuth{},
		MW:     Middleware{RequestID: passthrough, Auth: passthrough},
	}

	if _, err := New(valid); err != nil {
		t.Fatalf("valid deps: %v", err)
	}

	broken := []Deps{
		{Auth: stubAuth{}, MW: valid.MW},
		{Health: stubHealth{}, MW: valid.MW},
		{Health: stubHealth{}, Auth: stubAuth{}, MW: Middleware{Auth: passthrough}},
		{Health: stubHealth{}, Auth: stubAuth{}, MW: Middleware{RequestID: passthrough}},
	}
	for i, d := range broken {
		if _, err := New(d); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestNew_OptionalLimitersDefaultToPassthrough(t *testing.T) {
	h, err := New(Deps{
		Health: stubHealth{},
		Auth:   stubAuth{},
		MW:     Middleware{RequestID: passthrough, Auth: passthrough},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h == nil {
		t.Fatal("nil handler")
	}
}
