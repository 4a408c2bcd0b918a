package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/application/session"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/memory"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/security"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/middleware"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/response"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/router"
)

// newTestServer wires the real service against in-memory infrastructure,
// so handler tests exercise the full chain below the network.
func newTestServer(t *testing.T) (*httptest.Server, *memory.AccountStore) {
	t.Helper()

	store := memory.NewAccountStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	signer := security.NewJWTSigner("test-secret", "auth-service-test")

	svc := session.NewService(store, hasher, signer, noopPublisher{}, session.Config{
		AccessTTL:             15 * time.Minute,
		RefreshTTL:            7 * 24 * time.Hour,
		VerifyEmailBaseURL:    "https://app.test/verify-email?token=",
		PasswordResetBaseURL:  "https://app.test/reset-password?token=",
		VerifyEmailTokenTTL:   24 * time.Hour,
		PasswordResetTokenTTL: 30 * time.Minute,
	})

	auth := NewAuthHandler(svc, 7*24*time.Hour, false)
	health := NewHealthHandler(nil)

	h, err := router.New(router.Deps{
		Health: health,
		Auth:   auth,
		MW: router.Middleware{
			RequestID:    middleware.RequestID,
			Auth:         middleware.Auth(signer, response.WriteError),
			OptionalAuth: middleware.OptionalAuth(signer),
		},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, store
}

type noopPublisher struct{}

func (noopPublisher) PublishVerificationEmail(context.Context, session.VerificationEmailEvent) error {
	return nil
}

func (noopPublisher) PublishPasswordResetEmail(context.Context, session.PasswordResetEmailEvent) error {
	return nil
}

func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

// mustReadData decodes the {"data": ...} envelope into out.
func mustReadData(t *testing.T, r io.Reader, out any) {
	t.Helper()
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	wrapped := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped.Data) == 0 {
		t.Fatalf("decode envelope failed; body=%s", string(raw))
	}
	if err := json.Unmarshal(wrapped.Data, out); err != nil {
		t.Fatalf("decode data failed; body=%s err=%v", string(raw), err)
	}
}

func mustReadErrorCode(t *testing.T, r io.Reader) string {
	t.Helper()
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode error body failed; body=%s", string(raw))
	}
	return body.Error.Code
}

func readCookie(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func postJSON(t *testing.T, client *http.Client, url string, body any, cookies []*http.Cookie, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, mustJSONBody(t, body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return res
}
