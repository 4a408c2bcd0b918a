package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
	pkgctx "github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/pkg/context"
)

// ---------- helpers ----------

func mustDecodeJSONLine(t *testing.T, b []byte, dst any) {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(dst); err != nil {
		t.Fatalf("decode json: %v, body=%q", err, string(b))
	}
}

func newReqWithBody(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ---------- DecodeJSON ----------

type decodeDst struct {
	A string `json:"a"`
	B int    `json:"b"`
}

func TestDecodeJSON_OK_SingleObject(t *testing.T) {
	req := newReqWithBody(t, `{"a":"x","b":1}`)

	var dst decodeDst
	if err := DecodeJSON(req, &dst); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if dst.A != "x" || dst.B != 1 {
		t.Fatalf("unexpected dst: %+v", dst)
	}
}

func TestDecodeJSON_InvalidJSON(t *testing.T) {
	req := newReqWithBody(t, `{"a":"x",`)

	var dst decodeDst
	err := DecodeJSON(req, &dst)
	if !domain.Is(err, "invalid_json") {
		t.Fatalf("expected invalid_json, got %v", err)
	}
}

func TestDecodeJSON_RejectsMultipleValues(t *testing.T) {
	req := newReqWithBody(t, `{"a":"x"}{"a":"y"}`)

	var dst decodeDst
	err := DecodeJSON(req, &dst)
	if !domain.Is(err, "invalid_json") {
		t.Fatalf("expected invalid_json, got %v", err)
	}
}

// ---------- success writers ----------

func TestOK_WrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data map[string]string `json:"data"`
	}
	mustDecodeJSONLine(t, rec.Body.Bytes(), &body)
	if body.Data["hello"] != "world" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestCreated_Status(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestNoContent_EmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("body should be empty, got %q", rec.Body.String())
	}
}

// ---------- WriteError ----------

func TestWriteError_DomainErrorMapsKindAndCode(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.ErrMissingField("email"), http.StatusBadRequest, "missing_field"},
		{"auth", domain.ErrInvalidCredentials(), http.StatusUnauthorized, "invalid_credentials"},
		{"token", domain.ErrTokenInvalidOrExpired(), http.StatusUnauthorized, "token_invalid_or_expired"},
		{"not_found", domain.ErrAccountNotFound(), http.StatusNotFound, "account_not_found"},
		{"conflict", domain.ErrEmailAlreadyExists(), http.StatusConflict, "email_already_exists"},
		{"rate_limited", domain.ErrRateLimited("login"), http.StatusTooManyRequests, "rate_limited"},
		{"infra", domain.ErrDBUnavailable(errors.New("down")), http.StatusServiceUnavailable, "db_unavailable"},
		{"internal", domain.ErrInternal(errors.New("boom")), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			WriteError(rec, req, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var body ErrorBody
			mustDecodeJSONLine(t, rec.Body.Bytes(), &body)
			if body.Error.Code != tc.code {
				t.Fatalf("code = %q, want %q", body.Error.Code, tc.code)
			}
		})
	}
}

func TestWriteError_ForeignErrorIsOpaque500(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, errors.New("secret database password leaked"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorBody
	mustDecodeJSONLine(t, rec.Body.Bytes(), &body)
	if body.Error.Code != "internal_error" {
		t.Fatalf("code = %q", body.Error.Code)
	}
	if strings.Contains(body.Error.Message, "secret") {
		t.Fatalf("internal details leaked: %q", body.Error.Message)
	}
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(pkgctx.WithRequestID(req.Context(), "req-42"))

	WriteError(rec, req, domain.ErrInvalidCredentials())

	var body ErrorBody
	mustDecodeJSONLine(t, rec.Body.Bytes(), &body)
	if body.Error.RequestID != "req-42" {
		t.Fatalf("request_id = %q", body.Error.RequestID)
	}
}
