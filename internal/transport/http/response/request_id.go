package response

import (
	"net/http"

	pkgctx "github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/pkg/context"
)

// RequestIDFromRequest extracts the request id set by the RequestID
// middleware, or "" when the middleware is not installed.
func RequestIDFromRequest(r *http.Request) string {
	if id, ok := pkgctx.RequestID(r.Context()); ok {
		return id
	}
	return ""
}
