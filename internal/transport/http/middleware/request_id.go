package middleware

import (
	"net/http"

	"github.com/google/uuid"

	pkgctx "github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID honors an incoming X-Request-Id or mints one, echoes it on the
// response and stores it in the request context for logging.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderXRequestID, reqID)

		ctx := pkgctx.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
