package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lahorneada/storefront/internal/pkg/requestmeta"
)

// AttachRequestMetadata copies the chi-generated request id into the context
// under our own key so the slog context handler and the checkout journal can
// read it without importing chi.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		ctx := requestmeta.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
