package auth

import (
	"log/slog"
	"net/http"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/httpx"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Middleware attaches the request's principal to its context. Requests
// without an Authorization header pass through unauthenticated; the gate
// rejects them where a permission is required.
func Middleware(resolver *Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := resolver.Resolve(r.Context(), header)
			if err != nil {
				if shared.KindOf(err) == shared.KindUpstream {
					logger.Error("resolve principal", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
		})
	}
}
