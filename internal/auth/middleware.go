package auth

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// WebhookAuth rejects requests whose Authorization header is not the
// shared secret configured in the Zoom app's event subscription.
func WebhookAuth(secret string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("Authorization")
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				log.Warn("webhook rejected: bad authorization header", zap.String("remote", r.RemoteAddr))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerMiddleware requires a bearer token accepted by v and stores the
// operator in the request context.
func BearerMiddleware(v TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw := stripBearerPrefix(header)
			if header == "" || raw == header {
				log.Warn("operator request rejected", zap.Error(ErrMissingBearer))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			op, err := v.Verify(r.Context(), raw)
			if err != nil {
				log.Warn("operator request rejected", zap.Error(err))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			log.Info("operator authenticated", zap.String("subject", op.Subject), zap.String("email", op.Email))
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), op)))
		})
	}
}
