package middleware

import (
	"net/http"
	"strings"

	"account-service/pkg/utils"

	"go.uber.org/zap"
)

// BearerToken pulls "Authorization: Bearer <token>" into the request context.
// It only checks presence; the service verifies the token itself.
func BearerToken(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				logger.Warn("Malformed authorization header",
					zap.String("path", r.URL.Path),
					zap.String("request_id", utils.GetRequestIDFromContext(r.Context())))
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			ctx := utils.SetTokenContext(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
