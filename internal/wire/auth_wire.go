package wire

import (
	"account-service/internal/adaptor"
	"account-service/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireAuth mounts registration, login and session routes under /users.
func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, log *zap.Logger) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/reset-password", authHandler.ResetPassword)

	// ==================== PROTECTED ROUTES ====================
	r.With(middleware.BearerToken(log)).Get("/me", authHandler.Me)
}
