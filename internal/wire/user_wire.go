package wire

import (
	"account-service/internal/adaptor"
	"account-service/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, log *zap.Logger) {
	r.Get("/", userHandler.List)
	r.Get("/search/email", userHandler.SearchEmail)
	r.Get("/search/name", userHandler.SearchName)
	r.Delete("/", userHandler.Delete)

	r.With(middleware.BearerToken(log)).Patch("/", userHandler.Update)
}
