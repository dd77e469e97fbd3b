package wire

import (
	"net/http"
	"time"

	"account-service/internal/adaptor"
	"account-service/internal/data/repository"
	"account-service/internal/usecase"
	"account-service/pkg/mailer"
	"account-service/pkg/middleware"
	"account-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired router.
type App struct {
	Router *chi.Mux
}

// Wiring builds the collaborators, services and handlers once and mounts them.
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	hasher := utils.NewPasswordHasher(config.Security.BcryptCost)
	tokens := utils.NewTokenManager(
		config.JWT.Secret,
		config.JWT.Issuer,
		time.Duration(config.JWT.ExpiryHours)*time.Hour,
	)
	mail := mailer.New(config.Email, logger)

	service := usecase.NewService(repo, config, hasher, tokens, mail, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router: setupRouter(handler, config, logger),
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, utils.ErrorResponse{Msg: "Method not allowed"})
	})

	r.Route("/users", func(r chi.Router) {
		wireAuth(r, handler.Auth, logger)
		wireUser(r, handler.User, logger)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil, "")
	})

	return r
}
