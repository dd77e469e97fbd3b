package usecase

import (
	"account-service/internal/data/repository"
	"account-service/pkg/mailer"
	"account-service/pkg/utils"

	"go.uber.org/zap"
)

// Hasher is the password hashing primitive.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

// TokenCodec signs and verifies session tokens over (email, passwordHash).
type TokenCodec interface {
	Issue(email, passwordHash string) (string, error)
	Verify(token string) (*utils.TokenClaims, error)
}

type Service struct {
	Auth AuthService
	User UserService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	hasher Hasher,
	tokens TokenCodec,
	mail mailer.Mailer,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth: NewAuthService(repo, config, hasher, tokens, mail, log),
		User: NewUserService(repo.User, hasher, tokens, log),
	}
}

// decodeToken verifies a bearer token. Any failure is ErrUnauthorized.
func decodeToken(tokens TokenCodec, token string, log *zap.Logger) (*utils.TokenClaims, error) {
	claims, err := tokens.Verify(token)
	if err != nil {
		log.Warn("Token rejected", zap.Error(err))
		return nil, ErrUnauthorized
	}
	return claims, nil
}
