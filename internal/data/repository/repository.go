package repository

import (
	"context"

	"account-service/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Repository struct {
	User UserRepository
	OTP  OTPRepository
}

// NewRepository builds the postgres-backed repositories
func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User: NewUserRepository(db, log),
		OTP:  NewOTPRepository(db, log),
	}
}

// NewMongoRepository builds the document-store repositories and makes sure
// the user indexes exist.
func NewMongoRepository(ctx context.Context, db *mongo.Database, log *zap.Logger) (*Repository, error) {
	users := newUserMongoRepository(db, log)
	if err := users.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	return &Repository{
		User: users,
		OTP:  NewOTPMongoRepository(db, log),
	}, nil
}
