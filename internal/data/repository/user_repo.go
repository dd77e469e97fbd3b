package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"account-service/internal/data/entity"
	"account-service/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// UserRepository is the account store. Every Find/Search only sees active users;
// lookups that match nothing return (nil, nil).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAllActive(ctx context.Context) ([]*entity.User, error)
	SearchActiveByEmail(ctx context.Context, pattern string) ([]*entity.User, error)
	SearchActiveByUsername(ctx context.Context, pattern string) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

const pgUniqueViolation = "23505"

const userColumns = `id, username, email, password, phone, identification, is_active, created_at, updated_at`

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

// Create inserts a new user record into the database
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, password, phone, identification,
		                   is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Identification,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("create user %s: %w", user.Email, ErrDuplicate)
		}
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
			zap.String("username", user.Username),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (ur *userRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`

	user, err := scanUser(ur.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return user, nil
}

func (ur *userRepository) FindActiveByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND is_active = TRUE`

	user, err := scanUser(ur.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find user by email %s: %w", email, err)
	}

	return user, nil
}

func (ur *userRepository) FindAllActive(ctx context.Context) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active = TRUE ORDER BY created_at DESC`
	return ur.queryUsers(ctx, "find all users", query)
}

// SearchActiveByEmail matches pattern as a case-insensitive literal substring
func (ur *userRepository) SearchActiveByEmail(ctx context.Context, pattern string) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE is_active = TRUE AND email ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY created_at DESC`
	return ur.queryUsers(ctx, "search users by email", query, escapeLike(pattern))
}

// SearchActiveByUsername matches pattern as a case-insensitive literal substring
func (ur *userRepository) SearchActiveByUsername(ctx context.Context, pattern string) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE is_active = TRUE AND username ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY created_at DESC`
	return ur.queryUsers(ctx, "search users by username", query, escapeLike(pattern))
}

// Update writes the mutable profile columns. Email is never part of the SET list.
func (ur *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET username = $2, password = $3, phone = $4, identification = $5,
		    updated_at = $6
		WHERE id = $1 AND is_active = TRUE
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Phone,
		user.Identification,
		user.UpdatedAt,
	)

	if err != nil {
		ur.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("update user %s: %w", user.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: %w", user.ID.String(), ErrNotFound)
	}

	return nil
}

// Deactivate soft-deletes the user; the row is kept.
func (ur *userRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active = TRUE`

	result, err := ur.db.Exec(ctx, query, id)
	if err != nil {
		ur.log.Error("Failed to deactivate user",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return fmt.Errorf("deactivate user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("deactivate user %s: %w", id.String(), ErrNotFound)
	}

	ur.log.Info("User deactivated", zap.String("id", id.String()))
	return nil
}

func (ur *userRepository) queryUsers(ctx context.Context, op, query string, args ...any) ([]*entity.User, error) {
	rows, err := ur.db.Query(ctx, query, args...)
	if err != nil {
		ur.log.Error("Failed to query users", zap.Error(err), zap.String("operation", op))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate users rows: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Identification,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
