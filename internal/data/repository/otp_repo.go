package repository

import (
	"context"
	"errors"
	"fmt"

	"account-service/internal/data/entity"
	"account-service/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OTPRepository stores single-use codes. FindActiveOTP returns the newest
// unused, unexpired code for the address, or (nil, nil).
type OTPRepository interface {
	Create(ctx context.Context, otp *entity.OTP) error
	FindActiveOTP(ctx context.Context, email, otpType string) (*entity.OTP, error)
	IncrementAttempts(ctx context.Context, otpID uuid.UUID) (int, error)
	MarkAsUsed(ctx context.Context, otpID uuid.UUID) error
	InvalidateForUser(ctx context.Context, userID uuid.UUID, otpType string) error
}

type otpRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOTPRepository(db database.PgxIface, log *zap.Logger) OTPRepository {
	return &otpRepository{
		db:  db,
		log: log.With(zap.String("repository", "otp")),
	}
}

func (r *otpRepository) Create(ctx context.Context, otp *entity.OTP) error {
	query := `
		INSERT INTO otps (id, user_id, email, otp_code, otp_type,
		                  expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		otp.ID,
		otp.UserID,
		otp.Email,
		otp.OTPCode,
		otp.OTPType,
		otp.ExpiresAt,
		otp.IsUsed,
		otp.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create OTP",
			zap.Error(err),
			zap.String("email", otp.Email),
			zap.String("otp_type", string(otp.OTPType)),
		)
		return fmt.Errorf("create OTP for %s: %w", otp.Email, err)
	}

	return nil
}

func (r *otpRepository) FindActiveOTP(ctx context.Context, email, otpType string) (*entity.OTP, error) {
	query := `
		SELECT id, user_id, email, otp_code, otp_type,
		       expires_at, is_used, attempts, created_at
		FROM otps
		WHERE email = $1
		  AND otp_type = $2
		  AND is_used = false
		  AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	var otp entity.OTP
	err := r.db.QueryRow(ctx, query, email, otpType).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Email,
		&otp.OTPCode,
		&otp.OTPType,
		&otp.ExpiresAt,
		&otp.IsUsed,
		&otp.Attempts,
		&otp.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active OTP",
			zap.Error(err),
			zap.String("email", email),
			zap.String("otp_type", otpType),
		)
		return nil, fmt.Errorf("find active OTP for %s type %s: %w", email, otpType, err)
	}

	return &otp, nil
}

// IncrementAttempts records a failed redemption and returns the new count.
func (r *otpRepository) IncrementAttempts(ctx context.Context, otpID uuid.UUID) (int, error) {
	query := `
		UPDATE otps
		SET attempts = attempts + 1
		WHERE id = $1 AND is_used = false
		RETURNING attempts
	`

	var attempts int
	err := r.db.QueryRow(ctx, query, otpID).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("increment OTP %s attempts: %w", otpID.String(), ErrNotFound)
	}
	if err != nil {
		r.log.Error("Failed to increment OTP attempts",
			zap.Error(err),
			zap.String("otp_id", otpID.String()),
		)
		return 0, fmt.Errorf("increment OTP %s attempts: %w", otpID.String(), err)
	}

	return attempts, nil
}

func (r *otpRepository) MarkAsUsed(ctx context.Context, otpID uuid.UUID) error {
	query := `
		UPDATE otps
		SET is_used = true
		WHERE id = $1 AND is_used = false
	`

	result, err := r.db.Exec(ctx, query, otpID)
	if err != nil {
		r.log.Error("Failed to mark OTP as used",
			zap.Error(err),
			zap.String("otp_id", otpID.String()),
		)
		return fmt.Errorf("mark OTP %s as used: %w", otpID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mark OTP %s as used: %w", otpID.String(), ErrNotFound)
	}

	return nil
}

// InvalidateForUser burns every outstanding code of otpType for the user.
func (r *otpRepository) InvalidateForUser(ctx context.Context, userID uuid.UUID, otpType string) error {
	query := `
		UPDATE otps
		SET is_used = true
		WHERE user_id = $1 AND otp_type = $2 AND is_used = false
	`

	result, err := r.db.Exec(ctx, query, userID, otpType)
	if err != nil {
		r.log.Error("Failed to invalidate OTPs",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("otp_type", otpType),
		)
		return fmt.Errorf("invalidate OTPs for %s: %w", userID.String(), err)
	}

	r.log.Debug("OTPs invalidated",
		zap.String("user_id", userID.String()),
		zap.Int64("count", result.RowsAffected()),
	)
	return nil
}
