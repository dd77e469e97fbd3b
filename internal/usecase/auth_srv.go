package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/internal/dto/request"
	"account-service/internal/dto/response"
	"account-service/pkg/mailer"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	mailTimeout = 30 * time.Second
	// A reset code is burned after this many wrong guesses.
	maxResetAttempts = 5
)

var errInvalidResetCode = fmt.Errorf("%w: invalid or expired code", ErrValidation)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	GetByToken(ctx context.Context, token string) (*response.AuthResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, req *request.ResetPasswordRequest) (*response.AuthResponse, error)
}

type authService struct {
	repo   *repository.Repository // user and otp stores
	config *utils.Config
	hasher Hasher
	tokens TokenCodec
	mail   mailer.Mailer
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	hasher Hasher,
	tokens TokenCodec,
	mail mailer.Mailer,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		hasher: hasher,
		tokens: tokens,
		mail:   mail,
		log:    log,
		now:    time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	// 1. Validate input
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Hash password
	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, ErrInternal
	}

	// 3. Build and persist the user
	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hashedPassword,
		Phone:          req.Phone,
		Identification: req.Identification,
		IsActive:       true,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("Email already registered", zap.String("email", req.Email))
			return nil, fmt.Errorf("%w: email already registered", ErrValidation)
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("%w: could not create account", ErrValidation)
	}

	// 4. Token only after the record exists
	token, err := s.tokens.Issue(user.Email, user.PasswordHash)
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, ErrInternal
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return response.AuthToResponse(user, token), nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	// 1. Validate
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Find active user
	user, err := s.repo.User.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("email", req.Email))
		return nil, ErrInternal
	}
	if user == nil {
		s.log.Warn("User not found for login", zap.String("email", req.Email))
		return nil, ErrNotFound
	}

	// 3. Check password
	ok, err := s.hasher.Compare(req.Password, user.PasswordHash)
	if err != nil {
		s.log.Error("Failed to compare password", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, ErrInternal
	}
	if !ok {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	// 4. Issue token
	token, err := s.tokens.Issue(user.Email, user.PasswordHash)
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, ErrInternal
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	return response.AuthToResponse(user, token), nil
}

// GetByToken resolves the caller and slides the session forward.
func (s *authService) GetByToken(ctx context.Context, token string) (*response.AuthResponse, error) {
	claims, err := decodeToken(s.tokens, token, s.log)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.FindActiveByEmail(ctx, claims.Email)
	if err != nil {
		s.log.Error("Failed to find user by token", zap.Error(err), zap.String("email", claims.Email))
		return nil, ErrInternal
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.PasswordHash != claims.PasswordHash {
		s.log.Warn("Stale token", zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("%w: token no longer valid", ErrUnauthorized)
	}

	refreshed, err := s.tokens.Issue(claims.Email, claims.PasswordHash)
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, ErrInternal
	}

	return response.AuthToResponse(user, refreshed), nil
}

// RequestPasswordReset stores a reset code and mails it in the background.
// It returns before the mail is handed to the transport.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	req := request.ForgotPasswordRequest{Email: email}
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 1. Find user
	user, err := s.repo.User.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user for password reset", zap.Error(err), zap.String("email", req.Email))
		return ErrInternal
	}
	if user == nil {
		return ErrNotFound
	}

	// 2. Generate code
	code, err := utils.GenerateOTP(s.config.OTP.Length)
	if err != nil {
		s.log.Error("Failed to generate reset code", zap.Error(err))
		return ErrInternal
	}
	now := s.now()
	otp := &entity.OTP{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:    user.ID,
		Email:     user.Email,
		OTPCode:   code,
		OTPType:   entity.OTPTypePasswordReset,
		ExpiresAt: now.Add(time.Duration(s.config.OTP.ExpiryMinutes) * time.Minute),
	}

	// 3. One outstanding code per user
	if err := s.repo.OTP.InvalidateForUser(ctx, user.ID, string(entity.OTPTypePasswordReset)); err != nil {
		s.log.Error("Failed to invalidate previous reset codes", zap.Error(err), zap.String("user_id", user.ID.String()))
		return ErrInternal
	}
	if err := s.repo.OTP.Create(ctx, otp); err != nil {
		s.log.Error("Failed to save reset code", zap.Error(err), zap.String("email", user.Email))
		return ErrInternal
	}

	// 4. Mail it (async)
	go s.sendResetMail(s.resetMessage(otp))

	s.log.Info("Password reset requested",
		zap.String("user_id", user.ID.String()),
		zap.Time("expires_at", otp.ExpiresAt))

	return nil
}

// ConfirmPasswordReset redeems the newest outstanding code for the email.
// The code is spent only once the new hash is stored.
func (s *authService) ConfirmPasswordReset(ctx context.Context, req *request.ResetPasswordRequest) (*response.AuthResponse, error) {
	// 1. Validate
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Reset password validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Find the outstanding code
	otp, err := s.repo.OTP.FindActiveOTP(ctx, req.Email, string(entity.OTPTypePasswordReset))
	if err != nil {
		s.log.Error("Failed to find reset code", zap.Error(err), zap.String("email", req.Email))
		return nil, ErrInternal
	}
	if otp == nil {
		return nil, errInvalidResetCode
	}

	// 3. Check it
	if subtle.ConstantTimeCompare([]byte(otp.OTPCode), []byte(req.Code)) != 1 {
		return nil, s.failResetAttempt(ctx, otp)
	}

	// 4. Find user
	user, err := s.repo.User.FindActiveByID(ctx, otp.UserID)
	if err != nil {
		s.log.Error("Failed to find user for reset", zap.Error(err), zap.String("user_id", otp.UserID.String()))
		return nil, ErrInternal
	}
	if user == nil {
		return nil, ErrNotFound
	}

	// 5. Store the new hash
	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, ErrInternal
	}
	user.PasswordHash = hashedPassword
	user.UpdatedAt = s.now()

	if err := s.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.log.Error("Failed to update password", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, ErrInternal
	}

	// 6. Spend this code and anything else still outstanding
	if err := s.repo.OTP.InvalidateForUser(ctx, user.ID, string(entity.OTPTypePasswordReset)); err != nil {
		s.log.Error("Failed to invalidate reset codes", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, ErrInternal
	}

	token, err := s.tokens.Issue(user.Email, user.PasswordHash)
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, ErrInternal
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))

	return response.AuthToResponse(user, token), nil
}

// ==================== HELPER METHODS ====================

func (s *authService) resetMessage(otp *entity.OTP) mailer.Message {
	link := fmt.Sprintf("%s/users/reset-password?email=%s&code=%s",
		s.config.App.BaseURL, url.QueryEscape(otp.Email), url.QueryEscape(otp.OTPCode))

	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Reset code: %s\n"+
			"Reset link: %s\n\n"+
			"The code expires at %s. If you did not ask for this, ignore this message.\n",
		otp.OTPCode, link, otp.ExpiresAt.UTC().Format(time.RFC1123))

	return mailer.Message{
		To:      otp.Email,
		Subject: "Password reset",
		Body:    body,
	}
}

// failResetAttempt counts a wrong guess and burns the code at the limit.
func (s *authService) failResetAttempt(ctx context.Context, otp *entity.OTP) error {
	attempts, err := s.repo.OTP.IncrementAttempts(ctx, otp.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errInvalidResetCode
		}
		s.log.Error("Failed to count reset attempt", zap.Error(err), zap.String("otp_id", otp.ID.String()))
		return ErrInternal
	}

	s.log.Warn("Wrong reset code",
		zap.String("user_id", otp.UserID.String()),
		zap.Int("attempts", attempts))

	if attempts >= maxResetAttempts {
		if err := s.repo.OTP.MarkAsUsed(ctx, otp.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.log.Error("Failed to burn reset code", zap.Error(err), zap.String("otp_id", otp.ID.String()))
			return ErrInternal
		}
	}
	return errInvalidResetCode
}

func (s *authService) sendResetMail(msg mailer.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
	defer cancel()

	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("Failed to send password reset mail", zap.Error(err), zap.String("email", msg.To))
	}
}
