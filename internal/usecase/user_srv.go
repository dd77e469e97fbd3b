package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/internal/dto/request"
	"account-service/internal/dto/response"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 6

// Keys a caller may send in an update patch. Both password spellings are
// accepted since the register and login bodies use newpassword.
var updatableFields = map[string]struct{}{
	"username":       {},
	"phone":          {},
	"identification": {},
	"password":       {},
	"newpassword":    {},
}

type UserService interface {
	Update(ctx context.Context, callerToken, id string, patch map[string]any) (*response.AuthResponse, error)
	Delete(ctx context.Context, req *request.DeleteUserRequest) error
	ListActive(ctx context.Context) (*response.UserListResponse, error)
	FindByEmail(ctx context.Context, pattern string) (*response.UserListResponse, error)
	FindByName(ctx context.Context, pattern string) (*response.UserListResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	hasher   Hasher
	tokens   TokenCodec
	log      *zap.Logger
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository, hasher Hasher, tokens TokenCodec, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		log:      log,
		now:      time.Now,
	}
}

// Update applies patch to the caller's own record. A password change
// invalidates every token issued before it.
func (us *userService) Update(ctx context.Context, callerToken, id string, patch map[string]any) (*response.AuthResponse, error) {
	// 1. Authenticate
	claims, err := decodeToken(us.tokens, callerToken, us.log)
	if err != nil {
		return nil, err
	}

	// 2. Check the patch
	if _, ok := patch["email"]; ok {
		us.log.Warn("Update attempted to change email", zap.String("email", claims.Email))
		return nil, fmt.Errorf("%w: email cannot be changed", ErrValidation)
	}
	fields, err := parsePatch(patch)
	if err != nil {
		us.log.Warn("Invalid update patch", zap.Error(err))
		return nil, err
	}

	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id must be a valid UUID", ErrValidation)
	}

	// 3. Load target and check ownership
	user, err := us.userRepo.FindActiveByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to find user for update", zap.Error(err), zap.String("user_id", id))
		return nil, ErrInternal
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if !strings.EqualFold(user.Email, claims.Email) || user.PasswordHash != claims.PasswordHash {
		us.log.Warn("Update rejected for token owner",
			zap.String("user_id", id),
			zap.String("token_email", claims.Email))
		return nil, fmt.Errorf("%w: not allowed to update this user", ErrUnauthorized)
	}

	// 4. Apply
	passwordChanged := false
	for field, value := range fields {
		switch field {
		case "username":
			user.Username = value
		case "phone":
			user.Phone = value
		case "identification":
			user.Identification = value
		case "password":
			hashed, err := us.hasher.Hash(value)
			if err != nil {
				us.log.Error("Failed to hash password", zap.Error(err))
				return nil, ErrInternal
			}
			user.PasswordHash = hashed
			passwordChanged = true
		}
	}

	if len(fields) > 0 {
		user.UpdatedAt = us.now()
		if err := us.userRepo.Update(ctx, user); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			us.log.Error("Failed to update user", zap.Error(err), zap.String("user_id", id))
			return nil, ErrInternal
		}
	}

	// 5. Reissue
	var token string
	if passwordChanged {
		token, err = us.tokens.Issue(user.Email, user.PasswordHash)
	} else {
		token, err = us.tokens.Issue(claims.Email, claims.PasswordHash)
	}
	if err != nil {
		us.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", id))
		return nil, ErrInternal
	}

	us.log.Info("User updated",
		zap.String("user_id", id),
		zap.Strings("fields", fieldNames(fields)),
		zap.Bool("password_changed", passwordChanged))

	return response.AuthToResponse(user, token), nil
}

// Delete deactivates the user matched by email. The id must name that same user.
func (us *userService) Delete(ctx context.Context, req *request.DeleteUserRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return fmt.Errorf("%w: id must be a valid UUID", ErrValidation)
	}

	user, err := us.userRepo.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		us.log.Error("Failed to get user for delete", zap.Error(err), zap.String("email", req.Email))
		return ErrInternal
	}
	if user == nil || user.ID != id {
		return ErrNotFound
	}

	if err := us.userRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		us.log.Error("Failed to delete user", zap.Error(err), zap.String("id", req.ID))
		return ErrInternal
	}

	us.log.Info("User deleted", zap.String("user_id", id.String()), zap.String("email", user.Email))
	return nil
}

func (us *userService) ListActive(ctx context.Context) (*response.UserListResponse, error) {
	users, err := us.userRepo.FindAllActive(ctx)
	if err != nil {
		us.log.Error("Failed to list users", zap.Error(err))
		return nil, ErrInternal
	}

	us.log.Info("Users retrieved", zap.Int("count", len(users)))
	return response.UsersToResponse(users), nil
}

func (us *userService) FindByEmail(ctx context.Context, pattern string) (*response.UserListResponse, error) {
	return us.search(ctx, "email", pattern, us.userRepo.SearchActiveByEmail)
}

func (us *userService) FindByName(ctx context.Context, pattern string) (*response.UserListResponse, error) {
	return us.search(ctx, "username", pattern, us.userRepo.SearchActiveByUsername)
}

// search treats an empty result as success.
func (us *userService) search(
	ctx context.Context,
	field, pattern string,
	find func(context.Context, string) ([]*entity.User, error),
) (*response.UserListResponse, error) {
	pattern = strings.TrimSpace(pattern)

	users, err := find(ctx, pattern)
	if err != nil {
		us.log.Error("Failed to search users",
			zap.Error(err),
			zap.String("field", field),
			zap.String("pattern", pattern))
		return nil, ErrInternal
	}

	return response.UsersToResponse(users), nil
}

// parsePatch checks keys against the allow-list and values for type. The
// password alias is folded into "password".
func parsePatch(patch map[string]any) (map[string]string, error) {
	fields := make(map[string]string, len(patch))
	for key, raw := range patch {
		if _, ok := updatableFields[key]; !ok {
			return nil, fmt.Errorf("%w: field %q cannot be updated", ErrValidation, key)
		}
		value, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string", ErrValidation, key)
		}
		if key == "newpassword" {
			key = "password"
			if _, dup := patch["password"]; dup {
				return nil, fmt.Errorf("%w: send either password or newpassword", ErrValidation)
			}
		}
		fields[key] = value
	}

	if pw, ok := fields["password"]; ok && len(pw) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if name, ok := fields["username"]; ok && strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}

	return fields, nil
}

func fieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
