package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/pkg/mailer"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

// memUserRepo is an in-memory UserRepository that hands out copies.
type memUserRepo struct {
	mu        sync.Mutex
	order     []uuid.UUID
	users     map[uuid.UUID]*entity.User
	createErr error
	updateErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	r.order = append(r.order, user.ID)
	return nil
}

func (r *memUserRepo) FindActiveByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok && u.IsActive {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindActiveByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.IsActive && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindAllActive(context.Context) ([]*entity.User, error) {
	return r.filter(func(*entity.User) bool { return true }), nil
}

func (r *memUserRepo) SearchActiveByEmail(_ context.Context, pattern string) ([]*entity.User, error) {
	return r.filter(func(u *entity.User) bool {
		return strings.Contains(strings.ToLower(u.Email), strings.ToLower(pattern))
	}), nil
}

func (r *memUserRepo) SearchActiveByUsername(_ context.Context, pattern string) ([]*entity.User, error) {
	return r.filter(func(u *entity.User) bool {
		return strings.Contains(strings.ToLower(u.Username), strings.ToLower(pattern))
	}), nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.users[user.ID]
	if !ok || !stored.IsActive {
		return repository.ErrNotFound
	}
	email := stored.Email
	cp := *user
	cp.Email = email
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.IsActive {
		return repository.ErrNotFound
	}
	u.IsActive = false
	return nil
}

func (r *memUserRepo) filter(keep func(*entity.User) bool) []*entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.User, 0)
	for _, id := range r.order {
		u := r.users[id]
		if u.IsActive && keep(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out
}

// stored returns the raw record regardless of the active flag.
func (r *memUserRepo) stored(id uuid.UUID) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

type memOTPRepo struct {
	mu   sync.Mutex
	otps []*entity.OTP
}

func (r *memOTPRepo) Create(_ context.Context, otp *entity.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *otp
	r.otps = append(r.otps, &cp)
	return nil
}

func (r *memOTPRepo) FindActiveOTP(_ context.Context, email, otpType string) (*entity.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.otps) - 1; i >= 0; i-- {
		o := r.otps[i]
		if o.Email == email && string(o.OTPType) == otpType && !o.IsUsed && o.ExpiresAt.After(time.Now()) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memOTPRepo) IncrementAttempts(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.otps {
		if o.ID == id && !o.IsUsed {
			o.Attempts++
			return o.Attempts, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (r *memOTPRepo) InvalidateForUser(_ context.Context, userID uuid.UUID, otpType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.otps {
		if o.UserID == userID && string(o.OTPType) == otpType {
			o.IsUsed = true
		}
	}
	return nil
}

func (r *memOTPRepo) MarkAsUsed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.otps {
		if o.ID == id && !o.IsUsed {
			o.IsUsed = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memOTPRepo) last() *entity.OTP {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.otps) == 0 {
		return nil
	}
	cp := *r.otps[len(r.otps)-1]
	return &cp
}

type chanMailer struct {
	sent chan mailer.Message
}

func (m *chanMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent <- msg
	return nil
}

type testEnv struct {
	users  *memUserRepo
	otps   *memOTPRepo
	mail   *chanMailer
	tokens *utils.TokenManager
	auth   AuthService
	user   UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config := &utils.Config{
		App: utils.AppConfig{BaseURL: "http://accounts.test"},
		OTP: utils.OTPConfig{ExpiryMinutes: 15, Length: 6},
	}
	env := &testEnv{
		users:  newMemUserRepo(),
		otps:   &memOTPRepo{},
		mail:   &chanMailer{sent: make(chan mailer.Message, 4)},
		tokens: utils.NewTokenManager("test-secret", "account-service", time.Hour),
	}
	repo := &repository.Repository{User: env.users, OTP: env.otps}

	svc := NewService(repo, config, utils.NewPasswordHasher(bcrypt.MinCost), env.tokens, env.mail, zaptest.NewLogger(t))
	env.auth = svc.Auth
	env.user = svc.User
	return env
}
