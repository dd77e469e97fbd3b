package usecase

import (
	"context"
	"testing"

	"account-service/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_RejectsEmailRegardlessOfOtherFields(t *testing.T) {
	env := newTestEnv(t)
	reg := registerAna(t, env)

	patches := []map[string]any{
		{"email": "new@x.com"},
		{"email": "new@x.com", "username": "ana2"},
		{"email": "a@x.com", "phone": "555", "password": "longenough"},
	}
	for _, patch := range patches {
		_, err := env.user.Update(context.Background(), reg.Token, reg.User.ID, patch)
		assert.ErrorIs(t, err, ErrValidation, "patch %v", patch)
	}

	stored := env.users.stored(uuid.MustParse(reg.User.ID))
	assert.Equal(t, "a@x.com", stored.Email)
	assert.Equal(t, "ana", stored.Username)
}

func TestUpdate_RejectsUnknownOrNonStringFields(t *testing.T) {
	env := newTestEnv(t)
	reg := registerAna(t, env)

	for _, patch := range []map[string]any{
		{"active": false},
		{"passwordHash": "x"},
		{"phone": 42},
		{"password": "123"},
		{"password": "abcdef", "newpassword": "abcdef"},
	} {
		_, err := env.user.Update(context.Background(), reg.Token, reg.User.ID, patch)
		assert.ErrorIs(t, err, ErrValidation, "patch %v", patch)
	}
}

func TestUpdate_ProfileFieldsKeepCredential(t *testing.T) {
	env := newTestEnv(t)
	reg := registerAna(t, env)

	resp, err := env.user.Update(context.Background(), reg.Token, reg.User.ID, map[string]any{
		"username": "ana maria",
		"phone":    "999",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana maria", resp.User.Username)
	assert.Equal(t, "999", resp.User.Phone)

	// no password change, so the original token is still good
	_, err = env.auth.GetByToken(context.Background(), reg.Token)
	assert.NoError(t, err)
	_, err = env.auth.GetByToken(context.Background(), resp.Token)
	assert.NoError(t, err)
}

func TestUpdate_PasswordChangeInvalidatesOldTokens(t *testing.T) {
	env := newTestEnv(t)
	reg := registerAna(t, env)

	resp, err := env.user.Update(context.Background(), reg.Token, reg.User.ID, map[string]any{"password": "changed!"})
	require.NoError(t, err)

	claims, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, env.users.stored(uuid.MustParse(reg.User.ID)).PasswordHash, claims.PasswordHash)

	_, err = env.auth.GetByToken(context.Background(), reg.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.user.Update(context.Background(), reg.Token, reg.User.ID, map[string]any{"phone": "1"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.auth.GetByToken(context.Background(), resp.Token)
	assert.NoError(t, err)
}

func TestUpdate_CannotTouchAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	ana := registerAna(t, env)
	bob, err := env.auth.Register(context.Background(), &request.RegisterRequest{
		Username: "bob", Email: "b@x.com", Phone: "2", Identification: "2", Password: "secret",
	})
	require.NoError(t, err)

	_, err = env.user.Update(context.Background(), ana.Token, bob.User.ID, map[string]any{"username": "pwned"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "bob", env.users.stored(uuid.MustParse(bob.User.ID)).Username)
}

func TestUpdate_Errors(t *testing.T) {
	env := newTestEnv(t)
	reg := registerAna(t, env)

	_, err := env.user.Update(context.Background(), "not-a-token", reg.User.ID, map[string]any{"phone": "1"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.user.Update(context.Background(), reg.Token, uuid.NewString(), map[string]any{"phone": "1"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.user.Update(context.Background(), reg.Token, "", map[string]any{"phone": "1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	reg := registerAna(t, env)
	id := uuid.MustParse(reg.User.ID)

	err := env.user.Delete(context.Background(), &request.DeleteUserRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrValidation)

	err = env.user.Delete(context.Background(), &request.DeleteUserRequest{ID: reg.User.ID, Email: "ghost@x.com"})
	assert.ErrorIs(t, err, ErrNotFound)

	// id must belong to the account matched by email
	err = env.user.Delete(context.Background(), &request.DeleteUserRequest{ID: uuid.NewString(), Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, env.users.stored(id).IsActive)

	require.NoError(t, env.user.Delete(context.Background(), &request.DeleteUserRequest{ID: reg.User.ID, Email: "a@x.com"}))

	stored := env.users.stored(id)
	require.NotNil(t, stored, "record must be retained")
	assert.False(t, stored.IsActive)

	list, err := env.user.ListActive(context.Background())
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestFindByName_Substring(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"ana", "anna", "bob"} {
		_, err := env.auth.Register(context.Background(), &request.RegisterRequest{
			Username: name, Email: name + "@x.com", Phone: "1", Identification: "1", Password: "secret",
		})
		require.NoError(t, err)
	}

	list, err := env.user.FindByName(context.Background(), "AN")
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	names := []string{list.Users[0].Username, list.Users[1].Username}
	assert.ElementsMatch(t, []string{"ana", "anna"}, names)

	list, err = env.user.FindByEmail(context.Background(), "bob@")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	list, err = env.user.FindByEmail(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Users)
}

func TestListActive(t *testing.T) {
	env := newTestEnv(t)
	registerAna(t, env)

	list, err := env.user.ListActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "a@x.com", list.Users[0].Email)
}
