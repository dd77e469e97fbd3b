package response

import (
	"encoding/json"
	"testing"
	"time"

	"account-service/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserToResponse_OmitsPasswordHash(t *testing.T) {
	user := &entity.User{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Username:       "ana",
		Email:          "a@x.com",
		PasswordHash:   "$2a$10$secret",
		Phone:          "123",
		Identification: "1",
		IsActive:       true,
	}

	raw, err := json.Marshal(UserToResponse(user))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "passwordHash")
	assert.NotContains(t, string(raw), user.PasswordHash)
	assert.Equal(t, "a@x.com", fields["email"])
	assert.Equal(t, user.ID.String(), fields["id"])
}

func TestUsersToResponse_EmptyListIsNotNull(t *testing.T) {
	list := UsersToResponse(nil)

	raw, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[],"total":0}`, string(raw))
}
