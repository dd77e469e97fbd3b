package response

import (
	"time"

	"account-service/internal/data/entity"
)

// UserResponse is the public view of a user. It has no password field.
type UserResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Identification string    `json:"identification"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AuthResponse pairs a user with a freshly issued token. The handler lifts
// Token into the envelope.
type AuthResponse struct {
	User  UserResponse
	Token string
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:             user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		Phone:          user.Phone,
		Identification: user.Identification,
		Active:         user.IsActive,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func UsersToResponse(users []*entity.User) *UserListResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserToResponse(u))
	}
	return &UserListResponse{Users: out, Total: len(out)}
}

func AuthToResponse(user *entity.User, token string) *AuthResponse {
	return &AuthResponse{User: UserToResponse(user), Token: token}
}
