package request

import "account-service/pkg/utils"

type DeleteUserRequest struct {
	ID    string `json:"id" validate:"required,uuid"`
	Email string `json:"email" validate:"required,email"`
}

func (r *DeleteUserRequest) Normalize() { r.Email = utils.NormalizeEmail(r.Email) }
