package request

import (
	"strings"

	"account-service/pkg/utils"
)

// The password field is called newpassword on the wire for both register and login.

type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=2,max=50"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,max=20"`
	Identification string `json:"identification" validate:"required,max=50"`
	Password       string `json:"newpassword" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"newpassword" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a code sent by the forgot-password flow.
type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,numeric"`
	Password string `json:"newpassword" validate:"required,min=6"`
}

// Normalize puts the email in canonical form. Call it before validating.
func (r *RegisterRequest) Normalize() { r.Email = utils.NormalizeEmail(r.Email) }

func (r *LoginRequest) Normalize() { r.Email = utils.NormalizeEmail(r.Email) }

func (r *ForgotPasswordRequest) Normalize() { r.Email = utils.NormalizeEmail(r.Email) }

func (r *ResetPasswordRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}
