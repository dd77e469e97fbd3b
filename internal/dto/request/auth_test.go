package request

import (
	"testing"

	"account-service/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_EmailBeforeValidation(t *testing.T) {
	req := RegisterRequest{
		Username: "ana", Email: "  A@X.com ", Phone: "123", Identification: "1", Password: "secret",
	}
	assert.Contains(t, utils.ValidateStruct(req), "email")

	req.Normalize()
	assert.Equal(t, "a@x.com", req.Email)
	assert.Empty(t, utils.ValidateStruct(req))
}

func TestResetPasswordRequest_Normalize(t *testing.T) {
	req := ResetPasswordRequest{Email: " B@x.com", Code: " 123456 ", Password: "secret"}
	req.Normalize()

	assert.Equal(t, "b@x.com", req.Email)
	assert.Equal(t, "123456", req.Code)
}
