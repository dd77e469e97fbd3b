package usecase

import "errors"

// Service errors. Handlers map them to status codes with errors.Is; the
// wrapped detail is for logs only.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("user not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)
