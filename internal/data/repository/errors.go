package repository

import "errors"

var (
	// ErrNotFound indicates the targeted record does not exist or is inactive.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate indicates a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("repository: duplicate record")
)
