package entity

// User is the stored account record. PasswordHash must never leave the service;
// convert with response.UserToResponse before returning it.
type User struct {
	Base
	Username       string `db:"username"`
	Email          string `db:"email"`
	PasswordHash   string `db:"password"`
	Phone          string `db:"phone"`
	Identification string `db:"identification"`
	IsActive       bool   `db:"is_active"`
}
