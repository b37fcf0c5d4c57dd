package users

import "time"

// User represents a user account for management.
type User struct {
	ID        int64
	Email     string
	Name      string
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput carries the fields of a new account.
type CreateInput struct {
	Name     string `validate:"required,max=120"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"required,oneof=admin editor viewer"`
}

// UpdateInput changes the access of an existing account.
type UpdateInput struct {
	Name     string `validate:"required,max=120"`
	Role     string `validate:"required,oneof=admin editor viewer"`
	IsActive bool
}
