package models

import (
	"time"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleTenant Role = "tenant"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleTenant
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsOwner() bool {
	return u != nil && u.Role == RoleOwner
}

// Identity is the credential record behind a User. Its ID is reused as the
// profile row's primary key.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type SignUpForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role" validate:"omitempty,oneof=owner tenant"`
}

type SignInForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
