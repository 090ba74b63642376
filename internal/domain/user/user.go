package user

import (
	"errors"
	"strings"
	"time"
)

// User identifies an account that authenticates against the API. Riders and
// drivers both map to a user; a driver additionally has a driver profile.
type User struct {
	ID        string
	Email     string
	FullName  string
	Phone     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

var ErrEmailRequired = errors.New("email is required")

func NewUser(email, fullName, phone string, role Role) (*User, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		return nil, ErrEmailRequired
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	now := time.Now().UTC()
	return &User{
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		Phone:     strings.TrimSpace(phone),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
