package users

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserRepo is the user directory. Lookups return ErrUserNotFound when no user matches.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Create stores a new user and assigns its ID. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *User) error
	// Upsert persists changes to an existing user, or creates it when ID is zero.
	Upsert(ctx context.Context, user *User) error
}
