package auth

import (
	"context"

	"tradebook/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error

	// Exists checks if an email is already registered.
	Exists(ctx context.Context, email string) (bool, error)
}
