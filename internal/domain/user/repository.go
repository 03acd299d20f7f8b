package user

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the persistence contract for user accounts.
type UserRepository interface {
	// FindByID retrieves a user by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail retrieves a user by its lowercased email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ListAll retrieves all users with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*User, int64, error)

	// Save persists a new user.
	Save(ctx context.Context, u *User) error

	// Update persists changes to an existing user.
	Update(ctx context.Context, u *User) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
