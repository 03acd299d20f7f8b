package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/torque-rentals/service-rental/internal/common/domain"
)

// Role determines what a user may do across the API.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// String returns the string representation of the role.
func (r Role) String() string { return string(r) }

// ParseRole converts a string to a Role, returning an error if invalid.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}

// User is the aggregate root for a registered account.
type User struct {
	id           uuid.UUID
	name         string
	email        string
	passwordHash string
	phone        string
	role         Role
	createdAt    time.Time
	updatedAt    time.Time
}

// NormalizeEmail lowercases an email for storage and lookup. Stored
// emails are always normalized, so lookups must normalize too.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a new User with validated fields. The email is
// normalized to lowercase; passwordHash must already be hashed.
func NewUser(name, email, passwordHash, phone string, role Role) (*User, error) {
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password hash is required")
	}
	if phone == "" {
		return nil, domain.NewValidationError("phone is required")
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("role must be one of: %s, %s", RoleAdmin, RoleCustomer))
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.New(),
		name:         name,
		email:        NormalizeEmail(email),
		passwordHash: passwordHash,
		phone:        phone,
		role:         role,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructUser rebuilds a User from persistence data (no validation).
func ReconstructUser(id uuid.UUID, name, email, passwordHash, phone string, role Role, createdAt, updatedAt time.Time) *User {
	return &User{
		id:           id,
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		phone:        phone,
		role:         role,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the user's unique identifier.
func (u *User) ID() uuid.UUID { return u.id }

// Name returns the user's display name.
func (u *User) Name() string { return u.name }

// Email returns the user's lowercased email address.
func (u *User) Email() string { return u.email }

// PasswordHash returns the stored password hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// Phone returns the user's phone number.
func (u *User) Phone() string { return u.phone }

// Role returns the user's role.
func (u *User) Role() Role { return u.role }

// CreatedAt returns the creation timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// UpdateProfile changes the mutable profile fields. Empty values leave
// the current value in place.
func (u *User) UpdateProfile(name, phone string) {
	if name != "" {
		u.name = name
	}
	if phone != "" {
		u.phone = phone
	}
	u.updatedAt = time.Now().UTC()
}
