package domain

import (
	"context"
	"time"
)

// Role is the principal's authority level
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a library member or administrator
type User struct {
	ID           int64
	LibraryID    string // Unique library card number
	Email        string // Unique email address
	PasswordHash string // Bcrypt hashed password (not returned in API)
	Role         Role
	CreatedAt    time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByLibraryID(ctx context.Context, libraryID string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByLibraryID(ctx context.Context, libraryID string) (bool, error)
}
