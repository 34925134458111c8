package user

import (
	"github.com/google/uuid"
)

// UserStore defines the persistence operations for users. Lookups return
// nil (not an error) when nothing matches.
type UserStore interface {
	CreateUser(user *User) error
	UpdateUser(user *User) error
	GetUserByID(id uuid.UUID) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByGoogleID(googleID string) (*User, error)
}
