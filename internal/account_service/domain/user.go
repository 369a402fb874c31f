package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a dashboard principal. Ownership of a Business hangs off the user
// id; there is no role system, every user administers exactly their own
// business.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser creates a user; the password must already be hashed.
func NewUser(id uuid.UUID, email, hashedPassword, name string) *User {
	return &User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
		Name:           name,
		CreatedAt:      time.Now().UTC(),
	}
}
