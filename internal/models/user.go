package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes players from operators of the admin surface.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is an account with a credit balance. The balance column is the current
// value; wallet_transactions holds the history that explains it.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user may use the admin surface.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
