package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a customer or admin account. Accounts are never deleted,
// only deactivated via IsActive.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Address      Address   `json:"address" db:"address"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Address is a postal address within Iran.
type Address struct {
	Province   string `json:"province"`
	City       string `json:"city"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
}

// FullName returns the display name used in order snapshots and admin lists.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
