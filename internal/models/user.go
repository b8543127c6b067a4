package models

import (
	"time"
)

// User represents an account created from a Google sign-in.
// Users are created lazily: the first authenticated call that cannot find
// the user by Google ID falls back to email so that identity-provider id
// drift does not produce duplicate accounts.
type User struct {
	ID        string    `json:"id" db:"id"`
	GoogleID  string    `json:"google_id,omitempty" db:"google_id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name,omitempty" db:"name"`
	Image     string    `json:"image,omitempty" db:"image"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
