package domain

import (
	"time"
)

// User represents a registered account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id" db:"id" validate:"required,uuid"`
	Username     string    `json:"username" db:"username" validate:"required,min=3,max=64"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
