package models

import (
	"time"
)

type User struct {
	ID            string
	Username      string // Mutable display name
	Email         string
	PasswordHash  string
	Avatar        string // Opaque: URL or inline data URI
	Verified      bool
	CodeHash      *string    // SHA-256 of the pending verification code, NULL once verified
	CodeExpiresAt *time.Time // Absolute expiry of the pending code
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPendingCode reports whether an unconsumed verification code is stored,
// expired or not.
func (u *User) HasPendingCode() bool {
	return u.CodeHash != nil && u.CodeExpiresAt != nil
}

// CodeExpired reports whether the pending code is past its expiry.
func (u *User) CodeExpired() bool {
	return u.CodeExpiresAt != nil && time.Now().After(*u.CodeExpiresAt)
}
