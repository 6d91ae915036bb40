package domain

import (
	"strings"
	"time"
)

// User is an account that owns recipes, tags and ingredients.
// Email and ID never change after creation; Name and PasswordHash may.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at,omitzero"`
}

// NormalizeEmail lowercases the domain part of an address and trims it.
// The local part keeps its case, matching how most mail servers treat it.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	local, host, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	return local + "@" + strings.ToLower(host)
}

// InitTimestamps sets CreatedAt and UpdatedAt to now.
func (u *User) InitTimestamps() {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}
