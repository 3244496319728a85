// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is a closed enumeration of the access levels a user can hold.
//
// WHY A NAMED TYPE AND NOT A PLAIN STRING?
// Authorization checks compare roles. With free-form strings, a typo like
// "auther" compiles fine and silently denies (or grants) access. A named
// type with constants makes every comparison go through a value the
// compiler can see, and Valid() gives us one place to reject anything else.
type Role string

const (
	// RoleReader is the default role assigned on registration. Readers can
	// browse and use every public endpoint but cannot author content.
	RoleReader Role = "reader"

	// RoleAuthor gates the blog create/delete endpoints.
	RoleAuthor Role = "author"

	// RoleAdmin is reserved for future moderation surfaces. It is part of
	// the enum so stored values round-trip, but nothing is gated on it yet.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleAuthor, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
//
// PasswordHash carries the bcrypt hash and is tagged `json:"-"` so it is
// never serialized to a client, no matter which handler returns the struct.
// Repositories only populate it on the explicit lookup the login flow uses;
// every other query leaves it empty.
//
// GitHubID is non-zero only for accounts created through GitHub sign-in.
// Those accounts have no password hash at all.
type User struct {
	ID           string    `json:"id"          db:"id"`
	Username     string    `json:"username"    db:"username"` // globally unique
	Email        string    `json:"email"       db:"email"`    // globally unique
	PasswordHash string    `json:"-"           db:"password_hash"`
	Role         Role      `json:"role"        db:"role"`
	GitHubID     int64     `json:"-"           db:"github_id"` // 0 for password accounts
	LastLoginAt  time.Time `json:"lastLoginAt" db:"last_login_at"`
	CreatedAt    time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"   db:"updated_at"`
}
