// Package identity manages application users, their roles and the policies
// that gate privileged operations, and issues bearer tokens for API clients.
//
// Persistence is behind Store; MemoryStore serves tests and single-process
// tools.
package identity

import (
	"errors"
	"time"
)

const (
	RoleAdministrator = "Administrator"
	PolicyCanPurge    = "CanPurge"

	// AdministratorUserName is the account SeedDefaults creates.
	AdministratorUserName = "administrator@localhost"
)

var (
	ErrNotFound           = errors.New("identity: user not found")
	ErrDuplicateUser      = errors.New("identity: user name already taken")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrPasswordPolicy     = errors.New("identity: password does not meet requirements")
	ErrUnknownPolicy      = errors.New("identity: unknown policy")
	ErrInvalidToken       = errors.New("identity: invalid token")
	ErrExpiredToken       = errors.New("identity: token expired")
)

type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Roles        []string
	CreatedAt    time.Time
}

// HasRole compares role names case-insensitively.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if equalFold(r, role) {
			return true
		}
	}
	return false
}

func (u User) clone() User {
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	u.Roles = append([]string(nil), u.Roles...)
	return u
}
