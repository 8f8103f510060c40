package models

import (
	"github.com/google/uuid"
)

// User is the caller identified by a verified access token. Users are
// managed by the identity provider; nothing here is persisted.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// UserRole represents available user roles
type UserRole string

const (
	RoleAdmin         UserRole = "admin"
	RoleAuthenticated UserRole = "authenticated"
	RoleService       UserRole = "service_role"
)

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin) || u.Role == string(RoleService)
}

// CanAccess reports whether u may read or modify a record owned by ownerID
func (u *User) CanAccess(ownerID uuid.UUID) bool {
	return u.IsAdmin() || u.ID == ownerID
}
