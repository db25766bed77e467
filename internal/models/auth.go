package models

import "github.com/golang-jwt/jwt/v5"

// Role is the closed set of actor roles. There is no hierarchy: every
// permission is checked explicitly per role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
)

// Valid returns true when the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	default:
		return false
	}
}

// TokenClaims is the verified payload of an identity token. The identity
// service issues and signs tokens; this API only decodes and enforces policy.
type TokenClaims struct {
	IdentityID string `json:"identityId"`
	Role       Role   `json:"role"`
	jwt.RegisteredClaims
}
