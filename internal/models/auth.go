package models

import "github.com/golang-jwt/jwt/v5"

// UserRole mirrors the roles issued by the external identity service.
type UserRole string

const (
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleInstructor UserRole = "INSTRUTOR"
)

// AccessClaims are the JWT claims this API verifies. Tokens are issued
// elsewhere; only the shared secret is configured here.
type AccessClaims struct {
	Role UserRole `json:"role"`
	Name string   `json:"name"`
	jwt.RegisteredClaims
}
