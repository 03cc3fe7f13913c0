package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the verified identity attached to every authenticated request.
// The core trusts it completely; credential checks happen at token issuance.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

// IsAdmin reports whether the claims carry the admin role.
func (c *UserClaims) IsAdmin() bool { return c.Role == RoleAdmin }
