package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens. It is the only source of
// actor identity for workflow actions.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// DisplayName returns the name recorded on approvals, falling back to the email.
func (c *JWTClaims) DisplayName() string {
	if c == nil {
		return ""
	}
	if c.FullName != "" {
		return c.FullName
	}
	return c.Email
}
