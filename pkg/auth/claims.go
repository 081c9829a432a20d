package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Email   string
	AppRole string
}

// AppMetadata is the provider-controlled metadata block; users cannot edit it.
type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// AccessTokenClaims mirrors the token issued by the hosted auth provider.
// The user id travels in the standard "sub" claim.
type AccessTokenClaims struct {
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// UserID parses the subject as the user's uuid.
func (c *AccessTokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Subject))
}

// HasRole reports whether the provider granted the given application role.
func (c *AccessTokenClaims) HasRole(role string) bool {
	role = strings.TrimSpace(role)
	return role != "" && strings.EqualFold(c.AppMetadata.Role, role)
}
