package helpers

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Helper methods for role checking
func (c *CustomClaims) IsAdmin() bool {
	return c.Role == "admin"
}

func (c *CustomClaims) UserID() string {
	return c.Subject
}

func (c *CustomClaims) GetSafeRole() string {
	if c.Role == "" {
		return "customer"
	}
	return c.Role
}
