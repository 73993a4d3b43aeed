// utils/auth.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"

	"github.com/findingu/multinivel_backend/middleware"
)

// GenerateJWT creates a signed session token for a customer.
func GenerateJWT(userID, email, userType string) (string, error) {
	claims := &middleware.JwtCustomClaims{
		UserID:   userID,
		Email:    email,
		UserType: userType,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(middleware.GetJWTSecret()))
}

// GetUserIDFromToken extracts the authenticated customer id from the Echo
// context populated by the JWT middleware.
func GetUserIDFromToken(c echo.Context) (string, error) {
	userID, ok := c.Get("userID").(string)
	if !ok || userID == "" {
		return "", errors.New("no user id in token")
	}
	return userID, nil
}

// GetUserTypeFromToken extracts the authenticated role from the context.
func GetUserTypeFromToken(c echo.Context) string {
	userType, _ := c.Get("userType").(string)
	return userType
}
