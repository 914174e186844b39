package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const AddressContextKey = "address"

// AuthMiddleware validates the Bearer session token issued by the auth flow
// and exposes the caller's identity to controllers.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}
		address, _ := claims["address"].(string)
		if address == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token carries no identity"})
			c.Abort()
			return
		}

		c.Set(AddressContextKey, address)
		c.Next()
	}
}

// GetAddress returns the authenticated caller identity set by AuthMiddleware.
func GetAddress(c *gin.Context) (string, error) {
	if val, ok := c.Get(AddressContextKey); ok {
		if address, ok := val.(string); ok && address != "" {
			return address, nil
		}
	}
	return "", errors.New("address not found in context")
}
