package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework

	"wallet_portfolio/internal/utils" // JWT utility functions
)

// Context keys set by JWTAuthMiddleware
const (
	UserIDKey  = "userID"  // Session owner
	AddressKey = "address" // Address the session was opened with
)

// JWTAuthMiddleware validates JWT tokens and extracts user information
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}
		c.Set(UserIDKey, claims.UserID)   // Store userID in context
		c.Set(AddressKey, claims.Address) // Store connected address in context
		c.Next()                          // Proceed to the next handler
	}
}

// UserID returns the authenticated user id, or "" outside JWTAuthMiddleware
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
