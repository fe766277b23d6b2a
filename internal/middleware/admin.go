package middleware

import (
	"context"  // Request-scoped context
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"wallet_portfolio/internal/domain" // Domain models
)

// UserFinder loads a user by id
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// AdminOnlyMiddleware checks the user's role from the database on each request
func AdminOnlyMiddleware(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c) // Set by JWTAuthMiddleware
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		user, err := users.FindByID(c.Request.Context(), userID) // Fetch user from database
		if err != nil || !user.IsAdmin() {
			// Unknown users and non-admins are both refused
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Admin access required"})
			return
		}
		c.Set("user", user) // Keep the loaded admin for handlers
		c.Next()            // Proceed to the next handler
	}
}
