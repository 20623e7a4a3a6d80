package middleware

import (
	"context"  // Request context
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/store"  // Not found sentinel

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// AdminChecker loads an account and decides whether it may use admin routes
type AdminChecker interface {
	RequireAdmin(ctx context.Context, id uint) (*domain.User, error)
}

// AdminOnlyMiddleware checks the user's role and blocked flag in the store on each request
func AdminOnlyMiddleware(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := UserID(c) // Get userID from context
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if _, err := checker.RequireAdmin(c.Request.Context(), userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Admin access denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
