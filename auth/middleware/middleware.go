package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hamzab/drivebox-backend/auth"
)

const UserIDKey = "userID"

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's user id in the gin context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := principalFromHeader(secret, c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// AuthOptional stores the caller's user id when a valid token is present and
// continues unauthenticated otherwise.
func AuthOptional(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := principalFromHeader(secret, c.GetHeader("Authorization")); ok {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

func principalFromHeader(secret, header string) (uuid.UUID, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return uuid.Nil, false
	}
	sub, err := auth.ValidateToken(secret, parts[1])
	if err != nil {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// CurrentUser reads the principal AuthRequired stored on the context.
func CurrentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(UserIDKey).(uuid.UUID)
}
