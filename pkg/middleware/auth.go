package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (uint32, error)
}

// Auth authenticates a request from the Authorization header, or from
// a ?token= query parameter so previews can be embedded in iframe/img
// tags.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			token = strings.TrimPrefix(header, "Bearer ")
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "no token, authorization denied"})
			return
		}

		userID, err := verifier.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "token is not valid"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user set by Auth.
func UserID(c *gin.Context) uint32 {
	v, _ := c.Get(userIDKey)
	id, _ := v.(uint32)
	return id
}
