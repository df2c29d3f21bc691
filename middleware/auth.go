package middleware

import (
	"net/http"
	"strings"

	"schedcore/services/identity"

	"github.com/gin-gonic/gin"
)

// CallerIDKey is the gin context key carrying the resolved caller identity.
const CallerIDKey = "callerID"

// BearerAuthMiddleware resolves the Authorization bearer credential through
// the identity collaborator and stores the opaque subject on the context.
func BearerAuthMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}

		callerID, err := resolver.Resolve(c.Request.Context(), tokenString)
		if err != nil || callerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication error",
			})
			return
		}

		c.Set(CallerIDKey, callerID)
		c.Next()
	}
}

// CallerID extracts the resolved caller identity from the context.
func CallerID(c *gin.Context) string {
	v, _ := c.Get(CallerIDKey)
	s, _ := v.(string)
	return s
}
