package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/insight-hub-api/internal/auth"
)

// RequireAdmin only lets admin sessions through. It must run after SessionAuth.
func RequireAdmin() gin.HandlerFunc {
	return requireKind(auth.PrincipalAdmin)
}

// RequireAccount only lets signed in accounts through. It must run after SessionAuth.
func RequireAccount() gin.HandlerFunc {
	return requireKind(auth.PrincipalAccount)
}

func requireKind(kind auth.PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := PrincipalFrom(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		if principal.Kind != kind {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Insufficient permissions",
				"required_kind": kind,
				"session_kind":  principal.Kind,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
