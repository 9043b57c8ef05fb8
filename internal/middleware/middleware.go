package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/insight-hub-api/internal/auth"
)

// principalKey is the gin context key holding the verified auth.Principal
const principalKey = "principal"

// SessionVerifier checks a session token and returns its claims, or nil when invalid
type SessionVerifier interface {
	Verify(token string) *auth.SessionClaims
}

// SessionAuth validates the session token and stores the Principal in the context.
// The token is read from the Authorization Bearer header, or from the token query
// parameter used by the frontend right after the login redirect.
func SessionAuth(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			respondWithOAuth2Error(c, http.StatusUnauthorized, "authorization_required",
				"Missing session token. Use 'Authorization: Bearer <token>'")
			return
		}

		claims := verifier.Verify(tokenString)
		if claims == nil {
			respondWithOAuth2Error(c, http.StatusUnauthorized, "invalid_token", "Session token is invalid or expired")
			return
		}

		principal, ok := claims.Principal()
		if !ok {
			respondWithOAuth2Error(c, http.StatusUnauthorized, "invalid_token", "Session token does not identify an account")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// BearerToken extracts the session token from the request
func BearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", false
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		return token, token != ""
	}
	token := c.Query("token")
	return token, token != ""
}

// PrincipalFrom returns the principal set by SessionAuth
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return auth.Principal{}, false
	}
	principal, ok := value.(auth.Principal)
	return principal, ok
}

// respondWithOAuth2Error responds with RFC 6750 compliant error format
func respondWithOAuth2Error(c *gin.Context, status int, errorCode, description string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer error="`+errorCode+`"`)
	}
	c.JSON(status, gin.H{
		"error":             errorCode,
		"error_description": description,
	})
	c.Abort()
}
