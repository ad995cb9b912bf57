package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zennieheo/hackathon2024-BE/controllers/response"
)

// OwnerKey is the gin context key holding the authenticated owner identifier.
const OwnerKey = "owner_id"

// Authenticator resolves credentials to an owner identifier.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
	AuthenticateAPIKey(ctx context.Context, key string) (string, error)
}

// Authenticate reads "Bearer <jwt>" or "Api-Key <key>" from the Authorization
// header. Requests without the header pass through anonymously.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}

		scheme, credential, found := strings.Cut(header, " ")
		credential = strings.TrimSpace(credential)
		if !found || credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header."})
			return
		}

		var owner string
		var err error
		switch strings.ToLower(scheme) {
		case "bearer":
			owner, err = auth.Authenticate(c.Request.Context(), credential)
		case "api-key":
			owner, err = auth.AuthenticateAPIKey(c.Request.Context(), credential)
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unsupported authorization scheme."})
			return
		}
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(OwnerKey, owner)
		c.Next()
	}
}

// RequireOwner rejects anonymous requests.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Owner(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
			return
		}
		c.Next()
	}
}

// Owner returns the authenticated owner, or "" for anonymous requests.
func Owner(c *gin.Context) string {
	return c.GetString(OwnerKey)
}
