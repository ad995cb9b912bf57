package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// Cors answers allow-listed origins with credentials enabled. "*" allows any origin
// and an empty list allows none. Preflight requests stop here.
func Cors(allowedOrigins []string) gin.HandlerFunc {
	options := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRFToken", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	if len(allowedOrigins) == 0 {
		// an empty list means every origin to cors.New
		options.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	policy := cors.New(options)

	return func(c *gin.Context) {
		passed := false
		policy.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.AbortWithStatus(c.Writer.Status())
			return
		}
		c.Next()
	}
}
