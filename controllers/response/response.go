package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/services/trackLog"
)

// RequestIDKey is where the request log middleware stores the request id.
const RequestIDKey = "request_id"

// Error writes err as JSON and aborts the chain. Internal failures are logged
// and answered with a generic body.
func Error(c *gin.Context, err error) {
	appErr := apperr.As(err)
	if appErr == nil || appErr.Kind == apperr.KindInternal {
		trackLog.WithFields(logrus.Fields{
			"task":       "http",
			"request_id": c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}).Error(err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), body)
}
