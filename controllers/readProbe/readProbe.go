package readProbe

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zennieheo/hackathon2024-BE/controllers/check"
)

// Probe answers readiness without touching dependencies.
func Probe(c *gin.Context) {
	c.JSON(http.StatusOK, check.AliveResponse{Success: true, Messsage: "probe success"})
}
