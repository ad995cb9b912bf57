package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/controllers/response"
	"github.com/zennieheo/hackathon2024-BE/middlewares"
	authService "github.com/zennieheo/hackathon2024-BE/services/auth"
	"github.com/zennieheo/hackathon2024-BE/structs"
)

type Controller struct {
	service *authService.Service
}

func NewController(service *authService.Service) *Controller {
	return &Controller{service: service}
}

func bindError(err error) error {
	return apperr.Validation("Invalid request body: " + err.Error())
}

func (ctl *Controller) Register(c *gin.Context) {
	var param structs.RegisterParam
	if err := c.ShouldBindJSON(&param); err != nil {
		response.Error(c, bindError(err))
		return
	}
	user, err := ctl.service.Register(c.Request.Context(), param)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func (ctl *Controller) Login(c *gin.Context) {
	var param structs.CredentialParam
	if err := c.ShouldBindJSON(&param); err != nil {
		response.Error(c, bindError(err))
		return
	}
	pair, err := ctl.service.Login(c.Request.Context(), param)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (ctl *Controller) Refresh(c *gin.Context) {
	var param structs.RefreshParam
	if err := c.ShouldBindJSON(&param); err != nil {
		response.Error(c, bindError(err))
		return
	}
	pair, err := ctl.service.Refresh(c.Request.Context(), param.Refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// CreateAPIKey returns the caller's API key, creating it the first time.
func (ctl *Controller) CreateAPIKey(c *gin.Context) {
	var param structs.CredentialParam
	if err := c.ShouldBindJSON(&param); err != nil {
		response.Error(c, bindError(err))
		return
	}
	apiKey, err := ctl.service.CreateAPIKey(c.Request.Context(), param)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"api_key": apiKey.Key})
}

func (ctl *Controller) Profile(c *gin.Context) {
	user, err := ctl.service.Profile(c.Request.Context(), middlewares.Owner(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
