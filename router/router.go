package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	authController "github.com/zennieheo/hackathon2024-BE/controllers/auth"
	"github.com/zennieheo/hackathon2024-BE/controllers/check"
	"github.com/zennieheo/hackathon2024-BE/controllers/intake"
	"github.com/zennieheo/hackathon2024-BE/controllers/readProbe"
	"github.com/zennieheo/hackathon2024-BE/middlewares"
	"github.com/zennieheo/hackathon2024-BE/services/metrics"
)

// Handlers carries everything the routes need.
type Handlers struct {
	Intake         *intake.Controller
	Auth           *authController.Controller
	Authenticator  middlewares.Authenticator
	Limiter        *middlewares.RateLimiter
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For. Empty means the peer address is the client.
	TrustedProxies []string
	AccessLog      *logrus.Logger
}

func Router(h Handlers) (*gin.Engine, error) {
	route := gin.New()
	if err := route.SetTrustedProxies(h.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	route.Use(gin.Recovery(), middlewares.RequestLog(h.AccessLog), middlewares.Metrics(), middlewares.Cors(h.AllowedOrigins))

	route.GET("/read-probe", readProbe.Probe)
	route.GET("/check-live", check.CheckAlive)
	route.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := route.Group("/", middlewares.Authenticate(h.Authenticator), h.Limiter.Handler())
	api.POST("/register/", h.Auth.Register)
	api.POST("/login/", h.Auth.Login)
	api.POST("/token/refresh/", h.Auth.Refresh)
	api.POST("/api/create-api-key/", h.Auth.CreateAPIKey)

	private := api.Group("/", middlewares.RequireOwner())
	private.GET("/profile/", h.Auth.Profile)
	h.Intake.Register(private.Group("/api/intake"))

	return route, nil
}
