package router

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authController "github.com/zennieheo/hackathon2024-BE/controllers/auth"
	"github.com/zennieheo/hackathon2024-BE/controllers/intake"
	"github.com/zennieheo/hackathon2024-BE/middlewares"
	"github.com/zennieheo/hackathon2024-BE/services/auth"
	"github.com/zennieheo/hackathon2024-BE/services/ledger"
	"github.com/zennieheo/hackathon2024-BE/services/report"
)

func newTestRouter(t *testing.T, limiter *middlewares.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := ledger.NewMemoryStore()
	snapshots := report.NewMemorySnapshotStore()
	authService := auth.NewService(auth.NewMemoryUserStore(), "router-test-key")
	r, err := Router(Handlers{
		Intake:         intake.NewController(ledger.New(store), snapshots, report.NewReportService(store, snapshots), nil),
		Auth:           authController.NewController(authService),
		Authenticator:  authService,
		Limiter:        limiter,
		AllowedOrigins: []string{"http://localhost:8000"},
		AccessLog:      logger,
	})
	require.NoError(t, err)
	return r
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t, middlewares.NewRateLimiter(100, 1000))

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/read-probe", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/intake/?date=2024-07-01", http.StatusUnauthorized},
		{http.MethodDelete, "/api/intake/", http.StatusUnauthorized},
		{http.MethodGet, "/profile/", http.StatusUnauthorized},
		{http.MethodPost, "/login/", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRouter_ForwardedForDoesNotPickThrottleBucket(t *testing.T) {
	r := newTestRouter(t, middlewares.NewRateLimiter(2, 1000))

	var allowed int
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login/", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusTooManyRequests {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

func TestRouter_RejectsBadTrustedProxy(t *testing.T) {
	_, err := Router(Handlers{TrustedProxies: []string{"not-an-ip"}})
	assert.Error(t, err)
}
