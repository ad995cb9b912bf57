package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zennieheo/hackathon2024-BE/middlewares"
	authService "github.com/zennieheo/hackathon2024-BE/services/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	service := authService.NewService(authService.NewMemoryUserStore(), "controller-test-key")
	ctl := NewController(service)

	r := gin.New()
	api := r.Group("/", middlewares.Authenticate(service))
	api.POST("/register/", ctl.Register)
	api.POST("/login/", ctl.Login)
	api.POST("/token/refresh/", ctl.Refresh)
	api.POST("/api/create-api-key/", ctl.CreateAPIKey)
	api.GET("/profile/", middlewares.RequireOwner(), ctl.Profile)
	return r
}

func send(r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	r := newEngine()

	w := send(r, http.MethodPost, "/register/", `{"username":"amy","password":"pw1","password2":"pw2"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/register/", `{"username":"amy"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/register/", `{"username":"amy","password":"pw1","password2":"pw1"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "pw1")

	w = send(r, http.MethodPost, "/login/", `{"username":"amy","password":"bad"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(r, http.MethodPost, "/login/", `{"username":"amy","password":"pw1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pair authService.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))

	w = send(r, http.MethodGet, "/profile/", "", map[string]string{"Authorization": "Bearer " + pair.Access})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"amy"`)

	w = send(r, http.MethodGet, "/profile/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(r, http.MethodPost, "/token/refresh/", `{"refresh":"`+pair.Refresh+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = send(r, http.MethodPost, "/token/refresh/", `{"refresh":"`+pair.Refresh+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAPIKey(t *testing.T) {
	r := newEngine()
	send(r, http.MethodPost, "/register/", `{"username":"bo","password":"pw","password2":"pw"}`, nil)

	w := send(r, http.MethodPost, "/api/create-api-key/", `{"username":"bo","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body["api_key"], 40)

	w = send(r, http.MethodPost, "/api/create-api-key/", `{"username":"bo","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), body["api_key"])

	w = send(r, http.MethodGet, "/profile/", "", map[string]string{"Authorization": "Api-Key " + body["api_key"]})
	assert.Equal(t, http.StatusOK, w.Code)
}
