package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-api/internal/middleware"
	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

type authServiceMock struct {
	login     *models.LoginRequest
	profileID int64
	err       error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.login = &req
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{AccessToken: "token", ExpiresIn: 3600, User: models.UserInfo{ID: 1, Username: req.Username, Role: models.RoleAdmin}}, nil
}

func (m *authServiceMock) Profile(ctx context.Context, userID int64) (*models.UserInfo, error) {
	m.profileID = userID
	return &models.UserInfo{ID: userID, Username: "admin", Role: models.RoleAdmin}, m.err
}

func TestLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{"username":"admin","password":"secret"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "admin", svc.login.Username)
	require.Contains(t, w.Body.String(), `"access_token":"token"`)
}

func TestLoginInvalidCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "")})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{"username":"admin","password":"nope"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/auth/me", nil)

	handler.Me(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeReturnsProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 5, Username: "admin", Role: models.RoleAdmin})

	handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(5), svc.profileID)
}
