package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blogsphere/pkg/apperrors"
	"blogsphere/services/auth/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, email, name, password string) (*entity.User, string, error) {
	args := m.Called(email, name, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entity.User), args.String(1), args.Error(2)
}

func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entity.User), args.String(1), args.Error(2)
}

func (m *MockAuthUseCase) GetProfile(ctx context.Context, requesterID string) (*entity.User, error) {
	args := m.Called(requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUseCase) UpdateName(ctx context.Context, requesterID, name string) (*entity.User, error) {
	args := m.Called(requesterID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func setupRouter(handler *AuthHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)
	router.GET("/me", handler.Me)
	router.PUT("/me", handler.UpdateMe)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "")

	uc.On("Register", "ana@example.com", "Ana", "secret1").
		Return(&entity.User{ID: "user-1", Email: "ana@example.com", Name: "Ana"}, "tok", nil)

	w := doJSON(router, "POST", "/register", RegisterRequest{Email: "ana@example.com", Name: "Ana", Password: "secret1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp AuthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_Register_InvalidEmail(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "")

	w := doJSON(router, "POST", "/register", RegisterRequest{Email: "not-an-email", Password: "secret1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "")

	uc.On("Register", "ana@example.com", "", "secret1").Return(nil, "", apperrors.ErrConflict)

	w := doJSON(router, "POST", "/register", RegisterRequest{Email: "ana@example.com", Password: "secret1"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Login_Unauthorized(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "")

	uc.On("Login", "ana@example.com", "bad").Return(nil, "", apperrors.ErrUnauthenticated)

	w := doJSON(router, "POST", "/login", LoginRequest{Email: "ana@example.com", Password: "bad"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "user-1")

	uc.On("GetProfile", "user-1").Return(&entity.User{ID: "user-1", Email: "ana@example.com", IsPremium: true}, nil)

	w := doJSON(router, "GET", "/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_premium":true`)
}

func TestAuthHandler_Me_Anonymous(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "")

	uc.On("GetProfile", "").Return(nil, apperrors.ErrUnauthenticated)

	w := doJSON(router, "GET", "/me", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_UpdateMe(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "user-1")

	uc.On("UpdateName", "user-1", "Ana B").Return(&entity.User{ID: "user-1", Name: "Ana B"}, nil)

	w := doJSON(router, "PUT", "/me", UpdateProfileRequest{Name: "Ana B"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ana B")
}

func TestAuthHandler_UpdateMe_StoreDown(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "user-1")

	uc.On("UpdateName", "user-1", "Ana B").Return(nil, apperrors.ErrUpstreamUnavailable)

	w := doJSON(router, "PUT", "/me", UpdateProfileRequest{Name: "Ana B"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "retry")
}

func TestAuthHandler_Register_PasswordTooLong(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "")

	w := doJSON(router, "POST", "/register", RegisterRequest{Email: "ana@example.com", Password: strings.Repeat("a", 73)})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_Register_ValidationFromUseCase(t *testing.T) {
	uc := new(MockAuthUseCase)
	router := setupRouter(NewAuthHandler(uc), "")

	uc.On("Register", "ana@example.com", "", "pässwörd").
		Return(nil, "", fmt.Errorf("%w: password must be at most 72 bytes", apperrors.ErrValidation))

	w := doJSON(router, "POST", "/register", RegisterRequest{Email: "ana@example.com", Password: "pässwörd"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
