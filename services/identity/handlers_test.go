package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/response"
	"github.com/matheusmosca/orders-inventory/internal/users"
)

// MockIdentityUseCase is a mock implementation of IdentityUseCaseInterface
type MockIdentityUseCase struct {
	mock.Mock
}

func (m *MockIdentityUseCase) Login(ctx context.Context, req LoginRequest) response.Response[auth.Session] {
	args := m.Called(ctx, req)
	return args.Get(0).(response.Response[auth.Session])
}

func (m *MockIdentityUseCase) Register(ctx context.Context, req RegisterRequest) response.Response[users.User] {
	args := m.Called(ctx, req)
	return args.Get(0).(response.Response[users.User])
}

func (m *MockIdentityUseCase) RegisterAdmin(ctx context.Context, caller auth.Identity, req RegisterRequest) response.Response[users.User] {
	args := m.Called(ctx, caller, req)
	return args.Get(0).(response.Response[users.User])
}

func (m *MockIdentityUseCase) Me(ctx context.Context, caller auth.Identity) response.Response[auth.Identity] {
	args := m.Called(ctx, caller)
	return args.Get(0).(response.Response[auth.Identity])
}

func setupRouter(uc IdentityUseCaseInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewIdentityHandler(uc).Register(r, testTokens)
	return r
}

func do(r http.Handler, method, path, authorization, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginHandler(t *testing.T) {
	// Arrange
	uc := new(MockIdentityUseCase)
	uc.On("Login", mock.Anything, LoginRequest{Username: "ada", Password: "analytical"}).
		Return(response.Response[auth.Session]{Message: "invalid credentials", ErrorCode: 401})

	// Act
	w := do(setupRouter(uc), http.MethodPost, "/api/auth/login", "", `{"username":"ada","password":"analytical"}`)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"invalid credentials","errorCode":401,"data":null}`, w.Body.String())
	uc.AssertExpectations(t)
}

func TestRegisterHandler_ValidatesBody(t *testing.T) {
	uc := new(MockIdentityUseCase)
	r := setupRouter(uc)

	bodies := []string{
		`{"username":"ada","email":"ada@example.com","password":"short"}`,
		`{"username":"ada","email":"nope","password":"long-enough"}`,
		`{"username":"a","email":"ada@example.com","password":"long-enough"}`,
		`{"username":"ada","email":"ada@example.com","password":"` + strings.Repeat("x", 73) + `"}`,
	}
	for _, body := range bodies {
		w := do(r, http.MethodPost, "/api/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	uc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterHandler_Created(t *testing.T) {
	uc := new(MockIdentityUseCase)
	uc.On("Register", mock.Anything, RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "long-enough"}).
		Return(response.OK("user registered", users.User{Username: "ada", Role: "User"}))

	w := do(setupRouter(uc), http.MethodPost, "/api/auth/register", "", `{"username":"ada","email":"ada@example.com","password":"long-enough"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAdminRoute_RequiresAdmin(t *testing.T) {
	uc := new(MockIdentityUseCase)
	r := setupRouter(uc)
	user, err := testTokens.Issue(auth.Identity{ID: 2, Username: "ada", Role: auth.RoleUser})
	require.NoError(t, err)

	w := do(r, http.MethodPost, "/api/auth/admins", "Bearer "+user.Value, `{"username":"grace","email":"grace@example.com","password":"long-enough"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	uc.AssertNotCalled(t, "RegisterAdmin", mock.Anything, mock.Anything, mock.Anything)
}

func TestMeHandler(t *testing.T) {
	uc := new(MockIdentityUseCase)
	ada := auth.Identity{ID: 2, Username: "ada", Email: "ada@example.com", Role: auth.RoleUser}
	uc.On("Me", mock.Anything, ada).Return(response.OK("identity retrieved", ada))
	token, err := testTokens.Issue(ada)
	require.NoError(t, err)
	r := setupRouter(uc)

	w := do(r, http.MethodGet, "/api/auth/me", "Bearer "+token.Value, "")
	anonymous := do(r, http.MethodGet, "/api/auth/me", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ada"`)
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
}
