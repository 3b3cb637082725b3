package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/orders"
	"github.com/matheusmosca/orders-inventory/internal/resource"
	"github.com/matheusmosca/orders-inventory/internal/response"
)

// MockOrderUseCase is a mock implementation of OrderUseCaseInterface
type MockOrderUseCase struct {
	mock.Mock
}

func (m *MockOrderUseCase) CreateOrder(ctx context.Context, caller auth.Identity, req CreateOrderRequest) response.Response[orders.Order] {
	args := m.Called(ctx, caller, req)
	return args.Get(0).(response.Response[orders.Order])
}

func (m *MockOrderUseCase) GetOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order] {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(response.Response[orders.Order])
}

func (m *MockOrderUseCase) ListOrders(ctx context.Context, caller auth.Identity) response.Response[[]orders.Order] {
	args := m.Called(ctx, caller)
	return args.Get(0).(response.Response[[]orders.Order])
}

func (m *MockOrderUseCase) UpdateOrder(ctx context.Context, caller auth.Identity, id int64, req UpdateOrderRequest) response.Response[orders.Order] {
	args := m.Called(ctx, caller, id, req)
	return args.Get(0).(response.Response[orders.Order])
}

func (m *MockOrderUseCase) UpdateOrderStatus(ctx context.Context, caller auth.Identity, id int64, req UpdateStatusRequest) response.Response[orders.Order] {
	args := m.Called(ctx, caller, id, req)
	return args.Get(0).(response.Response[orders.Order])
}

func (m *MockOrderUseCase) CancelOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order] {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(response.Response[orders.Order])
}

func (m *MockOrderUseCase) DeleteOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order] {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(response.Response[orders.Order])
}

var testTokens = auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), "orders-inventory", time.Hour)

func setupRouter(uc OrderUseCaseInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewOrderHandler(uc).Register(r, testTokens)
	return r
}

func bearer(t *testing.T, id auth.Identity) string {
	t.Helper()
	token, err := testTokens.Issue(id)
	require.NoError(t, err)
	return "Bearer " + token.Value
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

func sampleOrder() orders.Order {
	return orders.Order{
		Base:   resource.Base{ID: 5, IsActive: true, CreatedBy: ada.ID, CreatedDate: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)},
		Status: orders.StatusPending,
	}
}

func TestCreateOrderHandler(t *testing.T) {
	// Arrange
	uc := new(MockOrderUseCase)
	want := CreateOrderRequest{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []orders.LineItem{{ItemID: 1, Quantity: 2}},
	}
	uc.On("CreateOrder", mock.Anything, ada, want).Return(response.OK("order created", sampleOrder()))
	r := setupRouter(uc)

	// Act
	w := do(r, http.MethodPost, "/api/orders", bearer(t, ada),
		`{"customerName":"Ada","customerEmail":"ada@example.com","items":[{"itemId":1,"quantity":2}]}`)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"order created"`)
	assert.Contains(t, w.Body.String(), `"errorCode":0`)
	uc.AssertExpectations(t)
}

func TestCreateOrderHandler_InvalidBody(t *testing.T) {
	uc := new(MockOrderUseCase)
	r := setupRouter(uc)

	bodies := []string{
		`{"customerName":"Ada","customerEmail":"ada@example.com","items":[]}`,
		`{"customerName":"Ada","customerEmail":"not-an-email","items":[{"itemId":1,"quantity":2}]}`,
		`{"customerName":"Ada","customerEmail":"ada@example.com","items":[{"itemId":1,"quantity":0}]}`,
		`{"customerName":"Ada"`,
	}
	for _, body := range bodies {
		w := do(r, http.MethodPost, "/api/orders", bearer(t, ada), body)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), `"errorCode":400`, body)
	}
	uc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrderHandler_MapsErrorCodes(t *testing.T) {
	tests := []struct {
		code   int
		status int
	}{
		{0, http.StatusOK},
		{403, http.StatusForbidden},
		{404, http.StatusNotFound},
		{500, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		uc := new(MockOrderUseCase)
		resp := response.Response[orders.Order]{ErrorCode: tt.code, Message: "m"}
		if tt.code == 0 {
			resp = response.OK("order retrieved", sampleOrder())
		}
		uc.On("GetOrder", mock.Anything, bob, int64(5)).Return(resp)

		w := do(setupRouter(uc), http.MethodGet, "/api/orders/5", bearer(t, bob), "")

		assert.Equal(t, tt.status, w.Code, "code %d", tt.code)
	}
}

func TestOrderHandlers_RejectBadIDs(t *testing.T) {
	uc := new(MockOrderUseCase)
	r := setupRouter(uc)

	for _, path := range []string{"/api/orders/abc", "/api/orders/0", "/api/orders/-1"} {
		w := do(r, http.MethodGet, path, bearer(t, ada), "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	w := do(r, http.MethodPost, "/api/orders/x/cancel", bearer(t, ada), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertExpectations(t)
}

func TestOrderHandlers_RequireToken(t *testing.T) {
	uc := new(MockOrderUseCase)
	r := setupRouter(uc)

	w := do(r, http.MethodGet, "/api/orders", "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"missing bearer token","errorCode":401,"data":null}`, w.Body.String())
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	uc := new(MockOrderUseCase)
	shipped := sampleOrder()
	shipped.Status = orders.StatusShipped
	uc.On("UpdateOrderStatus", mock.Anything, admin, int64(5), UpdateStatusRequest{Status: orders.StatusShipped}).
		Return(response.OK("order status updated", shipped))

	w := do(setupRouter(uc), http.MethodPatch, "/api/orders/5/status", bearer(t, admin), `{"status":"Shipped"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Shipped"`)
	uc.AssertExpectations(t)
}

func TestListOrdersHandler(t *testing.T) {
	uc := new(MockOrderUseCase)
	uc.On("ListOrders", mock.Anything, ada).Return(response.OK("orders retrieved", []orders.Order{sampleOrder()}))

	w := do(setupRouter(uc), http.MethodGet, "/api/orders", bearer(t, ada), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":5`)
}

func TestOrderRoutes_EndToEnd(t *testing.T) {
	// Arrange
	uc, _ := newOrderUseCase()
	r := setupRouter(uc)
	body := `{"customerName":"Ada","customerEmail":"ada@example.com","items":[{"itemId":1,"quantity":2}]}`

	// Act
	created := do(r, http.MethodPost, "/api/orders", bearer(t, ada), body)
	forbidden := do(r, http.MethodGet, "/api/orders/1", bearer(t, bob), "")
	cancelled := do(r, http.MethodPost, "/api/orders/1/cancel", bearer(t, ada), "")
	again := do(r, http.MethodPost, "/api/orders/1/cancel", bearer(t, ada), "")
	deleted := do(r, http.MethodDelete, "/api/orders/1", bearer(t, admin), "")
	gone := do(r, http.MethodDelete, "/api/orders/1", bearer(t, admin), "")

	// Assert
	assert.Equal(t, http.StatusCreated, created.Code)
	assert.Contains(t, created.Body.String(), `"totalAmount":"20"`)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)
	assert.Equal(t, http.StatusOK, cancelled.Code)
	assert.Contains(t, cancelled.Body.String(), `"status":"Cancelled"`)
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Equal(t, http.StatusOK, deleted.Code)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}
