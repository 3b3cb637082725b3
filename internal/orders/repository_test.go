package orders

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/storedproc"
)

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	mockArgs := m.Called(ctx, sql, args)
	return mockArgs.Get(0).(pgx.Row)
}

type jsonRow string

func (r jsonRow) Scan(dest ...any) error {
	*(dest[0].(*[]byte)) = []byte(r)
	return nil
}

const pendingOrder = `{"errorCode":0,"data":{
	"id":5,"isActive":true,"isDeleted":false,"createdBy":7,"createdDate":"2025-01-01T09:00:00Z",
	"customerName":"Ada","customerEmail":"ada@example.com","status":"Pending","totalAmount":"20.00",
	"items":[{"id":1,"isActive":true,"isDeleted":false,"createdBy":7,"createdDate":"2025-01-01T09:00:00Z",
		"orderId":5,"itemId":1,"quantity":2,"unitPrice":"10.00","totalPrice":"20.00"}]}}`

func repositoryReturning(body string) (*Repository, *MockQuerier) {
	q := new(MockQuerier)
	q.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(jsonRow(body))
	return NewRepository(storedproc.NewGateway(q)), q
}

func TestCreate_SendsLinesAsOneArgument(t *testing.T) {
	// Arrange
	repo, q := repositoryReturning(pendingOrder)
	in := NewOrder{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items:         []LineItem{{ItemID: 1, Quantity: 2}},
	}

	// Act
	order, err := repo.Create(context.Background(), in, 7).Unwrap("order")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(20)))

	call := q.Calls[0]
	assert.Equal(t,
		`SELECT to_jsonb(r) FROM "sp_order_create"(p_customer_name => $1, p_customer_email => $2, p_items => $3, p_created_by => $4) AS r`,
		call.Arguments.String(1))
	args := call.Arguments.Get(2).([]any)
	assert.JSONEq(t, `[{"itemId":1,"quantity":2}]`, args[2].(string))
	assert.Equal(t, int64(7), args[3])
}

func TestGetByID_DeletedIsNotFound(t *testing.T) {
	repo, _ := repositoryReturning(`{"errorCode":0,"data":{"id":5,"isDeleted":true,"createdDate":"2025-01-01T09:00:00Z","status":"Cancelled"}}`)

	env := repo.GetByID(context.Background(), 5)

	assert.Equal(t, apperr.KindNotFound, env.Kind())
	assert.Nil(t, env.Data)
}

func TestGetByID_UnknownStatusIsInternal(t *testing.T) {
	repo, _ := repositoryReturning(`{"errorCode":0,"data":{"id":5,"createdDate":"2025-01-01T09:00:00Z","status":"Lost"}}`)

	env := repo.GetByID(context.Background(), 5)

	assert.Equal(t, apperr.CodeInternal, env.ErrorCode)
	assert.ErrorIs(t, env.Cause, ErrUnknownStatus)
}

func TestGetByID_PassesErrorCodeThrough(t *testing.T) {
	repo, _ := repositoryReturning(`{"errorCode":404,"data":null}`)

	_, err := repo.GetByID(context.Background(), 5).Unwrap("order")

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetAll_HidesDeletedOrders(t *testing.T) {
	// Arrange
	repo, q := repositoryReturning(`{"errorCode":0,"data":[
		{"id":1,"createdDate":"2025-01-01T09:00:00Z","status":"Pending"},
		{"id":2,"isDeleted":true,"createdDate":"2025-01-01T09:00:00Z","status":"Pending"}]}`)
	owner := int64(7)

	// Act
	list, err := repo.GetAll(context.Background(), &owner).Unwrap("orders")

	// Assert
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ID)
	args := q.Calls[0].Arguments.Get(2).([]any)
	assert.Equal(t, &owner, args[0])
}

func TestGetAll_EmptyListIsNotAnError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty array", body: `{"errorCode":0,"data":[]}`},
		{name: "null data", body: `{"errorCode":0,"data":null}`},
		{name: "no data field", body: `{"errorCode":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := repositoryReturning(tt.body)

			list, err := repo.GetAll(context.Background(), nil).Unwrap("orders")

			require.NoError(t, err)
			assert.NotNil(t, list)
			assert.Empty(t, list)
		})
	}
}

func TestUpdateStatus_SendsStatusText(t *testing.T) {
	repo, q := repositoryReturning(`{"errorCode":409}`)

	env := repo.UpdateStatus(context.Background(), 5, StatusShipped, 1)

	assert.Equal(t, apperr.KindConflict, env.Kind())
	args := q.Calls[0].Arguments.Get(2).([]any)
	assert.Equal(t, []any{int64(5), "Shipped", int64(1)}, args)
}
