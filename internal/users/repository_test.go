package users

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
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

func repositoryReturning(body string) (*Repository, *MockQuerier) {
	q := new(MockQuerier)
	q.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(jsonRow(body))
	return NewRepository(storedproc.NewGateway(q)), q
}

func TestFindByUsername(t *testing.T) {
	repo, q := repositoryReturning(`{"errorCode":0,"data":{"id":2,"username":"ada","email":"ada@example.com","passwordHash":"$2a$04$x","role":"User","isActive":true}}`)

	cred, err := repo.FindByUsername(context.Background(), "ada").Unwrap("user")

	require.NoError(t, err)
	assert.Equal(t, int64(2), cred.ID)
	assert.Equal(t, "User", cred.Role)
	assert.Equal(t, []any{"ada"}, q.Calls[0].Arguments.Get(2).([]any))
}

func TestCreate_SelfRegistrationSendsNullCreator(t *testing.T) {
	// Arrange
	repo, q := repositoryReturning(`{"errorCode":0,"data":{"id":2,"isActive":true,"createdDate":"2025-01-01T09:00:00Z","username":"ada","email":"ada@example.com","role":"User"}}`)

	// Act
	user, err := repo.Create(context.Background(), NewUser{Username: "ada", Email: "ada@example.com", PasswordHash: "h", Role: "User"}, nil).Unwrap("user")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	args := q.Calls[0].Arguments.Get(2).([]any)
	require.Len(t, args, 5)
	assert.Nil(t, args[4])
}

func TestCreate_MissingAuditIsInternal(t *testing.T) {
	repo, _ := repositoryReturning(`{"errorCode":0,"data":{"id":2,"username":"ada"}}`)

	env := repo.Create(context.Background(), NewUser{Username: "ada"}, nil)

	assert.Equal(t, apperr.CodeInternal, env.ErrorCode)
}
