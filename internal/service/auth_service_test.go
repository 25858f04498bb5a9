package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"
	"go-stock-engine/pkg/jwt"

	"github.com/google/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) AuthService {
	t.Helper()
	auth := NewAuthService(repository.NewMemoryOperatorRepo(), jwt.NewManager("test-secret", time.Hour, "test"), nil)
	_, created, err := auth.EnsureOperator(context.Background(), "sales", "pw123456", "Sales Desk", model.RoleSales)
	require.NoError(t, err)
	require.True(t, created)
	return auth
}

func TestLogin_IssuesTokenForOperator(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	res, err := auth.Login(ctx, "sales", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, []string{model.PrivStockView, model.PrivSaleCreate}, res.Operator.Privileges)

	op, err := auth.ValidateToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "sales", op.Username)
	assert.True(t, op.HasPrivilege(model.PrivSaleCreate))
	assert.False(t, op.HasPrivilege(model.PrivProductionCreate))
}

func TestLogin_WrongPassword(t *testing.T) {
	auth := newAuth(t)
	_, err := auth.Login(context.Background(), "sales", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), "ghost", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_ReplacesEarlierSession(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	first, err := auth.Login(ctx, "sales", "pw123456")
	require.NoError(t, err)
	_, err = auth.Login(ctx, "sales", "pw123456")
	require.NoError(t, err)

	_, err = auth.ValidateToken(ctx, first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)
	before, err := auth.Login(ctx, "sales", "pw123456")
	require.NoError(t, err)

	require.NoError(t, auth.ResetPassword(ctx, "sales", "new-secret"))

	_, err = auth.ValidateToken(ctx, before.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
	_, err = auth.Login(ctx, "sales", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "sales", "new-secret")
	assert.NoError(t, err)

	assert.ErrorIs(t, auth.ResetPassword(ctx, "ghost", "x"), ErrOperatorNotFound)
}

func TestEnsureOperator_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	op, created, err := auth.EnsureOperator(ctx, "sales", "other", "Other", model.RoleMasterAdmin)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.RoleSales, op.Role)

	_, _, err = auth.EnsureOperator(ctx, "x", "pw", "X", "JANITOR")
	assert.Error(t, err)
}

func TestChangePassword_RequiresCurrentPassword(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)
	res, err := auth.Login(ctx, "sales", "pw123456")
	require.NoError(t, err)
	op, err := auth.ValidateToken(ctx, res.Token)
	require.NoError(t, err)

	assert.ErrorIs(t, auth.ChangePassword(ctx, op.ID, "wrong", "next-pass"), ErrWrongPassword)
	require.NoError(t, auth.ChangePassword(ctx, op.ID, "pw123456", "next-pass"))

	_, err = auth.Login(ctx, "sales", "next-pass")
	assert.NoError(t, err)
}

type flakyOperators struct {
	repository.OperatorRepository
	err error
}

func (r *flakyOperators) FindByID(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.OperatorRepository.FindByID(ctx, id)
}

func TestValidateToken_StoreFailureIsNotAnAuthFailure(t *testing.T) {
	ctx := context.Background()
	operators := &flakyOperators{OperatorRepository: repository.NewMemoryOperatorRepo()}
	auth := NewAuthService(operators, jwt.NewManager("test-secret", time.Hour, "test"), nil)
	_, _, err := auth.EnsureOperator(ctx, "sales", "pw123456", "Sales Desk", model.RoleSales)
	require.NoError(t, err)
	res, err := auth.Login(ctx, "sales", "pw123456")
	require.NoError(t, err)

	operators.err = errors.New("connection reset by peer")
	_, err = auth.ValidateToken(ctx, res.Token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOperatorNotFound)
	assert.ErrorIs(t, err, operators.err)

	operators.err = repository.ErrNotFound
	_, err = auth.ValidateToken(ctx, res.Token)
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}
