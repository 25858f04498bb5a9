package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/service"
	"go-stock-engine/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	service.AuthService
	op  *model.Operator
	err error
}

func (s stubAuth) ValidateToken(ctx context.Context, token string) (*model.Operator, error) {
	return s.op, s.err
}

func call(t *testing.T, auth service.AuthService, header string, chain ...fiber.Handler) (int, map[string]interface{}) {
	t.Helper()
	app := fiber.New()
	handlers := append([]fiber.Handler{RequireAuth(auth)}, chain...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"operator_id": OperatorID(c)})
	})
	app.Get("/", handlers...)

	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestRequireAuth_SetsOperator(t *testing.T) {
	op := &model.Operator{Username: "sales", Role: model.RoleSales}
	op.ID = uuid.New()

	status, body := call(t, stubAuth{op: op}, "Bearer token", RequirePrivilege(model.PrivSaleCreate))
	assert.Equal(t, 200, status)
	assert.Equal(t, op.ID.String(), body["operator_id"])

	status, _ = call(t, stubAuth{op: op}, "Bearer token", RequirePrivilege(model.PrivProductionCreate))
	assert.Equal(t, 403, status)
}

func TestRequireAuth_RejectsBadHeader(t *testing.T) {
	status, _ := call(t, stubAuth{}, "")
	assert.Equal(t, 401, status)

	status, _ = call(t, stubAuth{}, "Token abc")
	assert.Equal(t, 401, status)
}

func TestRequireAuth_KnownFailuresAre401(t *testing.T) {
	for _, err := range []error{jwt.ErrInvalidToken, service.ErrSessionReplaced, service.ErrOperatorInactive} {
		status, body := call(t, stubAuth{err: err}, "Bearer token")
		assert.Equal(t, 401, status, err)
		assert.NotEmpty(t, body["error"])
	}
}

func TestRequireAuth_HidesStoreErrors(t *testing.T) {
	cause := fmt.Errorf("load operator: %w", errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	status, body := call(t, stubAuth{err: cause}, "Bearer token")
	assert.Equal(t, 500, status)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, body["error"], "10.0.0.5")
}
