package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"
	"go-stock-engine/internal/service"
	"go-stock-engine/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app   *fiber.App
	admin string
	sales string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	stock := repository.NewMemoryStockRepo()
	catalog := repository.NewMemoryCatalogRepo(model.DefaultCatalog)
	auth := service.NewAuthService(repository.NewMemoryOperatorRepo(), jwt.NewManager("test", time.Hour, "test"), nil)

	_, _, err := auth.EnsureOperator(ctx, "admin", "admin123", "Admin", model.RoleMasterAdmin)
	require.NoError(t, err)
	_, _, err = auth.EnsureOperator(ctx, "sales", "sales123", "Sales", model.RoleSales)
	require.NoError(t, err)

	ledger := service.NewStockLedger(stock, catalog, nil)
	app := fiber.New()
	SetupRoutes(app, Routes{
		Auth:        NewAuthHandler(auth),
		Stock:       NewStockHandler(service.NewTransactionService(stock, catalog, nil, nil), ledger),
		Report:      NewReportHandler(service.NewSummaryService(stock), service.NewAlertService(catalog, stock)),
		Catalog:     NewCatalogHandler(catalog),
		AuthService: auth,
	})

	s := &testServer{app: app}
	s.admin = s.login(t, "admin", "admin123")
	s.sales = s.login(t, "sales", "sales123")
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"username": username, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"username": "admin", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["kind"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodGet, "/api/v1/stock/summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/stock/summary", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPrivilegesAreEnforced(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/v1/production", s.sales,
		fiber.Map{"product_family_code": "TP", "container_size": 10, "count": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/ledger", s.sales, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestPurchaseProduceSellFlow(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/purchases", s.admin, fiber.Map{"items": []fiber.Map{
		{"product_code": "P", "qty": "1000"},
		{"product_code": "S", "qty": "1000"},
		{"product_code": "GALLON_10", "qty": "50"},
	}})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = s.do(t, http.MethodPost, "/api/v1/production", s.admin,
		fiber.Map{"product_family_code": "TP", "container_size": 10, "count": 20})
	require.Equal(t, http.StatusCreated, status, body)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 200, data["liters"])

	status, body = s.do(t, http.MethodGet, "/api/v1/stock/RAW_MATERIALS/P", s.sales, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "894", body["qty"])

	status, body = s.do(t, http.MethodPost, "/api/v1/sales", s.sales,
		fiber.Map{"product_family_code": "TP", "container_size": 10, "count": 25})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_PACKAGED_STOCK", body["kind"])
	details := body["details"].(map[string]interface{})
	assert.Equal(t, "25", details["need"])
	assert.Equal(t, "20", details["available"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/sales", s.sales,
		fiber.Map{"product_family_code": "TP", "container_size": 10, "count": 5})
	assert.Equal(t, http.StatusCreated, status)

	status, body = s.do(t, http.MethodGet, "/api/v1/stock/summary", s.sales, nil)
	require.Equal(t, http.StatusOK, status)
	families := body["families"].(map[string]interface{})
	tp := families["TP"].(map[string]interface{})
	assert.Equal(t, "150", tp["liters"])
	assert.Equal(t, "15", tp["packs"].(map[string]interface{})["10"])

	status, body = s.do(t, http.MethodGet, "/api/v1/ledger?product=TP_LITERS", s.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["count"])

	status, body = s.do(t, http.MethodGet, "/api/v1/ledger/verify", s.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["consistent"])
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/production", s.admin,
		fiber.Map{"product_family_code": "TP", "container_size": 7, "count": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["kind"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/purchases", s.admin, fiber.Map{"items": []fiber.Map{
		{"product_code": "P", "qty": "-1"},
	}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/purchases", s.admin, fiber.Map{"items": []fiber.Map{
		{"product_code": "TP_PACK_5", "qty": "3"},
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "DISALLOWED_PURCHASE_TARGET", body["kind"])

	status, _ = s.do(t, http.MethodGet, "/api/v1/ledger?limit=abc", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAlertsAndCatalog(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/v1/stock/alerts", s.sales, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, _ = s.do(t, http.MethodGet, "/api/v1/catalog/formulas/TP", s.sales, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/api/v1/catalog/formulas/ZZ", s.sales, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodGet, "/api/v1/stock/RAW_MATERIALS/NOPE", s.sales, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UNKNOWN_PRODUCT", body["kind"])
}
