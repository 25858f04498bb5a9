package handler

import (
	"strconv"

	"go-stock-engine/internal/apperror"
	"go-stock-engine/internal/middleware"
	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"
	"go-stock-engine/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	defaultLedgerLimit = 100
	maxLedgerLimit     = 1000
)

type StockHandler struct {
	engine service.TransactionService
	ledger service.StockLedger
}

func NewStockHandler(engine service.TransactionService, ledger service.StockLedger) *StockHandler {
	return &StockHandler{engine: engine, ledger: ledger}
}

// Produce records a production run
// POST /api/v1/production
func (h *StockHandler) Produce(c *fiber.Ctx) error {
	var req service.ProductionRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	res, err := h.engine.Produce(c.UserContext(), req, middleware.OperatorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Production recorded", "data": res})
}

// Sell records a sale of packaged product
// POST /api/v1/sales
func (h *StockHandler) Sell(c *fiber.Ctx) error {
	var req service.SaleRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	res, err := h.engine.Sell(c.UserContext(), req, middleware.OperatorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sale recorded", "data": res})
}

// Purchase records incoming raw materials or empty containers
// POST /api/v1/purchases
func (h *StockHandler) Purchase(c *fiber.Ctx) error {
	var req service.PurchaseRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	res, err := h.engine.Purchase(c.UserContext(), req, middleware.OperatorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Purchase recorded", "data": res})
}

// GetBalance returns the current quantity of one pair
// GET /api/v1/stock/:warehouse/:product
func (h *StockHandler) GetBalance(c *fiber.Ctx) error {
	warehouse, product := c.Params("warehouse"), c.Params("product")
	qty, err := h.ledger.CurrentQty(c.UserContext(), warehouse, product)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"warehouse_code": warehouse,
		"product_code":   product,
		"qty":            qty,
	})
}

// GetLedger lists ledger entries in append order
// Query params: warehouse, product, kind, operation_id, limit (default 100)
func (h *StockHandler) GetLedger(c *fiber.Ctx) error {
	filter := repository.LedgerFilter{
		WarehouseCode: c.Query("warehouse"),
		ProductCode:   c.Query("product"),
		Kind:          model.TransactionKind(c.Query("kind")),
		Limit:         defaultLedgerLimit,
	}
	if raw := c.Query("operation_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return respondError(c, apperror.NewValidation("operation_id must be a UUID"))
		}
		filter.OperationID = id
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return respondError(c, apperror.NewValidation("limit must be a positive integer"))
		}
		filter.Limit = min(limit, maxLedgerLimit)
	}

	entries, err := h.ledger.Entries(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(entries), "data": entries})
}

// VerifyLedger compares the balance projection with a full ledger replay
// GET /api/v1/ledger/verify
func (h *StockHandler) VerifyLedger(c *fiber.Ctx) error {
	drifts, err := h.ledger.Verify(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"consistent": len(drifts) == 0, "drifts": drifts})
}
