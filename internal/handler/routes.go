package handler

import (
	"go-stock-engine/internal/middleware"
	"go-stock-engine/internal/model"
	"go-stock-engine/internal/service"
	"go-stock-engine/internal/ws"

	"github.com/gofiber/fiber/v2"
)

// Routes bundles what SetupRoutes mounts.
type Routes struct {
	Auth    *AuthHandler
	Stock   *StockHandler
	Report  *ReportHandler
	Catalog *CatalogHandler
	// AuthService backs RequireAuth.
	AuthService service.AuthService
	// Hub is optional; without it /ws is not mounted.
	Hub *ws.Hub
}

func SetupRoutes(app *fiber.App, r Routes) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.Post("/login", r.Auth.Login)
	auth.Post("/validate-token", r.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(r.AuthService)
	auth.Post("/change-password", requireAuth, r.Auth.ChangePassword)

	protected := api.Group("", requireAuth)

	// Business operations
	protected.Post("/production", middleware.RequirePrivilege(model.PrivProductionCreate), r.Stock.Produce)
	protected.Post("/sales", middleware.RequirePrivilege(model.PrivSaleCreate), r.Stock.Sell)
	protected.Post("/purchases", middleware.RequirePrivilege(model.PrivPurchaseCreate), r.Stock.Purchase)

	// Read projections; static paths before the parameterised one
	stock := protected.Group("/stock", middleware.RequirePrivilege(model.PrivStockView))
	stock.Get("/summary", r.Report.GetSummary)
	stock.Get("/alerts", r.Report.GetAlerts)
	stock.Get("/:warehouse/:product", r.Stock.GetBalance)

	ledger := protected.Group("/ledger", middleware.RequirePrivilege(model.PrivLedgerView))
	ledger.Get("/", r.Stock.GetLedger)
	ledger.Get("/verify", r.Stock.VerifyLedger)

	catalog := protected.Group("/catalog", middleware.RequireAnyPrivilege(model.PrivStockView, model.PrivLedgerView))
	catalog.Get("/products", r.Catalog.GetProducts)
	catalog.Get("/formulas/:family", r.Catalog.GetFormulas)

	// WebSocket Route
	if r.Hub != nil {
		app.Use("/ws", ws.Upgrade)
		app.Get("/ws", r.Hub.Handler())
	}
}
