package handler

import (
	"go-stock-engine/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	summary service.SummaryService
	alerts  service.AlertService
}

func NewReportHandler(summary service.SummaryService, alerts service.AlertService) *ReportHandler {
	return &ReportHandler{summary: summary, alerts: alerts}
}

// GetSummary returns raw materials, empty containers and finished families
// GET /api/v1/stock/summary
func (h *ReportHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.summary.StockSummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetAlerts returns every pair below its configured minimum
// GET /api/v1/stock/alerts
func (h *ReportHandler) GetAlerts(c *fiber.Ctx) error {
	breaches, err := h.alerts.Evaluate(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(breaches), "data": breaches})
}
