package handler

import (
	"go-stock-engine/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	catalog repository.CatalogRepository
}

func NewCatalogHandler(catalog repository.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GetProducts returns every catalog product
// GET /api/v1/catalog/products
func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.catalog.FindAllProducts(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch products"})
	}
	return c.JSON(products)
}

// GetFormulas returns the formula rows of one family
// GET /api/v1/catalog/formulas/:family
func (h *CatalogHandler) GetFormulas(c *fiber.Ctx) error {
	family := c.Params("family")
	formulas, err := h.catalog.FindFormulas(c.UserContext(), family)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch formulas"})
	}
	if len(formulas) == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "No formula defined for " + family})
	}
	return c.JSON(formulas)
}
