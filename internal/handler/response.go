package handler

import (
	"go-stock-engine/internal/apperror"
	"go-stock-engine/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to its status and a JSON body carrying
// the machine-readable kind. Internal causes never reach the client.
func respondError(c *fiber.Ctx, err error) error {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
			"kind":  apperror.KindInternal,
		})
	}

	body := fiber.Map{"error": appErr.Message, "kind": appErr.Kind}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	return c.Status(apperror.HTTPStatus(appErr)).JSON(body)
}

// parseBody decodes and validates a request body. It writes the 400 response
// itself and reports false when the handler should stop.
func parseBody(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(400).JSON(fiber.Map{"error": "Invalid JSON", "kind": apperror.KindValidation})
	}
	if errs := validator.ValidateStruct(out); len(errs) > 0 {
		return false, c.Status(400).JSON(fiber.Map{
			"error":  validator.Message(errs),
			"kind":   apperror.KindValidation,
			"fields": errs,
		})
	}
	return true, nil
}
