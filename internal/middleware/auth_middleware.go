package middleware

import (
	"errors"
	"strings"

	"go-stock-engine/internal/service"
	"go-stock-engine/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Context keys set by RequireAuth.
const (
	LocalOperatorID   = "operator_id"
	LocalOperatorName = "operator_name"
	LocalRole         = "operator_role"
	LocalPrivileges   = "operator_privileges"
)

// RequireAuth is middleware that validates JWT token and sets operator info in context
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		op, err := auth.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			return rejectToken(c, err)
		}

		// The operator id is the ledger actor for everything downstream.
		c.Locals(LocalOperatorID, op.ID.String())
		c.Locals(LocalOperatorName, op.FullName)
		c.Locals(LocalRole, op.Role)
		c.Locals(LocalPrivileges, op.Privileges())

		return c.Next()
	}
}

// rejectToken answers 401 for known token and operator failures. Anything else
// is an infrastructure error and is not echoed.
func rejectToken(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrMissingToken):
		return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
	case errors.Is(err, service.ErrOperatorNotFound),
		errors.Is(err, service.ErrOperatorInactive),
		errors.Is(err, service.ErrSessionReplaced):
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// RequirePrivilege checks if the authenticated operator has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(LocalPrivileges).([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the operator has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(LocalPrivileges).([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, have := range privileges {
			for _, want := range requiredPrivileges {
				if have == want {
					return c.Next()
				}
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}

// OperatorID returns the authenticated operator id, or "" outside protected routes.
func OperatorID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalOperatorID).(string)
	return id
}
