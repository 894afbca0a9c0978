package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"github.com/sifan077/PowerRead/internal/app/service"
	"github.com/sifan077/PowerRead/internal/http/middleware"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// logged and hidden behind a generic 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, op string, err error) error {
	status, message := fiber.StatusInternalServerError, "internal server error"

	switch {
	case errors.Is(err, service.ErrAccessDenied):
		status, message = fiber.StatusForbidden, "access denied"
	case errors.Is(err, repository.ErrEntryNotFound):
		status, message = fiber.StatusNotFound, "entry not found"
	case errors.Is(err, repository.ErrTagNotFound):
		status, message = fiber.StatusNotFound, "tag not found"
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrUnknownView),
		errors.Is(err, repository.ErrInvalidPage):
		status, message = fiber.StatusBadRequest, err.Error()
	default:
		logger.Error(op+" failed", zap.Error(err), zap.String("path", c.Path()))
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func currentUser(c *fiber.Ctx) uint {
	id, _ := middleware.UserID(c)
	return id
}

func uintParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
