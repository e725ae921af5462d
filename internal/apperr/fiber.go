package apperr

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders any handler error as a structured JSON body with a
// stable kind, mapping the taxonomy to HTTP status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status()).JSON(fiber.Map{
			"error": fiber.Map{"kind": appErr.Kind, "message": appErr.Message},
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		kind := "error"
		if fiberErr.Code == http.StatusBadRequest {
			kind = "invalid_request"
		}
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiber.Map{"kind": kind, "message": fiberErr.Message},
		})
	}

	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{"kind": "internal", "message": "internal server error"},
	})
}
