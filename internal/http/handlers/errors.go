package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

const genericError = "Something went wrong. Please try again."

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps service errors to status codes. Anything unrecognised is
// logged and answered with a generic 500.
func writeError(c *fiber.Ctx, action string, err error) error {
	var (
		ve *services.ValidationError
		pm *services.PriceMismatchError
		nf *services.NotFoundError
		it *services.InvalidTransitionError
		de *services.DownstreamError
	)
	switch {
	case errors.As(err, &ve):
		log.Security(c, action+".invalid", map[string]any{"field": ve.Field})
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: ve.Error(), Field: ve.Field})
	case errors.As(err, &pm):
		log.Security(c, action+".price_mismatch", map[string]any{"submitted": pm.Submitted, "expected": pm.Expected})
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: pm.Error(), Field: "amount"})
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: nf.Error()})
	case errors.As(err, &it):
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: it.Error()})
	case errors.Is(err, services.ErrBadCreds):
		log.Security(c, action+".bad_credentials", nil)
		return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrAuthRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Error: err.Error()})
	case errors.As(err, &de):
		log.Error(c, action+".downstream", err, map[string]any{"op": de.Op})
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: de.Op + " is unavailable right now"})
	}
	log.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: genericError})
}

func badBody(c *fiber.Ctx, action string, err error) error {
	log.Security(c, action+".bad_body", map[string]any{"reason": err.Error()})
	return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "malformed request body"})
}

// ErrorHandler is the app-level fallback for errors handlers did not answer themselves.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(errorBody{Error: fe.Message})
	}
	log.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: genericError})
}
