package middleware

import (
	"errors"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// ErrorHandler maps classified errors to their status code. Internal causes
// are logged and never returned to the caller.
func ErrorHandler(logger log.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message})
		}

		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			appErr = apperror.Internal(err)
		}
		if appErr.Kind == apperror.KindInternal {
			logger.Exception(c.UserContext(), "HTTP request error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: apperror.MsgInternal})
		}
		return c.Status(apperror.StatusCode(appErr.Kind)).JSON(ErrorResponse{Error: appErr.Message, Reason: appErr.Reason})
	}
}
