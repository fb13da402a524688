package middleware

import (
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const HeaderCorrelationID = "X-Correlation-Id"

// RequestLogger tags the request context with a correlation id and logs one
// line per response.
func RequestLogger(logger log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderCorrelationID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderCorrelationID, id)
		c.SetUserContext(logger.WithCorrelationID(c.UserContext(), id))

		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler write the response so the status is final.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		level := log.InfoLevel
		switch {
		case status >= fiber.StatusInternalServerError:
			level = log.ErrorLevel
		case status >= fiber.StatusBadRequest:
			level = log.WarnLevel
		}
		logger.ResponseWithLevel(c.UserContext(), &log.Field{
			URL:            c.OriginalURL(),
			HostName:       c.Hostname(),
			HTTPStatusCode: status,
			Duration:       time.Since(start).Milliseconds(),
			HTTPMethod:     c.Method(),
			ClientIP:       c.IP(),
			Message:        "Request completed",
		}, level)
		return nil
	}
}
