package middleware

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit admits formatted ("5-M", "100-H") requests per user, falling back
// to the client IP on routes without RequireAuth in front.
func RateLimit(formatted string, logger zerolog.Logger) (fiber.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	instance := limiter.New(memory.NewStore(), rate)

	return func(c *fiber.Ctx) error {
		key := c.IP()
		if userID, ok := c.Locals(LocalUserID).(string); ok && userID != "" {
			key = userID
		}

		limit, err := instance.Get(c.UserContext(), key)
		if err != nil {
			// The memory store does not fail in practice; let the request through.
			logger.Error().Err(err).Str("key", key).Msg("Rate limiter lookup failed")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(limit.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(limit.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(limit.Reset, 10))

		if limit.Reached {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, try again later"})
		}
		return c.Next()
	}, nil
}
