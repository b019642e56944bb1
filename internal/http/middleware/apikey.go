package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader carries the public API key on administrative calls.
const APIKeyHeader = "apikey"

// APIKey rejects requests whose apikey header does not match key.
func APIKey(key string) fiber.Handler {
	want := []byte(key)
	return func(c *fiber.Ctx) error {
		got := []byte(c.Get(APIKeyHeader))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}
