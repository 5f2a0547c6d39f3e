package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery turns a panic in a later handler into a logged 500.
func Recovery(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			}
			if rid, ok := c.Locals(localRequestID).(string); ok {
				fields = append(fields, zap.String("request_id", rid))
			}
			if uid, ok := c.Locals(localUserID).(string); ok {
				fields = append(fields, zap.String("user_id", uid))
			}
			logger.Error("panic recovered", fields...)

			err = fiber.NewError(fiber.StatusInternalServerError, "internal error")
		}()

		return c.Next()
	}
}
