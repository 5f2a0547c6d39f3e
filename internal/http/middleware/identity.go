package middleware

import (
	"strings"

	"github.com/danger-5344/templa-socialV2/internal/app/service"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDHeader carries the opaque user id set by the authenticating proxy.
	UserIDHeader = "X-User-ID"

	localUserID = "user_id"
	localStaff  = "staff"
)

// Identity resolves the caller from UserIDHeader and rejects anonymous
// requests. Staff membership comes from the configured user ids.
func Identity(staffUsers []string) fiber.Handler {
	staff := make(map[string]struct{}, len(staffUsers))
	for _, id := range staffUsers {
		if id = strings.TrimSpace(id); id != "" {
			staff[id] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(UserIDHeader))
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing " + UserIDHeader + " header",
				"code":  "UNAUTHENTICATED",
			})
		}
		_, isStaff := staff[userID]
		c.Locals(localUserID, userID)
		c.Locals(localStaff, isStaff)
		return c.Next()
	}
}

// CurrentIdentity returns the caller resolved by Identity.
func CurrentIdentity(c *fiber.Ctx) service.Identity {
	userID, _ := c.Locals(localUserID).(string)
	staff, _ := c.Locals(localStaff).(bool)
	return service.Identity{UserID: userID, Staff: staff}
}

// RequireStaff rejects callers that are not staff.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentIdentity(c).Staff {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "staff only",
				"code":  "FORBIDDEN",
			})
		}
		return c.Next()
	}
}
