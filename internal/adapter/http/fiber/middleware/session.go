package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/session"
)

const (
	// LocalsSID and LocalsSession are the fiber locals keys set by
	// SessionLoader.
	LocalsSID     = "sid"
	LocalsSession = "session"
)

// SessionLoader assigns every browser a session id cookie and resolves
// the stored session (if any) into locals. It never rejects a request.
func SessionLoader(manager *session.Manager, cookieName string, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(cookieName)
		if sid == "" {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     cookieName,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				Secure:   secure,
				SameSite: fiber.CookieSameSiteLaxMode,
				Expires:  time.Now().Add(365 * 24 * time.Hour),
			})
		}
		c.Locals(LocalsSID, sid)

		if sess := manager.Current(c.Context(), sid); sess != nil {
			c.Locals(LocalsSession, sess)
		}
		return c.Next()
	}
}

// LoginRequired redirects anonymous browsers to the login page,
// remembering where they were headed.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionFrom(c) == nil {
			if c.Accepts("text/html", "application/json") == "application/json" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
			}
			return c.Redirect("/login?next="+c.Path(), fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// SessionFrom returns the resolved session, or nil when logged out.
func SessionFrom(c *fiber.Ctx) *domain.Session {
	sess, _ := c.Locals(LocalsSession).(*domain.Session)
	return sess
}

// SIDFrom returns the browser's session id.
func SIDFrom(c *fiber.Ctx) string {
	sid, _ := c.Locals(LocalsSID).(string)
	return sid
}
