package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

const CtxSessionIDKey = "session_id"

// SessionMiddleware resolves the caller's identity from the session cookie
// and stores it in the request's user context. An unreadable session is
// treated as anonymous.
func SessionMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := Anonymous()

		sess, err := store.Get(c)
		if err != nil {
			zap.L().Debug("session unreadable, continuing as anonymous", zap.Error(err))
		} else {
			id = identityFromValues(sess.Get)
			if !sess.Fresh() {
				c.Locals(CtxSessionIDKey, sess.ID())
			}
		}

		setIdentity(c, id)
		return c.Next()
	}
}

// RequireKind rejects anonymous callers with 401 and callers of any other
// kind with 403.
func RequireKind(allowed ...Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		if id.IsAnonymous() {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
		}

		for _, k := range allowed {
			if k == id.Kind {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Not authorized")
	}
}
