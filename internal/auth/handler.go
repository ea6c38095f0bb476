package auth

import (
	"context"
	"strings"

	"rrnagar-backend/internal/models"
	"rrnagar-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore is the account lookup used by the login handlers.
type AccountStore interface {
	AdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	SupplierByEmail(ctx context.Context, email string) (*models.Supplier, error)
	CustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	CountAdmins(ctx context.Context) (int64, error)
	CreateAdmin(ctx context.Context, a *models.Admin) error
}

type RegisterAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type account struct {
	id           uint
	name         string
	passwordHash string
}

type accountLookup func(ctx context.Context, email string) (account, error)

// POST /api/admin/auth/register
// Only allowed while no admin exists.
func RegisterAdminHandler(accounts AccountStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = normalizeEmail(body.Email)
		body.Name = strings.TrimSpace(body.Name)
		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name, email and password are required")
		}

		count, err := accounts.CountAdmins(c.UserContext())
		if err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "An admin already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrap(err, "hash password")
		}

		admin := models.Admin{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
		}
		if err := accounts.CreateAdmin(c.UserContext(), &admin); err != nil {
			return err
		}

		zap.S().Infow("admin registered", "admin_id", admin.ID)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    admin.ID,
			"name":  admin.Name,
			"email": admin.Email,
		})
	}
}

// POST /api/admin/auth/login
func AdminLoginHandler(accounts AccountStore, sessions *session.Store) fiber.Handler {
	return loginHandler(sessions, KindAdmin, func(ctx context.Context, email string) (account, error) {
		a, err := accounts.AdminByEmail(ctx, email)
		if err != nil {
			return account{}, err
		}
		return account{id: a.ID, name: a.Name, passwordHash: a.PasswordHash}, nil
	})
}

// POST /api/supplier/auth/login
func SupplierLoginHandler(accounts AccountStore, sessions *session.Store) fiber.Handler {
	return loginHandler(sessions, KindSupplier, func(ctx context.Context, email string) (account, error) {
		s, err := accounts.SupplierByEmail(ctx, email)
		if err != nil {
			return account{}, err
		}
		return account{id: s.ID, name: s.Name, passwordHash: s.PasswordHash}, nil
	})
}

// POST /api/auth/login
func CustomerLoginHandler(accounts AccountStore, sessions *session.Store) fiber.Handler {
	return loginHandler(sessions, KindCustomer, func(ctx context.Context, email string) (account, error) {
		cu, err := accounts.CustomerByEmail(ctx, email)
		if err != nil {
			return account{}, err
		}
		return account{id: cu.ID, name: cu.Name, passwordHash: cu.PasswordHash}, nil
	})
}

func loginHandler(sessions *session.Store, kind Kind, lookup accountLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		email := normalizeEmail(body.Email)
		if email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Email and password are required")
		}

		acc, err := lookup(c.UserContext(), email)
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}
		if err != nil {
			return err
		}
		if acc.passwordHash == "" ||
			bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(body.Password)) != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		sess, err := sessions.Get(c)
		if err != nil {
			return errors.Wrap(err, "load session")
		}
		// fresh id on privilege change
		if err := sess.Regenerate(); err != nil {
			return errors.Wrap(err, "regenerate session")
		}
		for _, sk := range sessionKeys {
			sess.Delete(sk.key)
		}
		sess.Set(sessionKeyFor(kind), acc.id)
		if err := sess.Save(); err != nil {
			return errors.Wrap(err, "save session")
		}

		zap.S().Infow("login", "kind", kind, "id", acc.id)

		return c.JSON(fiber.Map{
			"ok":   true,
			"role": kind,
			"id":   acc.id,
			"name": acc.name,
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(sessions *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Get(c)
		if err != nil {
			return errors.Wrap(err, "load session")
		}
		if err := sess.Destroy(); err != nil {
			return errors.Wrap(err, "destroy session")
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		if id.IsAnonymous() {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
		}
		return c.JSON(id)
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
