// Package server assembles the Fiber application: middleware, session
// identity and every route of the marketplace API.
package server

import (
	"strings"
	"time"

	"rrnagar-backend/internal/apierror"
	"rrnagar-backend/internal/audit"
	"rrnagar-backend/internal/auth"
	"rrnagar-backend/internal/catalog"
	"rrnagar-backend/internal/config"
	"rrnagar-backend/internal/sessions"
	"rrnagar-backend/internal/store"
	"rrnagar-backend/internal/translate"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Sessions   *session.Store
	Translator translate.Translator
	Enricher   catalog.Enqueuer
}

func New(d Deps) *fiber.App {
	cfg := d.Config

	app := fiber.New(fiber.Config{
		AppName:      "rrnagar-backend",
		ErrorHandler: apierror.Handler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(corsMiddleware(cfg))
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: sessions.CookieKey(cfg.SessionSecret),
	}))
	app.Use(requestLogger())
	app.Use(auth.SessionMiddleware(d.Sessions))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("RR Nagar Backend Running")
	})
	app.Static("/uploads", cfg.UploadDir)

	accounts := store.NewAccounts(d.DB)
	auditLog := audit.NewWriter(d.DB)
	products := catalog.NewProductHandler(store.NewProducts(d.DB), d.Enricher, auditLog, cfg.UploadDir)
	categories := catalog.NewCategoryHandler(store.NewCategories(d.DB), d.Translator, cfg.TranslateTarget, auditLog)

	api := app.Group("/api")

	// Auth
	api.Post("/admin/auth/register", auth.RegisterAdminHandler(accounts))
	api.Post("/admin/auth/login", auth.AdminLoginHandler(accounts, d.Sessions))
	api.Post("/supplier/auth/login", auth.SupplierLoginHandler(accounts, d.Sessions))
	api.Post("/auth/login", auth.CustomerLoginHandler(accounts, d.Sessions))
	api.Post("/auth/logout", auth.LogoutHandler(d.Sessions))
	api.Get("/auth/me", auth.MeHandler())

	// Products; static paths before /:id
	api.Get("/products", products.ListHandler())
	api.Get("/products/templates/all", products.TemplatesHandler())
	api.Get("/products/:id", products.GetHandler())
	api.Post("/products", products.CreateHandler())
	api.Delete("/products/:id", products.DeleteHandler())

	// Categories
	api.Get("/categories", categories.ListHandler())
	api.Post("/categories", categories.CreateHandler())

	// Admin
	api.Get("/admin/audit-logs", auth.RequireKind(auth.KindAdmin), audit.ListAuditLogsHandler(auditLog))

	return app
}

func corsMiddleware(cfg *config.Config) fiber.Handler {
	origins := cfg.AllowedOrigins()
	c := cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}
	// credentials cannot be combined with a wildcard origin
	if len(origins) > 0 {
		c.AllowOrigins = strings.Join(origins, ",")
		c.AllowCredentials = !strings.Contains(c.AllowOrigins, "*")
	}
	return cors.New(c)
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		ident := auth.IdentityFrom(c)
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("identity", string(ident.Kind)),
			zap.Uint("identity_id", ident.ID),
		}
		if sid, ok := c.Locals(auth.CtxSessionIDKey).(string); ok {
			fields = append(fields, zap.String("session_id", sid))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		zap.L().Debug("request", fields...)
		return err
	}
}
