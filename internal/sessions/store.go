// Package sessions builds the server-side session store that carries the
// customerId / supplierId / adminId identity keys.
package sessions

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"rrnagar-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const gcInterval = 10 * time.Minute

// New returns the session store configured by cfg together with its backing
// storage. The storage is nil for the in-memory backend; otherwise the caller
// closes it on shutdown.
func New(cfg *config.Config, db *gorm.DB) (*session.Store, fiber.Storage, error) {
	var storage fiber.Storage
	switch cfg.SessionStore {
	case config.SessionStoreDatabase:
		storage = NewDBStorage(db, gcInterval)
	case config.SessionStoreBolt:
		bolt, err := OpenBoltStorage(cfg.SessionBoltPath)
		if err != nil {
			return nil, nil, err
		}
		storage = bolt
	}

	sameSite := fiber.CookieSameSiteLaxMode
	if cfg.IsProduction() {
		sameSite = fiber.CookieSameSiteNoneMode
	}

	store := session.New(session.Config{
		Expiration:     cfg.SessionTTL,
		Storage:        storage,
		KeyLookup:      "cookie:" + cfg.SessionCookie,
		CookiePath:     "/",
		CookieSecure:   cfg.IsProduction(),
		CookieHTTPOnly: true,
		CookieSameSite: sameSite,
		KeyGenerator:   uuid.NewString,
	})
	return store, storage, nil
}

// CookieKey derives the encryptcookie key (base64 of 32 bytes) from the
// configured session secret.
func CookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}
