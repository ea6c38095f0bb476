package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const (
	defaultSessionSecret = "rrnagar-secret-key"
	defaultCORSOrigins   = "http://localhost:5173,http://localhost:5174,http://127.0.0.1:5173,http://127.0.0.1:5174," +
		"http://localhost:4173,http://127.0.0.1:4173,https://tulasiprasadk.github.io," +
		"https://rrnagar-coming-soon.vercel.app,https://rrnagar.com,https://www.rrnagar.com"
)

// Session storage backends.
const (
	SessionStoreDatabase = "database"
	SessionStoreBolt     = "bolt"
	SessionStoreMemory   = "memory"
)

type Config struct {
	Env         string
	HTTPPort    string
	DatabaseURL string // empty means the local SQLite file
	SQLitePath  string

	SessionSecret   string
	SessionCookie   string
	SessionTTL      time.Duration
	SessionStore    string
	SessionBoltPath string

	CORSOrigins string
	UploadDir   string

	TranslateURL     string // empty disables translation
	TranslateAPIKey  string
	TranslateTarget  string
	TranslateTimeout time.Duration // 0 means no client-side timeout

	EnrichWorkers int

	LogMode string
	LogFile string
}

// LoadDotEnv reads .env from the working directory when present.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", getEnv("NODE_ENV", "development"))

	cfg := &Config{
		Env:         env,
		HTTPPort:    getEnv("PORT", "4000"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "rrnagar.sqlite"),

		SessionSecret:   getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionCookie:   getEnv("SESSION_COOKIE", "rrnagar.sid"),
		SessionStore:    strings.ToLower(getEnv("SESSION_STORE", SessionStoreDatabase)),
		SessionBoltPath: getEnv("SESSION_BOLT_PATH", "sessions.db"),

		CORSOrigins: getEnv("CORS_ORIGINS", defaultCORSOrigins),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),

		TranslateURL:    getEnv("TRANSLATE_URL", ""),
		TranslateAPIKey: getEnv("TRANSLATE_API_KEY", ""),
		TranslateTarget: getEnv("TRANSLATE_TARGET", "kn"),

		LogMode: getEnv("LOG_MODE", "development"),
		LogFile: getEnv("LOG_FILE", ""),
	}

	var err error
	if cfg.SessionTTL, err = cast.ToDurationE(getEnv("SESSION_TTL", "24h")); err != nil {
		return nil, errors.Wrap(err, "SESSION_TTL")
	}
	if cfg.TranslateTimeout, err = cast.ToDurationE(getEnv("TRANSLATE_TIMEOUT", "0s")); err != nil {
		return nil, errors.Wrap(err, "TRANSLATE_TIMEOUT")
	}
	if cfg.EnrichWorkers, err = cast.ToIntE(getEnv("ENRICH_WORKERS", "4")); err != nil {
		return nil, errors.Wrap(err, "ENRICH_WORKERS")
	}
	if cfg.EnrichWorkers < 1 {
		cfg.EnrichWorkers = 1
	}

	switch cfg.SessionStore {
	case SessionStoreDatabase, SessionStoreBolt, SessionStoreMemory:
	default:
		return nil, errors.Errorf("SESSION_STORE must be one of database, bolt, memory (got %q)", cfg.SessionStore)
	}

	if cfg.IsProduction() && cfg.SessionSecret == defaultSessionSecret {
		return nil, errors.New("SESSION_SECRET must be set in production")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowedOrigins returns the CORS allow-list with blanks removed.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Warnings lists insecure or development-only defaults still in effect.
func (c *Config) Warnings() []string {
	var w []string
	if c.SessionSecret == defaultSessionSecret {
		w = append(w, "SESSION_SECRET uses the built-in default; set your own before deploying")
	}
	if c.DatabaseURL == "" {
		w = append(w, "DATABASE_URL is empty, using SQLite file "+c.SQLitePath)
	}
	if c.TranslateURL == "" {
		w = append(w, "TRANSLATE_URL is empty, Kannada translation disabled")
	}
	return w
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
