package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rrnagar-backend/internal/catalog"
	"rrnagar-backend/internal/config"
	"rrnagar-backend/internal/database"
	"rrnagar-backend/internal/models"
	"rrnagar-backend/internal/sessions"
	"rrnagar-backend/internal/translate"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testServer struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

type nopEnqueuer struct{}

func (nopEnqueuer) Enqueue(catalog.ProductText) {}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		SQLitePath:      filepath.Join(dir, "server.sqlite"),
		SessionSecret:   "test-secret",
		SessionCookie:   "rrnagar.sid",
		SessionTTL:      time.Hour,
		SessionStore:    config.SessionStoreDatabase,
		CORSOrigins:     "http://localhost:5173, https://rrnagar.com",
		UploadDir:       filepath.Join(dir, "uploads"),
		TranslateTarget: "kn",
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store, storage, err := sessions.New(cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	app := New(Deps{
		Config:     cfg,
		DB:         db,
		Sessions:   store,
		Translator: translate.Disabled{},
		Enricher:   nopEnqueuer{},
	})
	return &testServer{t: t, app: app, db: db}
}

func (s *testServer) supplier(name, email, password string) models.Supplier {
	s.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(s.t, err)
	sup := models.Supplier{Name: name, Email: email, PasswordHash: string(hash)}
	require.NoError(s.t, s.db.Create(&sup).Error)
	return sup
}

func (s *testServer) do(method, path, body string, cookie *http.Cookie) (*http.Response, string) {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, string(raw)
}

func (s *testServer) login(path, email, password string) *http.Cookie {
	s.t.Helper()
	resp, body := s.do(fiber.MethodPost, path, `{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(s.t, fiber.StatusOK, resp.StatusCode, body)
	for _, c := range resp.Cookies() {
		if c.Name == "rrnagar.sid" {
			return c
		}
	}
	s.t.Fatal("login did not set a session cookie")
	return nil
}

func TestRootAndCORS(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(fiber.MethodGet, "/", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "RR Nagar Backend Running", body)

	req := httptest.NewRequest(fiber.MethodOptions, "/api/products", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://rrnagar.com")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodPost)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "https://rrnagar.com", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
}

func TestSessionCookieIsEncrypted(t *testing.T) {
	s := newTestServer(t)
	s.supplier("Ravi Stores", "ravi@rrnagar.com", "ravi-pass")

	cookie := s.login("/api/supplier/auth/login", "ravi@rrnagar.com", "ravi-pass")
	assert.True(t, cookie.HttpOnly)

	var count int64
	require.NoError(t, s.db.Model(&models.SessionRecord{}).Where("id = ?", cookie.Value).Count(&count).Error)
	assert.Zero(t, count, "the cookie carries an encrypted id, not the raw key")

	require.NoError(t, s.db.Model(&models.SessionRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "session persisted in the database")

	resp, body := s.do(fiber.MethodGet, "/api/auth/me", "", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"role":"supplier","id":1}`, body)

	tampered := *cookie
	tampered.Value = "not-a-valid-ciphertext"
	resp, _ = s.do(fiber.MethodGet, "/api/auth/me", "", &tampered)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMarketplaceFlow(t *testing.T) {
	s := newTestServer(t)
	s.supplier("Ravi Stores", "ravi@rrnagar.com", "ravi-pass")
	s.supplier("Meena Dairy", "meena@rrnagar.com", "meena-pass")

	ravi := s.login("/api/supplier/auth/login", "ravi@rrnagar.com", "ravi-pass")
	meena := s.login("/api/supplier/auth/login", "meena@rrnagar.com", "meena-pass")

	// categories are open to anyone
	resp, body := s.do(fiber.MethodPost, "/api/categories", `{"name":"Dairy"}`, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	resp, body = s.do(fiber.MethodGet, "/api/categories", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"nameKannada":"Dairy"`, "disabled translation falls back to the name")

	resp, body = s.do(fiber.MethodPost, "/api/products", `{"title":"Nandini Milk","price":"28","categoryId":1}`, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, body)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, body)

	resp, body = s.do(fiber.MethodPost, "/api/products", `{"title":"Nandini Milk","price":"28","categoryId":1}`, ravi)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	resp, body = s.do(fiber.MethodGet, "/api/products?categoryId=1", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"title":"Nandini Milk"`)
	assert.Contains(t, body, `"category":{"id":1,"name":"Dairy"}`)

	resp, body = s.do(fiber.MethodGet, "/api/products?supplier=true", "", meena)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", body)

	resp, body = s.do(fiber.MethodDelete, "/api/products/1", "", meena)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Not authorized"}`, body)

	resp, _ = s.do(fiber.MethodGet, "/api/products/1", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "record survives the rejected delete")

	resp, body = s.do(fiber.MethodPost, "/api/admin/auth/register", `{"name":"Root","email":"root@rrnagar.com","password":"root-pass"}`, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	admin := s.login("/api/admin/auth/login", "root@rrnagar.com", "root-pass")

	resp, body = s.do(fiber.MethodDelete, "/api/products/1", "", admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"ok":true}`, body)

	resp, body = s.do(fiber.MethodGet, "/api/products/1", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Product not found"}`, body)

	// audit trail is admin only
	resp, _ = s.do(fiber.MethodGet, "/api/admin/audit-logs", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp, _ = s.do(fiber.MethodGet, "/api/admin/audit-logs", "", ravi)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, body = s.do(fiber.MethodGet, "/api/admin/audit-logs?entity_type=product", "", admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"action":"delete"`)
	assert.Contains(t, body, `"action":"create"`)
}

func TestUnknownRouteUsesErrorBody(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(fiber.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Cannot GET /api/orders"}`, body)
}
