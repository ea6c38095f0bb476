package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"rrnagar-backend/internal/config"
	"rrnagar-backend/internal/database"
	"rrnagar-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestWriter(t *testing.T) (*Writer, *gorm.DB) {
	t.Helper()
	db, err := database.Open(&config.Config{SQLitePath: filepath.Join(t.TempDir(), "audit.sqlite")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewWriter(db), db
}

func TestWriteLogSnapshots(t *testing.T) {
	w, db := newTestWriter(t)

	w.WriteLog(context.Background(), LogOptions{
		ActorKind:   "supplier",
		ActorID:     4,
		EntityType:  "product",
		EntityID:    9,
		Action:      models.AuditActionCreate,
		Description: "product created",
		After:       map[string]any{"title": "Rice"},
	})

	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "supplier", entry.ActorKind)
	assert.EqualValues(t, 4, entry.ActorID)
	assert.Equal(t, "null", entry.BeforeData)
	assert.JSONEq(t, `{"title":"Rice"}`, entry.AfterData)
}

func TestWriteLogSwallowsFailures(t *testing.T) {
	w, db := newTestWriter(t)
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	assert.NotPanics(t, func() {
		w.WriteLog(context.Background(), LogOptions{EntityType: "category", Action: models.AuditActionCreate})
	})
}

func TestSnapshot(t *testing.T) {
	assert.Equal(t, "null", snapshot(nil))
	assert.Equal(t, "null", snapshot(func() {}))
	assert.Equal(t, `{"id":1}`, snapshot(struct {
		ID int `json:"id"`
	}{1}))
}

func seedLogs(t *testing.T, w *Writer) {
	t.Helper()
	ctx := context.Background()
	for i := uint(1); i <= 3; i++ {
		w.WriteLog(ctx, LogOptions{EntityType: "product", EntityID: i, Action: models.AuditActionCreate})
	}
	w.WriteLog(ctx, LogOptions{EntityType: "category", EntityID: 1, Action: models.AuditActionCreate})
}

func TestList(t *testing.T) {
	w, _ := newTestWriter(t)
	seedLogs(t, w)
	ctx := context.Background()

	all, err := w.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "category", all[0].EntityType, "newest first")

	products, err := w.List(ctx, "product", 2)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.EqualValues(t, 3, products[0].EntityID)
	assert.EqualValues(t, 2, products[1].EntityID)

	clamped, err := w.List(ctx, "", MaxListLimit+1000)
	require.NoError(t, err)
	assert.Len(t, clamped, 4)
}

func TestListAuditLogsHandler(t *testing.T) {
	w, _ := newTestWriter(t)
	seedLogs(t, w)

	app := fiber.New()
	app.Get("/api/admin/audit-logs", ListAuditLogsHandler(w))

	testCases := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"default", "", fiber.StatusOK, 4},
		{"filtered", "?entity_type=category", fiber.StatusOK, 1},
		{"limited", "?limit=2", fiber.StatusOK, 2},
		{"bad limit", "?limit=abc", fiber.StatusBadRequest, 0},
		{"zero limit", "?limit=0", fiber.StatusBadRequest, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/admin/audit-logs"+tc.query, nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.status != fiber.StatusOK {
				return
			}
			body, _ := io.ReadAll(resp.Body)
			var out []AuditLogResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Len(t, out, tc.count)
		})
	}
}
