package audit

import (
	"context"

	"rrnagar-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

type Lister interface {
	List(ctx context.Context, entityType string, limit int) ([]models.AuditLog, error)
}

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	ActorKind   string             `json:"actor_kind"`
	ActorID     uint               `json:"actor_id"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /api/admin/audit-logs?entity_type=product&limit=50
func ListAuditLogsHandler(logs Lister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := DefaultListLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := cast.ToIntE(raw)
			if err != nil || n < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid limit")
			}
			limit = n
		}

		entries, err := logs.List(c.UserContext(), c.Query("entity_type"), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Unable to load audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, AuditLogResponse{
				ID:          e.ID,
				CreatedAt:   e.CreatedAt.Format("2006-01-02 15:04:05"),
				ActorKind:   e.ActorKind,
				ActorID:     e.ActorID,
				EntityType:  e.EntityType,
				EntityID:    e.EntityID,
				Action:      e.Action,
				Description: e.Description,
				BeforeData:  e.BeforeData,
				AfterData:   e.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
