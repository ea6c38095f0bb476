package audit

import (
	"context"

	"rrnagar-backend/internal/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

type LogOptions struct {
	ActorKind   string
	ActorID     uint
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Writer struct {
	db *gorm.DB
}

func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db}
}

// WriteLog appends one audit row. Failures are logged and never returned, so
// auditing cannot fail the request that triggered it.
func (w *Writer) WriteLog(ctx context.Context, opts LogOptions) {
	entry := models.AuditLog{
		ActorKind:   opts.ActorKind,
		ActorID:     opts.ActorID,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := w.db.WithContext(ctx).Create(&entry).Error; err != nil {
		zap.L().Warn("audit log not written",
			zap.String("entity_type", opts.EntityType),
			zap.Uint("entity_id", opts.EntityID),
			zap.Error(err),
		)
	}
}

// List returns the newest entries first, optionally restricted to one entity
// type. limit is clamped to (0, MaxListLimit].
func (w *Writer) List(ctx context.Context, entityType string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	q := w.db.WithContext(ctx).Model(&models.AuditLog{})
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, errors.Wrap(err, "list audit logs")
}

// snapshot encodes v as JSON, "null" when v is nil or not encodable.
func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := jsoniter.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
