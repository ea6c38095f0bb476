package catalog

import (
	"context"
	"time"

	"rrnagar-backend/internal/audit"
	"rrnagar-backend/internal/auth"
	"rrnagar-backend/internal/models"
	"rrnagar-backend/internal/translate"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
}

type CategoryResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	NameKannada string    `json:"nameKannada,omitempty"`
	Icon        string    `json:"icon"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// name is left untyped so non-string JSON values can be rejected.
type CreateCategoryRequest struct {
	Name any `json:"name"`
	Icon any `json:"icon"`
}

type CategoryHandler struct {
	categories CategoryStore
	translator translate.Translator
	target     string
	audit      AuditLogger
}

func NewCategoryHandler(categories CategoryStore, translator translate.Translator, target string, audit AuditLogger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		translator: translator,
		target:     target,
		audit:      audit,
	}
}

// GET /api/categories
func (h *CategoryHandler) ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		categories, err := h.categories.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Unable to load categories")
		}

		res := make([]CategoryResponse, 0, len(categories))
		if len(categories) == 0 {
			return c.JSON(res)
		}

		names := make([]string, len(categories))
		for i, cat := range categories {
			names[i] = cat.Name
		}
		translated := h.translateNames(c.UserContext(), names)

		for i, cat := range categories {
			res = append(res, CategoryResponse{
				ID:          cat.ID,
				Name:        cat.Name,
				NameKannada: translated[i],
				Icon:        cat.Icon,
				CreatedAt:   cat.CreatedAt,
				UpdatedAt:   cat.UpdatedAt,
			})
		}
		return c.JSON(res)
	}
}

// translateNames never fails: on error every name stands in for its own
// translation, and an empty translation falls back to the name.
func (h *CategoryHandler) translateNames(ctx context.Context, names []string) []string {
	out, err := h.translator.TranslateBatch(ctx, names, h.target)
	if err != nil || len(out) != len(names) {
		zap.L().Debug("category translation skipped", zap.Error(err), zap.Int("results", len(out)))
		return names
	}
	for i := range out {
		if out[i] == "" {
			out[i] = names[i]
		}
	}
	return out
}

// POST /api/categories
func (h *CategoryHandler) CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var name, icon any
		if c.Is("json") {
			var body CreateCategoryRequest
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Valid category name required")
			}
			name, icon = body.Name, body.Icon
		} else {
			name, icon = c.FormValue("name"), c.FormValue("icon")
		}

		// stored exactly as sent
		s, ok := name.(string)
		if !ok || s == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Valid category name required")
		}

		cat := models.Category{Name: s, Icon: cast.ToString(icon)}
		if err := h.categories.Create(c.UserContext(), &cat); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res := CategoryResponse{
			ID:        cat.ID,
			Name:      cat.Name,
			Icon:      cat.Icon,
			CreatedAt: cat.CreatedAt,
			UpdatedAt: cat.UpdatedAt,
		}

		ident := auth.IdentityFrom(c)
		h.audit.WriteLog(c.UserContext(), audit.LogOptions{
			ActorKind:   string(ident.Kind),
			ActorID:     ident.ID,
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionCreate,
			Description: "category created: " + cat.Name,
			After:       res,
		})

		return c.Status(fiber.StatusCreated).JSON(res)
	}
}
