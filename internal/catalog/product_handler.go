package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"rrnagar-backend/internal/audit"
	"rrnagar-backend/internal/auth"
	"rrnagar-backend/internal/models"
	"rrnagar-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type ProductStore interface {
	List(ctx context.Context, f store.ProductFilter) ([]models.Product, error)
	Templates(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
	IsCustodian(ctx context.Context, productID, supplierID uint) (bool, error)
}

type Enqueuer interface {
	Enqueue(p ProductText)
}

type AuditLogger interface {
	WriteLog(ctx context.Context, opts audit.LogOptions)
}

type CategoryRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type SupplierRef struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type ProductResponse struct {
	ID                 uint            `json:"id"`
	Title              string          `json:"title"`
	TitleKannada       string          `json:"titleKannada"`
	Description        string          `json:"description"`
	DescriptionKannada string          `json:"descriptionKannada"`
	Price              decimal.Decimal `json:"price"`
	CategoryID         *uint           `json:"categoryId"`
	Variety            string          `json:"variety"`
	SubVariety         string          `json:"subVariety"`
	Unit               string          `json:"unit"`
	Image              string          `json:"image"`
	SupplierID         *uint           `json:"supplierId"`
	IsTemplate         bool            `json:"isTemplate"`
	Category           *CategoryRef    `json:"category"`
	Suppliers          []SupplierRef   `json:"suppliers"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// createProductInput holds the raw create fields. JSON bodies may carry
// numbers where forms carry strings, so everything is normalised to text.
type createProductInput struct {
	Title       string
	Name        string
	Price       string
	Description string
	CategoryID  string
	Variety     string
	SubVariety  string
	Unit        string
	TemplateID  string
}

type ProductHandler struct {
	products  ProductStore
	enricher  Enqueuer
	audit     AuditLogger
	uploadDir string
}

func NewProductHandler(products ProductStore, enricher Enqueuer, audit AuditLogger, uploadDir string) *ProductHandler {
	return &ProductHandler{
		products:  products,
		enricher:  enricher,
		audit:     audit,
		uploadDir: uploadDir,
	}
}

// GET /api/products?search=&q=&categoryId=&variety=&supplier=true
func (h *ProductHandler) ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := store.ProductFilter{
			Search:  c.Query("search"),
			Variety: c.Query("variety"),
		}
		if f.Search == "" {
			f.Search = c.Query("q")
		}

		if raw := c.Query("categoryId"); raw != "" {
			// 0 is a valid filter that matches nothing
			n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid categoryId")
			}
			id := uint(n)
			f.CategoryID = &id
		}

		// only a supplier session can narrow to "my products"
		if ident := auth.IdentityFrom(c); c.Query("supplier") == "true" && ident.IsSupplier() {
			f.SupplierID = &ident.ID
		}

		products, err := h.products.List(c.UserContext(), f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load products")
		}

		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, toProductResponse(&products[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/products/templates/all
func (h *ProductHandler) TemplatesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		templates, err := h.products.Templates(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		res := make([]ProductResponse, 0, len(templates))
		for i := range templates {
			res = append(res, toProductResponse(&templates[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func (h *ProductHandler) GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		p, err := h.products.Get(c.UserContext(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(toProductResponse(p))
	}
}

// POST /api/products (supplier or admin; multipart with optional "image", or JSON)
func (h *ProductHandler) CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident := auth.IdentityFrom(c)
		if !auth.CanCreateProduct(ident) {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
		}

		in, err := readCreateProductInput(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		price, err := parsePrice(in.Price)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid price")
		}
		categoryID, err := parseOptionalID(in.CategoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid categoryId")
		}
		templateID, err := parseOptionalID(in.TemplateID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid templateId")
		}

		p := models.Product{
			Title:       in.Title,
			Description: in.Description,
			Price:       price,
			CategoryID:  categoryID,
			Variety:     in.Variety,
			SubVariety:  in.SubVariety,
			Unit:        in.Unit,
			IsTemplate:  auth.CreatesTemplate(ident),
		}
		if p.Title == "" {
			p.Title = in.Name
		}
		if p.Unit == "" {
			p.Unit = models.DefaultUnit
		}
		if ident.IsSupplier() {
			supplierID := ident.ID
			p.SupplierID = &supplierID
		}

		if fh, err := c.FormFile("image"); err == nil {
			path, err := saveProductImage(c, fh, h.uploadDir)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			p.Image = path
		}

		if templateID != nil && auth.CanCloneTemplate(ident) {
			tpl, err := h.products.Get(c.UserContext(), *templateID)
			switch {
			case err == nil && tpl.IsTemplate:
				applyTemplate(&p, tpl)
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}

		if p.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Title is required")
		}

		if err := h.products.Create(c.UserContext(), &p); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		h.enricher.Enqueue(ProductText{ID: p.ID, Title: p.Title, Description: p.Description})

		res := toProductResponse(&p)
		h.audit.WriteLog(c.UserContext(), audit.LogOptions{
			ActorKind:   string(ident.Kind),
			ActorID:     ident.ID,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: "product created: " + p.Title,
			After:       res,
		})

		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// DELETE /api/products/:id (owner or custodian supplier, or admin)
func (h *ProductHandler) DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "Not found")
		}

		p, err := h.products.Get(c.UserContext(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		ident := auth.IdentityFrom(c)
		custodian := false
		if auth.NeedsCustodyCheck(ident, p) {
			if custodian, err = h.products.IsCustodian(c.UserContext(), p.ID, ident.ID); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
		if !auth.CanDeleteProduct(ident, p, custodian) {
			return fiber.NewError(fiber.StatusForbidden, "Not authorized")
		}

		if err := h.products.Delete(c.UserContext(), p.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		h.audit.WriteLog(c.UserContext(), audit.LogOptions{
			ActorKind:   string(ident.Kind),
			ActorID:     ident.ID,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: "product deleted: " + p.Title,
			Before:      toProductResponse(p),
		})

		return c.JSON(fiber.Map{"ok": true})
	}
}

func readCreateProductInput(c *fiber.Ctx) (createProductInput, error) {
	get := c.FormValue
	if c.Is("json") {
		body := map[string]any{}
		if err := c.BodyParser(&body); err != nil {
			return createProductInput{}, err
		}
		get = func(key string, _ ...string) string {
			return cast.ToString(body[key])
		}
	}

	return createProductInput{
		Title:       get("title"),
		Name:        get("name"),
		Price:       get("price"),
		Description: get("description"),
		CategoryID:  get("categoryId"),
		Variety:     get("variety"),
		SubVariety:  get("subVariety"),
		Unit:        get("unit"),
		TemplateID:  get("templateId"),
	}, nil
}

// applyTemplate copies the descriptive fields of tpl onto p. Price, owner
// and the template flag stay as they are.
func applyTemplate(p *models.Product, tpl *models.Product) {
	p.Title = tpl.Title
	p.Description = tpl.Description
	p.Variety = tpl.Variety
	p.SubVariety = tpl.SubVariety
	p.Unit = tpl.Unit
	p.CategoryID = tpl.CategoryID
	p.Image = tpl.Image
}

// maxPrice is the exclusive upper bound of the decimal(12,2) price column.
var maxPrice = decimal.New(1, 10)

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	switch {
	case price.IsNegative():
		return decimal.Zero, errors.New("negative price")
	case !price.Equal(price.Round(2)):
		return decimal.Zero, errors.New("price has more than two decimal places")
	case price.GreaterThanOrEqual(maxPrice):
		return decimal.Zero, errors.New("price out of range")
	}
	return price, nil
}

// parseID accepts positive base-10 integers only.
func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func parseOptionalID(raw string) (*uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, ok := parseID(raw)
	if !ok {
		return nil, errors.Errorf("invalid id %q", raw)
	}
	return &id, nil
}

func toProductResponse(p *models.Product) ProductResponse {
	res := ProductResponse{
		ID:                 p.ID,
		Title:              p.Title,
		TitleKannada:       p.TitleKannada,
		Description:        p.Description,
		DescriptionKannada: p.DescriptionKannada,
		Price:              p.Price,
		CategoryID:         p.CategoryID,
		Variety:            p.Variety,
		SubVariety:         p.SubVariety,
		Unit:               p.Unit,
		Image:              p.Image,
		SupplierID:         p.SupplierID,
		IsTemplate:         p.IsTemplate,
		Suppliers:          make([]SupplierRef, 0, len(p.Suppliers)),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.Category != nil {
		res.Category = &CategoryRef{ID: p.Category.ID, Name: p.Category.Name}
	}
	for _, s := range p.Suppliers {
		res.Suppliers = append(res.Suppliers, SupplierRef{ID: s.ID, Name: s.Name, Phone: s.Phone})
	}
	return res
}
