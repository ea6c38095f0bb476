package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"rrnagar-backend/internal/apierror"
	"rrnagar-backend/internal/audit"
	"rrnagar-backend/internal/auth"
	"rrnagar-backend/internal/models"
	"rrnagar-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	mu         sync.Mutex
	byID       map[uint]*models.Product
	custody    map[[2]uint]bool
	nextID     uint
	lastFilter store.ProductFilter
	err        error
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{byID: map[uint]*models.Product{}, custody: map[[2]uint]bool{}, nextID: 100}
	for _, p := range products {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProducts) List(_ context.Context, filter store.ProductFilter) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Product{}
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProducts) Templates(context.Context) ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Product{}
	for _, p := range f.byID {
		if p.IsTemplate {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Get(_ context.Context, id uint) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProducts) IsCustodian(_ context.Context, productID, supplierID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.custody[[2]uint{productID, supplierID}], nil
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []ProductText
}

func (f *fakeEnqueuer) Enqueue(p ProductText) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, p)
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.LogOptions
}

func (f *fakeAudit) WriteLog(_ context.Context, opts audit.LogOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, opts)
}

type fakeCategories struct {
	items  []models.Category
	err    error
	create error
}

func (f *fakeCategories) List(context.Context) ([]models.Category, error) {
	return f.items, f.err
}

func (f *fakeCategories) Create(_ context.Context, c *models.Category) error {
	if f.create != nil {
		return f.create
	}
	c.ID = uint(len(f.items) + 1)
	f.items = append(f.items, *c)
	return nil
}

type fakeTranslator struct {
	mu      sync.Mutex
	calls   int
	batch   func(texts []string) ([]string, error)
	single  func(text string) (string, error)
	release chan struct{}
}

func (f *fakeTranslator) Translate(ctx context.Context, text, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	if f.single != nil {
		return f.single(text)
	}
	return "kn:" + text, nil
}

func (f *fakeTranslator) TranslateBatch(_ context.Context, texts []string, _ string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.batch != nil {
		return f.batch(texts)
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "kn:" + t
	}
	return out, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWriter struct {
	mu      sync.Mutex
	updates map[uint][2]string
	err     error
}

func (f *fakeWriter) UpdateTranslations(_ context.Context, id uint, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = map[uint][2]string{}
	}
	f.updates[id] = [2]string{title, description}
	return nil
}

func (f *fakeWriter) get(id uint) ([2]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.updates[id]
	return v, ok
}

var errStore = errors.New("database is locked")

// withIdentity reads "kind:id" from the X-Identity header, standing in for
// the session middleware.
func withIdentity(c *fiber.Ctx) error {
	id := auth.Anonymous()
	if raw := c.Get("X-Identity"); raw != "" {
		parts := strings.SplitN(raw, ":", 2)
		id = auth.Identity{Kind: auth.Kind(parts[0]), ID: cast.ToUint(parts[1])}
	}
	c.SetUserContext(auth.NewContext(c.UserContext(), id))
	return c.Next()
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apierror.Handler})
	app.Use(withIdentity)
	return app
}

func readJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out), string(body))
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	readJSON(t, resp, &body)
	return body.Error
}
