package apierror

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler})
	app.Get("/bad", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "Valid category name required") })
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return errors.Wrap(fiber.NewError(fiber.StatusForbidden, "Not authorized"), "delete product")
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("connection refused") })

	testCases := []struct {
		path   string
		status int
		body   string
	}{
		{"/bad", fiber.StatusBadRequest, `{"error":"Valid category name required"}`},
		{"/wrapped", fiber.StatusForbidden, `{"error":"Not authorized"}`},
		{"/boom", fiber.StatusInternalServerError, `{"error":"Internal server error"}`},
		{"/missing", fiber.StatusNotFound, `{"error":"Cannot GET /missing"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.JSONEq(t, tc.body, string(body))
		})
	}
}
