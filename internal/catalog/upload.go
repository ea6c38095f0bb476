package catalog

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// imageFileName builds "<unixMillis>-<name>" with whitespace runs in the
// client's file name replaced by "_".
func imageFileName(now time.Time, original string) string {
	name := whitespaceRun.ReplaceAllString(filepath.Base(original), "_")
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name)
}

// saveProductImage stores fh under <uploadDir>/products and returns the
// slash-separated path recorded on the product.
func saveProductImage(c *fiber.Ctx, fh *multipart.FileHeader, uploadDir string) (string, error) {
	dir := filepath.Join(uploadDir, "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload directory")
	}

	path := filepath.Join(dir, imageFileName(time.Now(), fh.Filename))
	if err := c.SaveFile(fh, path); err != nil {
		return "", errors.Wrap(err, "save product image")
	}
	return filepath.ToSlash(path), nil
}
