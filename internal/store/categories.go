package store

import (
	"context"

	"rrnagar-backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Categories struct {
	db *gorm.DB
}

func NewCategories(db *gorm.DB) *Categories {
	return &Categories{db: db}
}

func (s *Categories) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

// Create inserts the category as given. Names are not checked for uniqueness.
func (s *Categories) Create(ctx context.Context, c *models.Category) error {
	return s.db.WithContext(ctx).Create(c).Error
}
