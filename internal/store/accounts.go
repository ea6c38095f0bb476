package store

import (
	"context"

	"rrnagar-backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Accounts looks up the three identity kinds for the login flows.
type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

func (s *Accounts) AdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Accounts) SupplierByEmail(ctx context.Context, email string) (*models.Supplier, error) {
	var sup models.Supplier
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&sup).Error; err != nil {
		return nil, notFound(err)
	}
	return &sup, nil
}

func (s *Accounts) CustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Accounts) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count admins")
	}
	return count, nil
}

func (s *Accounts) CreateAdmin(ctx context.Context, a *models.Admin) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(a).Error, "create admin")
}
