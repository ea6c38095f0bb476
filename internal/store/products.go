package store

import (
	"context"
	"fmt"
	"strings"

	"rrnagar-backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var searchColumns = []string{"title", "variety", "sub_variety", "description"}

type ProductFilter struct {
	Search     string // substring over title, variety, sub-variety, description
	CategoryID *uint
	Variety    string // exact
	SupplierID *uint  // primary owner
}

type Products struct {
	db *gorm.DB
}

func NewProducts(db *gorm.DB) *Products {
	return &Products{db: db}
}

func (s *Products) withAssociations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Category").
		Preload("Suppliers")
}

// List returns every product matching f, newest first. There is no paging.
func (s *Products) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := s.withAssociations(ctx).Model(&models.Product{})

	if f.Search != "" {
		q = q.Where(s.searchCondition(f.Search))
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Variety != "" {
		q = q.Where("variety = ?", f.Variety)
	}
	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}

	var products []models.Product
	if err := q.Order("created_at DESC").Order("id DESC").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

func (s *Products) searchCondition(term string) *gorm.DB {
	expr, pattern := "LOWER(%s) LIKE ?", "%"+strings.ToLower(term)+"%"
	if strings.EqualFold(s.db.Dialector.Name(), "postgres") {
		expr, pattern = "%s ILIKE ?", "%"+term+"%"
	}

	cond := s.db.Where(fmt.Sprintf(expr, searchColumns[0]), pattern)
	for _, col := range searchColumns[1:] {
		cond = cond.Or(fmt.Sprintf(expr, col), pattern)
	}
	return cond
}

// Templates lists admin-authored template products by title.
func (s *Products) Templates(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("is_template = ?", true).
		Order("title ASC").
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}
	return products, nil
}

func (s *Products) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.withAssociations(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Products) Create(ctx context.Context, p *models.Product) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return errors.Wrap(err, "create product")
	}
	return nil
}

// UpdateTranslations stores the Kannada copies of title and description.
func (s *Products) UpdateTranslations(ctx context.Context, id uint, title, description string) error {
	err := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title_kannada":       title,
			"description_kannada": description,
		}).Error
	return errors.Wrap(err, "update product translations")
}

// Delete removes the custody rows of the product and then the product row,
// in that order, inside one transaction.
func (s *Products) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductSupplier{}).Error; err != nil {
			return errors.Wrap(err, "delete product custody rows")
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete product")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// IsCustodian reports whether a custody row ties supplierID to productID.
func (s *Products) IsCustodian(ctx context.Context, productID, supplierID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("product_id = ? AND supplier_id = ?", productID, supplierID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check product custody")
	}
	return count > 0, nil
}

// AddCustodian records supplierID as a secondary carrier of productID.
// Adding an existing pair is a no-op.
func (s *Products) AddCustodian(ctx context.Context, productID, supplierID uint) error {
	row := models.ProductSupplier{ProductID: productID, SupplierID: supplierID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	return errors.Wrap(err, "add product custodian")
}
