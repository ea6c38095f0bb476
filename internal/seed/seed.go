// Package seed loads the starter catalog: a default supplier, an optional
// bootstrap admin, the Groceries category and five staple products.
package seed

import (
	"context"

	"rrnagar-backend/internal/models"
	"rrnagar-backend/internal/store"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DefaultSupplierName  = "Default Supplier"
	DefaultSupplierPhone = "9999999999"
	GroceriesCategory    = "Groceries"
	groceriesIcon        = "🛒"
)

type Options struct {
	SupplierEmail    string
	SupplierPassword string // empty leaves the supplier without a login

	AdminName     string
	AdminEmail    string
	AdminPassword string // admin is skipped unless email and password are set
}

type Result struct {
	Supplier        models.Supplier
	Admin           *models.Admin
	Category        models.Category
	ProductsCreated int
}

var groceries = []struct {
	title       string
	description string
	price       int64
}{
	{"Rice 1kg", "Premium quality rice.", 60},
	{"Toor Dal 500g", "Protein-rich toor dal.", 80},
	{"Sunflower Oil 1L", "Healthy cooking oil.", 120},
	{"Sugar 1kg", "Refined sugar.", 50},
	{"Salt 1kg", "Iodized salt.", 20},
}

// Run is idempotent: every record is found by its natural key before being
// created, so repeated runs add nothing.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	res := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supplierHash, err := hashIfSet(opts.SupplierPassword)
		if err != nil {
			return err
		}
		err = tx.Where("name = ?", DefaultSupplierName).
			Attrs(models.Supplier{
				Name:         DefaultSupplierName,
				Phone:        DefaultSupplierPhone,
				Email:        opts.SupplierEmail,
				PasswordHash: supplierHash,
			}).
			FirstOrCreate(&res.Supplier).Error
		if err != nil {
			return errors.Wrap(err, "seed supplier")
		}

		if opts.AdminEmail != "" && opts.AdminPassword != "" {
			adminHash, err := hashIfSet(opts.AdminPassword)
			if err != nil {
				return err
			}
			admin := models.Admin{}
			err = tx.Where("email = ?", opts.AdminEmail).
				Attrs(models.Admin{Name: opts.AdminName, Email: opts.AdminEmail, PasswordHash: adminHash}).
				FirstOrCreate(&admin).Error
			if err != nil {
				return errors.Wrap(err, "seed admin")
			}
			res.Admin = &admin
		}

		err = tx.Where("name = ?", GroceriesCategory).
			Attrs(models.Category{Name: GroceriesCategory, Icon: groceriesIcon}).
			FirstOrCreate(&res.Category).Error
		if err != nil {
			return errors.Wrap(err, "seed category")
		}

		products := store.NewProducts(tx)
		for _, g := range groceries {
			p := models.Product{}
			q := tx.Where("title = ? AND supplier_id = ?", g.title, res.Supplier.ID).
				Attrs(models.Product{
					Title:       g.title,
					Description: g.description,
					Price:       decimal.NewFromInt(g.price),
					CategoryID:  &res.Category.ID,
					SupplierID:  &res.Supplier.ID,
					Unit:        models.DefaultUnit,
				}).
				FirstOrCreate(&p)
			if q.Error != nil {
				return errors.Wrapf(q.Error, "seed product %q", g.title)
			}
			if q.RowsAffected > 0 {
				res.ProductsCreated++
			}
			if err := products.AddCustodian(ctx, p.ID, res.Supplier.ID); err != nil {
				return errors.Wrapf(err, "seed custody for %q", g.title)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.S().Infow("seed complete",
		"supplier_id", res.Supplier.ID,
		"category_id", res.Category.ID,
		"products_created", res.ProductsCreated,
	)
	return res, nil
}

func hashIfSet(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}
