package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultUnit = "piece"

type Product struct {
	ID                 uint            `gorm:"primaryKey"`
	Title              string          `gorm:"size:255;not null"`
	TitleKannada       string          `gorm:"size:255"`
	Description        string          `gorm:"type:text"`
	DescriptionKannada string          `gorm:"type:text"`
	Price              decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CategoryID         *uint           `gorm:"index"`
	Category           *Category
	Variety            string `gorm:"size:100;index"`
	SubVariety         string `gorm:"size:100"`
	Unit               string `gorm:"size:20;not null;default:piece"`
	Image              string `gorm:"size:512"`

	// Primary owner. Nil for admin-authored templates.
	SupplierID *uint `gorm:"index"`
	IsTemplate bool  `gorm:"not null;default:false;index"`

	// Secondary carriers through the product_suppliers custody table.
	Suppliers []Supplier `gorm:"many2many:product_suppliers;"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether supplierID is the product's primary owner.
func (p *Product) OwnedBy(supplierID uint) bool {
	return p.SupplierID != nil && *p.SupplierID == supplierID
}
