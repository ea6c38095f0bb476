package models

import "time"

// ProductSupplier is the custody join row between a product and a supplier
// that also carries it. It is independent of Product.SupplierID.
type ProductSupplier struct {
	ProductID  uint `gorm:"primaryKey"`
	SupplierID uint `gorm:"primaryKey"`
	CreatedAt  time.Time
}
