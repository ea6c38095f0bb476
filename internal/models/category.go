package models

import "time"

// Category names are not unique.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:text;not null"`
	Icon      string `gorm:"size:50"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
