package database

import (
	"rrnagar-backend/internal/config"
	"rrnagar-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres when DATABASE_URL is set, otherwise to the local
// SQLite file.
func Open(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.IsProduction() {
		level = logger.Silent
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	var dialector gorm.Dialector
	if cfg.DatabaseURL != "" {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open(cfg.SQLitePath)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}
	return db, nil
}

// Migrate keeps the schema in sync with the models. The custody join table is
// registered first so the many2many association uses models.ProductSupplier.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Product{}, "Suppliers", &models.ProductSupplier{}); err != nil {
		return errors.Wrap(err, "setup product_suppliers join table")
	}
	if err := db.AutoMigrate(models.Tables...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	zap.L().Info("database schema synced", zap.String("dialect", db.Dialector.Name()))
	return nil
}
