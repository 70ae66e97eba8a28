package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nawoda2/Temporal-Order-Lifecycle/config"
	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
)

// Connect opens the Postgres database and returns the handle. The caller
// owns its lifecycle; there is no package-global connection.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.PostgresHost,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresDB,
		cfg.PostgresPort,
		cfg.PostgresSSLMode,
		cfg.PostgresTimeZone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the orders, payments and events tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{}, &models.Payment{}, &models.Event{})
}
