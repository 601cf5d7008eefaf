package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table from the gorm models. Used for
// sqlite; postgres deployments run the versioned SQL in infra/migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
