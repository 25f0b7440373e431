package database

import (
	"fmt"

	"github.com/appcontrol-api/logging"
	"github.com/appcontrol-api/models"
	"gorm.io/gorm"
)

// Models lists every persisted entity; users come first so the record
// tables can reference them
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.GlucometryRecord{},
		&models.MedicalExam{},
		&models.Recipe{},
	}
}

// Migrate migrates the database schema
func Migrate(db *gorm.DB) error {
	logging.Info().Msg("Migrating database schema...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logging.Info().Msg("Database schema migrated")
	return nil
}
