package initializers

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hamzab/drivebox-backend/models"
)

// ConnectToDatabase opens the postgres connection and migrates the schema.
func ConnectToDatabase(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to the database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.File{},
		&models.ShareLink{},
		&models.AuditLogEntry{},
	); err != nil {
		log.Fatalf("failed to migrate database schema: %v", err)
	}
	log.Println("database connected and migrated")
	return db
}
