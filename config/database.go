package config

import (
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the shared-schema handle. Company, user and payment-index rows live
// here; everything else goes through TenantDB.
var DB *gorm.DB

func ConnectDB() {
	dsn := os.Getenv("DB_URL")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("Failed to connect database")
	}

	DB = db
}
