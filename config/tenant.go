package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"restropos-backend/models"
	"restropos-backend/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Per-tenant connection cache. Each schema name ever resolved gets its own
// handle whose DSN pins search_path, so queries issued through it cannot
// reach another schema regardless of table names. Eviction only happens on
// schema deletion.
var (
	tenantDBs = make(map[string]*gorm.DB)
	tenantMu  sync.RWMutex
)

// TenantDB returns the cached connection for a tenant schema, creating it on
// first use. The schema name must come from an authenticated tenant record,
// never from request input; the allow-list check runs at every use site
// anyway because the name ends up inside SQL identifiers.
func TenantDB(schema string) (*gorm.DB, error) {
	if !utils.ValidateSchemaName(schema) {
		return nil, fmt.Errorf("invalid tenant schema name %q", schema)
	}

	tenantMu.RLock()
	db, ok := tenantDBs[schema]
	tenantMu.RUnlock()
	if ok {
		return db, nil
	}

	tenantMu.Lock()
	defer tenantMu.Unlock()
	if db, ok := tenantDBs[schema]; ok {
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(tenantDSN(schema)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect tenant schema %s: %w", schema, err)
	}
	tenantDBs[schema] = db
	return db, nil
}

// RegisterTenantDB inserts a handle into the cache directly. Used after
// provisioning and by tests that back tenants with their own databases.
func RegisterTenantDB(schema string, db *gorm.DB) {
	tenantMu.Lock()
	tenantDBs[schema] = db
	tenantMu.Unlock()
}

// CreateTenantSchema provisions a schema and its fixed set of tenant tables.
// Safe to call twice: both the schema DDL and AutoMigrate are idempotent.
func CreateTenantSchema(schema string) error {
	if !utils.ValidateSchemaName(schema) {
		return fmt.Errorf("invalid tenant schema name %q", schema)
	}

	if err := DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schema)).Error; err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}

	tdb, err := TenantDB(schema)
	if err != nil {
		return err
	}

	if err := tdb.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Customer{},
		&models.Tab{},
		&models.Order{},
		&models.OrderItem{},
		&models.Sale{},
		&models.Expense{},
		&models.PaymentSetting{},
		&models.StripePayment{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema %s: %w", schema, err)
	}

	log.Printf("provisioned tenant schema %s", schema)
	return nil
}

// DropTenantSchema drops the schema with everything in it and evicts the
// cached connection.
func DropTenantSchema(schema string) error {
	if !utils.ValidateSchemaName(schema) {
		return fmt.Errorf("invalid tenant schema name %q", schema)
	}

	if err := DB.Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, schema)).Error; err != nil {
		return fmt.Errorf("failed to drop schema %s: %w", schema, err)
	}

	tenantMu.Lock()
	if db, ok := tenantDBs[schema]; ok {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		delete(tenantDBs, schema)
	}
	tenantMu.Unlock()

	log.Printf("dropped tenant schema %s", schema)
	return nil
}

func tenantDSN(schema string) string {
	dsn := os.Getenv("DB_URL")
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}
