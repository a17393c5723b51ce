package services

import (
	"testing"

	"restropos-backend/config"
	"restropos-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTenantDB backs a tenant schema with an in-memory database and registers
// it so the service layer resolves it like any other tenant.
func newTenantDB(t *testing.T, schema string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+schema+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))
	config.RegisterTenantDB(schema, db)
	return db
}

func seedOpenTab(t *testing.T, db *gorm.DB) models.Tab {
	t.Helper()
	table := 4
	tab := models.Tab{TableNumber: &table, DeliveryType: models.DeliveryTypeDineIn, Status: models.TabStatusOpen}
	require.NoError(t, db.Create(&tab).Error)

	order := models.Order{TabID: tab.ID}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Create(&models.OrderItem{
		OrderID:     order.ID,
		ProductID:   uuid.New(),
		ProductName: "Margherita",
		Quantity:    2,
		UnitPrice:   12.50,
		TotalPrice:  25.00,
	}).Error)
	return tab
}

func TestCloseTabWithPaymentRecordsSale(t *testing.T) {
	db := newTenantDB(t, "tenant_close_sale")
	tab := seedOpenTab(t, db)

	require.NoError(t, CloseTabWithPayment("tenant_close_sale", tab.ID, "pi_test_close", 25.00))

	var closed models.Tab
	require.NoError(t, db.First(&closed, "id = ?", tab.ID).Error)
	assert.Equal(t, models.TabStatusClosed, closed.Status)
	assert.Equal(t, 25.00, closed.Total)
	assert.NotNil(t, closed.ClosedAt)

	var sales []models.Sale
	require.NoError(t, db.Find(&sales).Error)
	require.Len(t, sales, 1)
	assert.Equal(t, tab.ID, sales[0].TabID)
	assert.Equal(t, 25.00, sales[0].Total)
	assert.Equal(t, "card", sales[0].PaymentMethod)
	require.Len(t, sales[0].Items, 1)
	assert.Equal(t, "Margherita", sales[0].Items[0]["productName"])
}

func TestCloseTabWithPaymentIsIdempotent(t *testing.T) {
	db := newTenantDB(t, "tenant_close_idem")
	tab := seedOpenTab(t, db)

	require.NoError(t, CloseTabWithPayment("tenant_close_idem", tab.ID, "pi_test_idem", 25.00))
	// Redelivery of the same event must not create a second sale.
	require.NoError(t, CloseTabWithPayment("tenant_close_idem", tab.ID, "pi_test_idem", 25.00))

	var count int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCloseTabWithPaymentUnknownTab(t *testing.T) {
	newTenantDB(t, "tenant_close_missing")
	err := CloseTabWithPayment("tenant_close_missing", uuid.New(), "pi_test_missing", 10.00)
	assert.Error(t, err)
}
