// services/tab_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"restropos-backend/config"
	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CloseTabWithPayment closes a tab after a gateway payment succeeded and
// records the sale. Stripe delivers webhooks at least once, so this must be
// safely retryable: a tab that is already closed is a pure no-op, and the
// close itself is a conditional update so two concurrent deliveries cannot
// both produce a sale.
//
// This reconciliation path does not support discounts or tips; those only
// exist on the manual close path.
func CloseTabWithPayment(tenantSchema string, tabID uuid.UUID, paymentIntentID string, amount float64) error {
	tdb, err := config.TenantDB(tenantSchema)
	if err != nil {
		return err
	}

	var tab models.Tab
	if err := tdb.First(&tab, "id = ?", tabID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tab %s not found", tabID)
		}
		return err
	}
	if tab.Status == models.TabStatusClosed {
		// Duplicate delivery; nothing to do.
		return nil
	}

	now := time.Now()

	tx := tdb.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&models.Tab{}).
		Where("id = ? AND status = ?", tabID, models.TabStatusOpen).
		Updates(map[string]interface{}{
			"status":    models.TabStatusClosed,
			"total":     amount,
			"closed_at": now,
		})
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Another delivery won the close between our read and the update.
		tx.Rollback()
		return nil
	}

	items, err := collectTabItems(tx, tabID)
	if err != nil {
		tx.Rollback()
		return err
	}

	sale := models.Sale{
		SaleNumber:    "SALE-" + now.Format("20060102") + "-" + utils.GenerateRandomString(6),
		TabID:         tabID,
		Subtotal:      amount,
		Discount:      0,
		Tip:           0,
		Tax:           0,
		Total:         amount,
		PaymentMethod: "card",
		Items:         items,
		ClosedAt:      now,
	}
	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// collectTabItems snapshots every order item currently attached to the tab's
// orders into the immutable form the sale record stores.
func collectTabItems(tx *gorm.DB, tabID uuid.UUID) (models.JSONBArray, error) {
	var orders []models.Order
	if err := tx.Preload("Items").Where("tab_id = ?", tabID).Find(&orders).Error; err != nil {
		return nil, err
	}

	items := models.JSONBArray{}
	for _, order := range orders {
		for _, item := range order.Items {
			items = append(items, map[string]interface{}{
				"productId":   item.ProductID.String(),
				"productName": item.ProductName,
				"quantity":    item.Quantity,
				"unitPrice":   item.UnitPrice,
				"totalPrice":  item.TotalPrice,
			})
		}
	}
	return items, nil
}
