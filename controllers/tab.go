// controllers/tab.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpenTabInput defines the expected JSON structure for opening a tab
type OpenTabInput struct {
	TableNumber   *int   `json:"tableNumber"`
	CustomerPhone string `json:"customerPhone"`
	DeliveryType  string `json:"deliveryType" binding:"omitempty,oneof=dine_in takeaway delivery"`
}

// OrderItemInput defines one line of an order
type OrderItemInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=1"`
}

// AddOrderInput defines the expected JSON structure for attaching an order
type AddOrderInput struct {
	Items []OrderItemInput `json:"items" binding:"required,min=1"`
	Notes string           `json:"notes"`
}

// CloseTabInput defines the manual close parameters. Only this path supports
// discounts, tips and tax; the payment-webhook path zeroes them.
type CloseTabInput struct {
	Discount      float64 `json:"discount" binding:"min=0"`
	Tip           float64 `json:"tip" binding:"min=0"`
	Tax           float64 `json:"tax" binding:"min=0"`
	PaymentMethod string  `json:"paymentMethod" binding:"required,oneof=cash card"`
}

// OpenTab opens a new tab for a table or a phone order
func OpenTab(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	var input OpenTabInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.TableNumber == nil && input.CustomerPhone == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Either tableNumber or customerPhone is required")
		return
	}

	deliveryType := input.DeliveryType
	if deliveryType == "" {
		deliveryType = models.DeliveryTypeDineIn
	}

	tab := models.Tab{
		TableNumber:   input.TableNumber,
		CustomerPhone: input.CustomerPhone,
		DeliveryType:  deliveryType,
		Status:        models.TabStatusOpen,
	}

	if err := tdb.Create(&tab).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to open tab")
		return
	}

	c.JSON(http.StatusCreated, tab)
}

// GetTabs lists tabs, optionally filtered by status
func GetTabs(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	query := tdb.Preload("Orders.Items")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tabs []models.Tab
	if err := query.Find(&tabs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve tabs")
		return
	}

	c.JSON(http.StatusOK, tabs)
}

// GetTab retrieves a tab with its orders
func GetTab(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	tabUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid tab ID format")
		return
	}

	var tab models.Tab
	if err := tdb.Preload("Orders.Items").First(&tab, "id = ?", tabUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Tab not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, tab)
}

// AddOrder attaches an order of items to an open tab
func AddOrder(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	tabUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid tab ID format")
		return
	}

	var input AddOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var tab models.Tab
	if err := tdb.First(&tab, "id = ?", tabUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Tab not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if tab.Status != models.TabStatusOpen {
		utils.RespondWithError(c, http.StatusBadRequest, "Tab is already closed")
		return
	}

	// Validate and price the order items
	var orderTotal float64 = 0
	var orderItems []models.OrderItem

	for _, item := range input.Items {
		var product models.Product
		if err := tdb.First(&product, "id = ?", item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Product not found: "+item.ProductID.String())
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}

		itemTotal := product.Price * float64(item.Quantity)
		orderTotal += itemTotal

		orderItems = append(orderItems, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  itemTotal,
		})
	}

	order := models.Order{
		TabID: tab.ID,
		Notes: input.Notes,
		Items: orderItems,
	}

	tx := tdb.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create order")
		return
	}

	if err := tx.Model(&models.Tab{}).Where("id = ?", tab.ID).
		Update("total", gorm.Expr("total + ?", orderTotal)).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update tab total")
		return
	}

	tx.Commit()

	c.JSON(http.StatusCreated, order)
}

// CloseTab closes a tab manually (cash or card at the counter) and records
// the sale. Closing is terminal; a second attempt is a no-op.
func CloseTab(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	tabUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid tab ID format")
		return
	}

	var input CloseTabInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var tab models.Tab
	if err := tdb.Preload("Orders.Items").First(&tab, "id = ?", tabUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Tab not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if tab.Status == models.TabStatusClosed {
		c.JSON(http.StatusOK, gin.H{"message": "Tab already closed"})
		return
	}

	var subtotal float64 = 0
	items := models.JSONBArray{}
	for _, order := range tab.Orders {
		for _, item := range order.Items {
			subtotal += item.TotalPrice
			items = append(items, map[string]interface{}{
				"productId":   item.ProductID.String(),
				"productName": item.ProductName,
				"quantity":    item.Quantity,
				"unitPrice":   item.UnitPrice,
				"totalPrice":  item.TotalPrice,
			})
		}
	}

	total := subtotal - input.Discount + input.Tip + input.Tax
	now := time.Now()

	tx := tdb.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Conditional update so two concurrent closes cannot both record a sale.
	res := tx.Model(&models.Tab{}).
		Where("id = ? AND status = ?", tab.ID, models.TabStatusOpen).
		Updates(map[string]interface{}{
			"status":    models.TabStatusClosed,
			"total":     total,
			"closed_at": now,
		})
	if res.Error != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to close tab")
		return
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		c.JSON(http.StatusOK, gin.H{"message": "Tab already closed"})
		return
	}

	sale := models.Sale{
		SaleNumber:    "SALE-" + now.Format("20060102") + "-" + utils.GenerateRandomString(6),
		TabID:         tab.ID,
		Subtotal:      subtotal,
		Discount:      input.Discount,
		Tip:           input.Tip,
		Tax:           input.Tax,
		Total:         total,
		PaymentMethod: input.PaymentMethod,
		Items:         items,
		ClosedAt:      now,
	}
	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record sale")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, sale)
}
