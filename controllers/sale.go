// controllers/sale.go
package controllers

import (
	"errors"
	"net/http"

	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetSales lists sales, newest first, optionally bounded by from/to dates
func GetSales(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	query := tdb.Order("closed_at DESC")
	if from := c.Query("from"); from != "" {
		query = query.Where("closed_at >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("closed_at <= ?", to)
	}

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve sales")
		return
	}

	c.JSON(http.StatusOK, sales)
}

// GetSale retrieves a specific sale by ID
func GetSale(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	saleUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var sale models.Sale
	if err := tdb.First(&sale, "id = ?", saleUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, sale)
}
