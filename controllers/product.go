// controllers/product.go
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"restropos-backend/config"
	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const productCacheTTL = 5 * time.Minute

// CreateProductInput defines the expected JSON structure for creating a product
type CreateProductInput struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Price       float64    `json:"price" binding:"required,min=0"`
	CategoryID  *uuid.UUID `json:"categoryId"`
}

// UpdateProductInput defines the expected JSON structure for updating a product
type UpdateProductInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Price       *float64   `json:"price"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	IsActive    *bool      `json:"isActive"`
}

func productCacheKey(schema string) string {
	return "products:" + schema
}

func invalidateProductCache(c *gin.Context, schema string) {
	config.CacheDelete(c.Request.Context(), productCacheKey(schema))
}

func CreateProduct(c *gin.Context) {
	tdb, schema, ok := tenantDB(c)
	if !ok {
		return
	}

	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.CategoryID != nil {
		var category models.Category
		if err := tdb.First(&category, "id = ?", *input.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Category not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
	}

	product := models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		IsActive:    true,
	}

	if err := tdb.Create(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	invalidateProductCache(c, schema)

	c.JSON(http.StatusCreated, product)
}

// GetProducts serves the catalog, preferring the cache; writes repopulate it
// lazily with a short TTL.
func GetProducts(c *gin.Context) {
	tdb, schema, ok := tenantDB(c)
	if !ok {
		return
	}

	key := productCacheKey(schema)
	if cached, hit := config.CacheGet(c.Request.Context(), key); hit {
		c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
		return
	}

	var products []models.Product
	if err := tdb.Find(&products).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	payload, err := json.Marshal(products)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to encode products")
		return
	}
	config.CacheSet(c.Request.Context(), key, payload, productCacheTTL)

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func GetProduct(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var product models.Product
	if err := tdb.First(&product, "id = ?", productUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

func UpdateProduct(c *gin.Context) {
	tdb, schema, ok := tenantDB(c)
	if !ok {
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var product models.Product
	if err := tdb.First(&product, "id = ?", productUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := tdb.Save(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update product")
		return
	}

	invalidateProductCache(c, schema)

	c.JSON(http.StatusOK, product)
}

func DeleteProduct(c *gin.Context) {
	tdb, schema, ok := tenantDB(c)
	if !ok {
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := tdb.Delete(&models.Product{}, "id = ?", productUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	invalidateProductCache(c, schema)

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
