package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"restropos-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRouter(schema string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	withTenant := func(c *gin.Context) { c.Set("tenantSchema", schema) }
	r.POST("/products", withTenant, CreateProduct)
	r.GET("/products", withTenant, GetProducts)
	r.GET("/products/:id", withTenant, GetProduct)
	r.PUT("/products/:id", withTenant, UpdateProduct)
	r.DELETE("/products/:id", withTenant, DeleteProduct)
	return r
}

func TestCreateProductValidatesCategory(t *testing.T) {
	tdb := provisionTenant(t, "tenant_prod_create", "")
	r := productRouter("tenant_prod_create")

	w := jsonPost(r, "/products", `{"name": "Tiramisu", "price": 6.50}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Unknown category is rejected before anything is written.
	w = jsonPost(r, "/products",
		`{"name": "Affogato", "price": 5.00, "categoryId": "0f0a46e1-6a89-4b6f-9c0f-1b3f54a3a111"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, tdb.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetProductsWithoutCache(t *testing.T) {
	tdb := provisionTenant(t, "tenant_prod_list", "")
	seedProduct(t, tdb, "Negroni", 11.00)
	seedProduct(t, tdb, "Spritz", 9.00)
	r := productRouter("tenant_prod_list")

	// No cache connected; the handler must fall through to the database.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Negroni")
	assert.Contains(t, w.Body.String(), "Spritz")
}

func TestUpdateProductPartialFields(t *testing.T) {
	tdb := provisionTenant(t, "tenant_prod_update", "")
	product := seedProduct(t, tdb, "Old Fashioned", 12.00)
	r := productRouter("tenant_prod_update")

	req := httptest.NewRequest(http.MethodPut, "/products/"+product.ID.String(),
		strings.NewReader(`{"price": 13.50}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Product
	require.NoError(t, tdb.First(&updated, "id = ?", product.ID).Error)
	assert.Equal(t, 13.50, updated.Price)
	assert.Equal(t, "Old Fashioned", updated.Name)
}

func TestDeleteProduct(t *testing.T) {
	tdb := provisionTenant(t, "tenant_prod_delete", "")
	product := seedProduct(t, tdb, "Daiquiri", 10.00)
	r := productRouter("tenant_prod_delete")

	req := httptest.NewRequest(http.MethodDelete, "/products/"+product.ID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, tdb.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}
