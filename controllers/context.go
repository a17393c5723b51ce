package controllers

import (
	"net/http"

	"restropos-backend/config"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// tenantSchema pulls the caller's schema from the auth claims. It is never
// read from request input.
func tenantSchema(c *gin.Context) (string, bool) {
	schema, exists := c.Get("tenantSchema")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Tenant not found in context")
		return "", false
	}
	name, ok := schema.(string)
	if !ok || name == "" {
		utils.RespondWithError(c, http.StatusUnauthorized, "Tenant not found in context")
		return "", false
	}
	return name, true
}

// tenantDB resolves the caller's tenant database handle.
func tenantDB(c *gin.Context) (*gorm.DB, string, bool) {
	schema, ok := tenantSchema(c)
	if !ok {
		return nil, "", false
	}
	tdb, err := config.TenantDB(schema)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve tenant database")
		return nil, "", false
	}
	return tdb, schema, true
}
