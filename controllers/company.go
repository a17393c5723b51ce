package controllers

import (
	"errors"
	"net/http"

	"restropos-backend/config"
	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetCompany returns the caller's company record.
func GetCompany(c *gin.Context) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return
	}

	var company models.Company
	if err := config.DB.First(&company, "id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Company not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, company)
}

// DeactivateCompany soft-disables a company. The schema and its data stay
// in place.
func DeactivateCompany(c *gin.Context) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return
	}

	if err := config.DB.Model(&models.Company{}).
		Where("id = ?", companyID).
		Update("is_active", false).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate company")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Company deactivated"})
}

// DeleteCompany drops the tenant schema with everything in it and removes
// the company's users. Irreversible.
func DeleteCompany(c *gin.Context) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return
	}

	var company models.Company
	if err := config.DB.First(&company, "id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Company not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := config.DropTenantSchema(company.SchemaName); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to drop tenant schema")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Unscoped().Where("company_id = ?", company.ID).Delete(&models.User{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete users")
		return
	}
	if err := tx.Unscoped().Delete(&company).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete company")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Company deleted"})
}
