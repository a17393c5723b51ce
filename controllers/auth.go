package controllers

import (
	"errors"
	"net/http"
	"restropos-backend/config"
	"restropos-backend/models"
	"restropos-backend/utils"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	CompanyName string `json:"companyName" binding:"required"`
	Plan        string `json:"plan"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

// Register creates a company, provisions its tenant schema and creates the
// admin user in one go.
func Register(c *gin.Context) {
	var input RegisterInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Check if email or phone already exists
	var existingUser models.User
	result := config.DB.Where("email = ? OR phone = ?", input.Email, input.Phone).First(&existingUser)

	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	slug := utils.Slugify(input.CompanyName)
	schemaName := "tenant_" + slug
	if !utils.ValidateSchemaName(schemaName) {
		utils.RespondWithError(c, http.StatusBadRequest, "Company name does not produce a usable identifier")
		return
	}

	var existingCompany models.Company
	if err := config.DB.Where("slug = ? OR schema_name = ?", slug, schemaName).
		First(&existingCompany).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Company name already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	plan := input.Plan
	if plan == "" {
		plan = "basic"
	}

	company := models.Company{
		Name:          input.CompanyName,
		Slug:          slug,
		SchemaName:    schemaName,
		StorageFolder: "companies/" + slug,
		Plan:          plan,
		IsActive:      true,
	}

	newUser := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password, // Hashed in BeforeCreate hook
		Role:     "admin",
		IsActive: true,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&company).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create company")
		return
	}

	newUser.CompanyID = company.ID
	if err := tx.Create(&newUser).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	tx.Commit()

	// Provision the tenant schema synchronously; roll the registration back
	// if it fails so no company exists without a schema.
	if err := config.CreateTenantSchema(schemaName); err != nil {
		config.DB.Unscoped().Delete(&newUser)
		config.DB.Unscoped().Delete(&company)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to provision tenant schema")
		return
	}

	token, err := utils.GenerateToken(newUser.ID.String(), company.ID.String(), schemaName, newUser.Role)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user": gin.H{
			"id":    newUser.ID,
			"email": newUser.Email,
			"phone": newUser.Phone,
			"role":  newUser.Role,
		},
		"company": gin.H{
			"id":   company.ID,
			"name": company.Name,
			"slug": company.Slug,
			"plan": company.Plan,
		},
	})
}

func Login(c *gin.Context) {
	var input LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// Clean identifier
	identifier := strings.TrimSpace(input.Identifier)

	var user models.User
	result := config.DB.Preload("Company").
		Where("email = ? OR phone = ?", identifier, identifier).
		First(&user)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// Check password
	if !utils.CheckPasswordHash(input.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.IsActive || !user.Company.IsActive {
		utils.RespondWithError(c, http.StatusForbidden, "Account is deactivated")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.CompanyID.String(), user.Company.SchemaName, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// Update last login
	now := time.Now()
	config.DB.Model(&user).Update("last_login", &now)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"phone": user.Phone,
			"role":  user.Role,
		},
		"company": gin.H{
			"id":   user.CompanyID,
			"name": user.Company.Name,
			"slug": user.Company.Slug,
			"plan": user.Company.Plan,
		},
	})
}

func Me(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User ID not found in context"})
		return
	}

	var user models.User
	if err := config.DB.Preload("Company").First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":      user.ID,
			"email":   user.Email,
			"name":    user.Name,
			"role":    user.Role,
			"company": user.Company.Name,
		},
	})
}
