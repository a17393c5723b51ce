// controllers/payment_settings.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"restropos-backend/models"
	"restropos-backend/services"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/client"
	"gorm.io/gorm"
)

// UpdatePaymentSettingsInput defines the expected JSON structure for storing
// gateway credentials
type UpdatePaymentSettingsInput struct {
	SecretKey      string `json:"secretKey" binding:"required"`
	PublishableKey string `json:"publishableKey" binding:"required"`
	WebhookSecret  string `json:"webhookSecret"`
	TestMode       *bool  `json:"testMode" binding:"required"`
}

// GetPaymentSettings returns the tenant's settings row with the secrets
// masked.
func GetPaymentSettings(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	var settings models.PaymentSetting
	if err := tdb.First(&settings, "id = ?", models.PaymentSettingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment settings not configured")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider":         settings.Provider,
		"publishableKey":   settings.PublishableKey,
		"secretKeyLast4":   lastFour(settings.SecretKey),
		"hasWebhookSecret": settings.WebhookSecret != "",
		"testMode":         settings.TestMode,
		"isActive":         settings.IsActive,
		"updatedAt":        settings.UpdatedAt,
	})
}

// UpdatePaymentSettings validates key formats and mode consistency, confirms
// the secret key against the gateway with a live call, then stores the row.
func UpdatePaymentSettings(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	var input UpdatePaymentSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	testMode := *input.TestMode
	if !utils.ValidateSecretKey(input.SecretKey, testMode) {
		utils.RespondWithError(c, http.StatusBadRequest, "Secret key format does not match the selected mode")
		return
	}
	if !utils.ValidatePublishableKey(input.PublishableKey, testMode) {
		utils.RespondWithError(c, http.StatusBadRequest, "Publishable key format does not match the selected mode")
		return
	}
	if input.WebhookSecret != "" && !utils.ValidateWebhookSecret(input.WebhookSecret) {
		utils.RespondWithError(c, http.StatusBadRequest, "Webhook secret format is invalid")
		return
	}

	// Round-trip against the gateway before persisting anything.
	if err := verifySecretKey(input.SecretKey); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Stripe rejected the secret key: "+err.Error())
		return
	}

	var settings models.PaymentSetting
	err := tdb.First(&settings, "id = ?", models.PaymentSettingID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	settings.ID = models.PaymentSettingID
	settings.Provider = "stripe"
	settings.SecretKey = input.SecretKey
	settings.PublishableKey = input.PublishableKey
	if input.WebhookSecret != "" {
		settings.WebhookSecret = input.WebhookSecret
	}
	settings.TestMode = testMode
	settings.IsActive = true

	if err := tdb.Save(&settings).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save payment settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Payment settings saved",
		"testMode": settings.TestMode,
	})
}

// DeletePaymentSettings deactivates the settings row. Secrets are retained.
func DeletePaymentSettings(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	res := tdb.Model(&models.PaymentSetting{}).
		Where("id = ?", models.PaymentSettingID).
		Update("is_active", false)
	if res.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate payment settings")
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Payment settings not configured")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment settings deactivated"})
}

// TestPaymentSettings validates the currently resolved credentials with a
// live gateway call.
func TestPaymentSettings(c *gin.Context) {
	schema, ok := tenantSchema(c)
	if !ok {
		return
	}

	cfg := services.GetStripeConfig(schema)
	if cfg.SecretKey == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "No Stripe secret key configured")
		return
	}

	if err := verifySecretKey(cfg.SecretKey); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Stripe rejected the secret key: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Stripe credentials are valid",
		"testMode": strings.HasPrefix(cfg.SecretKey, "sk_test_"),
	})
}

func verifySecretKey(secretKey string) error {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	if _, err := sc.Balance.Get(&stripe.BalanceParams{}); err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return errors.New(stripeErr.Msg)
		}
		return err
	}
	return nil
}

func lastFour(key string) string {
	if len(key) < 4 {
		return ""
	}
	return key[len(key)-4:]
}
