// controllers/payment.go
package controllers

import (
	"errors"
	"io"
	"net/http"

	"restropos-backend/models"
	"restropos-backend/services"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
)

// CreateIntentInput defines the expected JSON structure for creating a
// payment intent
type CreateIntentInput struct {
	Amount        int64             `json:"amount" binding:"required"` // minor units
	Currency      string            `json:"currency"`
	TabID         *uuid.UUID        `json:"tabId"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customerEmail"`
	Metadata      map[string]string `json:"metadata"`
}

// ConfirmPaymentInput defines the expected JSON structure for confirming an
// intent
type ConfirmPaymentInput struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// RefundPaymentInput defines the expected JSON structure for a refund
type RefundPaymentInput struct {
	Amount int64  `json:"amount"` // minor units; 0 means full refund
	Reason string `json:"reason"`
}

// CompletePaymentInput ties a succeeded intent to tab closure synchronously,
// as an alternative to waiting for the webhook
type CompletePaymentInput struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

func CreatePaymentIntent(c *gin.Context) {
	schema, ok := tenantSchema(c)
	if !ok {
		return
	}
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input CreateIntentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Amount <= 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Amount must be a positive number of minor units")
		return
	}

	pi, err := services.CreateIntent(schema, userID.(string), services.CreateIntentInput{
		Amount:        input.Amount,
		Currency:      input.Currency,
		Description:   input.Description,
		CustomerEmail: input.CustomerEmail,
		TabID:         input.TabID,
		Metadata:      input.Metadata,
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, paymentIntentResponse(pi))
}

func GetPaymentIntent(c *gin.Context) {
	schema, ok := tenantSchema(c)
	if !ok {
		return
	}

	pi, err := services.RetrieveIntent(schema, c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, paymentIntentResponse(pi))
}

func ConfirmPayment(c *gin.Context) {
	schema, ok := tenantSchema(c)
	if !ok {
		return
	}

	var input ConfirmPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	pi, err := services.ConfirmIntent(schema, input.PaymentIntentID, input.PaymentMethodID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, paymentIntentResponse(pi))
}

func CancelPayment(c *gin.Context) {
	schema, ok := tenantSchema(c)
	if !ok {
		return
	}

	pi, err := services.CancelIntent(schema, c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, paymentIntentResponse(pi))
}

func RefundPayment(c *gin.Context) {
	schema, ok := tenantSchema(c)
	if !ok {
		return
	}

	// An empty body means a full refund; any other binding failure is a 400.
	var input RefundPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	refund, err := services.CreateRefund(schema, c.Param("id"), input.Amount, input.Reason)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     refund.ID,
		"amount": refund.Amount,
		"status": string(refund.Status),
	})
}

// CompletePayment verifies a succeeded intent and closes the attached tab
// without waiting for the asynchronous webhook.
func CompletePayment(c *gin.Context) {
	tdb, schema, ok := tenantDB(c)
	if !ok {
		return
	}

	var input CompletePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	pi, err := services.RetrieveIntent(schema, input.PaymentIntentID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		utils.RespondWithError(c, http.StatusBadRequest, "Payment has not succeeded yet")
		return
	}

	updates := map[string]interface{}{"status": models.PaymentStatusSucceeded}
	if pi.PaymentMethod != nil {
		updates["payment_method"] = pi.PaymentMethod.ID
	}
	if err := tdb.Model(&models.StripePayment{}).
		Where("payment_intent_id = ?", pi.ID).
		Updates(updates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update payment record")
		return
	}

	if tabIDStr, hasTab := pi.Metadata["tabId"]; hasTab {
		tabUUID, err := uuid.Parse(tabIDStr)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Intent carries an invalid tabId")
			return
		}
		if err := services.CloseTabWithPayment(schema, tabUUID, pi.ID, float64(pi.Amount)/100); err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to close tab")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment completed",
		"status":  models.PaymentStatusSucceeded,
	})
}

// GetPaymentConfig is public: it exposes only the publishable key and the
// default currency.
func GetPaymentConfig(c *gin.Context) {
	schema := c.Query("tenant")
	if schema != "" && !utils.ValidateSchemaName(schema) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid tenant identifier")
		return
	}

	cfg := services.GetStripeConfig(schema)
	c.JSON(http.StatusOK, gin.H{
		"publishableKey": cfg.PublishableKey,
		"currency":       cfg.Currency,
	})
}

func paymentIntentResponse(pi *stripe.PaymentIntent) gin.H {
	return gin.H{
		"id":           pi.ID,
		"clientSecret": pi.ClientSecret,
		"amount":       pi.Amount,
		"currency":     string(pi.Currency),
		"status":       services.ConvertStatus(pi.Status),
		"metadata":     pi.Metadata,
	}
}
