// controllers/webhook.go
package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"restropos-backend/config"
	"restropos-backend/models"
	"restropos-backend/services"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
	"gorm.io/gorm"
)

const webhookBodyLimit = 1 << 20 // 1MiB

// webhookProbe is the minimal unverified view of an event, read only to find
// out which tenant's webhook secret to verify against.
type webhookProbe struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Metadata      map[string]string `json:"metadata"`
			PaymentIntent string            `json:"payment_intent"`
		} `json:"object"`
	} `json:"data"`
}

// StripeWebhook reconciles asynchronous gateway events with local payment,
// tab and sale records.
//
// Entry protocol: require the signature header, peek the unverified body for
// the owning tenant, resolve that tenant's webhook secret, verify the
// signature against the raw bytes, and only then dispatch. The metadata is
// read before verification because the secret is per-tenant; its
// authenticity is established by the signature check before any state
// changes, so no database mutation happens on unverified data.
func StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing stripe-signature header")
		return
	}

	var probe webhookProbe
	if err := json.Unmarshal(payload, &probe); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid event payload")
		return
	}

	schema := probe.Data.Object.Metadata["tenantSchema"]
	if schema == "" && probe.Type == "charge.refunded" {
		// Charge objects carry no tenant metadata; recover the tenant from
		// the payment intent the charge settles.
		schema = resolveRefundTenant(probe.Data.Object.PaymentIntent)
	}
	if schema == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Event metadata does not identify a tenant")
		return
	}
	if !utils.ValidateSchemaName(schema) {
		utils.RespondWithError(c, http.StatusBadRequest, "Event metadata does not identify a tenant")
		return
	}

	cfg := services.GetStripeConfig(schema)
	if cfg.WebhookSecret == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "No webhook secret configured for tenant")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid Stripe signature")
		return
	}

	// Verified from here on. Processing failures return 500 so Stripe
	// retries; every handler below is safe under at-least-once delivery.
	switch event.Type {
	case "payment_intent.succeeded":
		err = handleIntentSucceeded(schema, &event)
	case "payment_intent.payment_failed":
		err = handleIntentFinal(schema, &event, models.PaymentStatusFailed)
	case "payment_intent.canceled":
		err = handleIntentFinal(schema, &event, models.PaymentStatusCanceled)
	case "charge.refunded":
		err = handleChargeRefunded(schema, &event)
	default:
		log.Printf("webhook: ignoring event type %s", event.Type)
	}
	if err != nil {
		log.Printf("webhook: failed to process %s for %s: %v", event.Type, schema, err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to process event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func handleIntentSucceeded(schema string, event *stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}

	tdb, err := config.TenantDB(schema)
	if err != nil {
		return err
	}

	snapshot := models.JSONB{}
	if err := json.Unmarshal(event.Data.Raw, &snapshot); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":           models.PaymentStatusSucceeded,
		"gateway_response": snapshot,
	}
	if pi.PaymentMethod != nil {
		updates["payment_method"] = pi.PaymentMethod.ID
	}
	if err := tdb.Model(&models.StripePayment{}).
		Where("payment_intent_id = ?", pi.ID).
		Updates(updates).Error; err != nil {
		return err
	}

	if tabIDStr, ok := pi.Metadata["tabId"]; ok && tabIDStr != "" {
		tabUUID, err := uuid.Parse(tabIDStr)
		if err != nil {
			log.Printf("webhook: intent %s carries invalid tabId %q", pi.ID, tabIDStr)
			return nil
		}
		return services.CloseTabWithPayment(schema, tabUUID, pi.ID, float64(pi.Amount)/100)
	}
	return nil
}

func handleIntentFinal(schema string, event *stripe.Event, status string) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}

	tdb, err := config.TenantDB(schema)
	if err != nil {
		return err
	}

	snapshot := models.JSONB{}
	if err := json.Unmarshal(event.Data.Raw, &snapshot); err != nil {
		return err
	}

	return tdb.Model(&models.StripePayment{}).
		Where("payment_intent_id = ?", pi.ID).
		Updates(map[string]interface{}{
			"status":           status,
			"gateway_response": snapshot,
		}).Error
}

func handleChargeRefunded(schema string, event *stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return err
	}
	if charge.PaymentIntent == nil {
		return errors.New("refunded charge carries no payment intent")
	}

	tdb, err := config.TenantDB(schema)
	if err != nil {
		return err
	}

	snapshot := models.JSONB{}
	if err := json.Unmarshal(event.Data.Raw, &snapshot); err != nil {
		return err
	}

	return tdb.Model(&models.StripePayment{}).
		Where("payment_intent_id = ?", charge.PaymentIntent.ID).
		Updates(map[string]interface{}{
			"status":           models.PaymentStatusRefunded,
			"gateway_response": snapshot,
		}).Error
}

// resolveRefundTenant finds the schema owning a payment intent. The shared
// index written at intent-creation time answers in one lookup; intents that
// predate it fall back to a linear scan over the tenant registry.
func resolveRefundTenant(paymentIntentID string) string {
	if paymentIntentID == "" {
		return ""
	}

	var index models.StripePaymentIndex
	err := config.DB.First(&index, "payment_intent_id = ?", paymentIntentID).Error
	if err == nil {
		return index.SchemaName
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("webhook: payment index lookup failed for %s: %v", paymentIntentID, err)
	}

	var companies []models.Company
	if err := config.DB.Find(&companies).Error; err != nil {
		log.Printf("webhook: failed to list companies for refund scan: %v", err)
		return ""
	}

	for _, company := range companies {
		tdb, err := config.TenantDB(company.SchemaName)
		if err != nil {
			continue
		}
		var count int64
		if err := tdb.Model(&models.StripePayment{}).
			Where("payment_intent_id = ?", paymentIntentID).
			Count(&count).Error; err != nil {
			continue
		}
		if count > 0 {
			return company.SchemaName
		}
	}
	return ""
}
