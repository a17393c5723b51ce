// services/stripe_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"restropos-backend/config"
	"restropos-backend/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/client"
	"gorm.io/gorm"
)

// StripeConfig is the resolved per-tenant gateway configuration.
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Currency       string
}

// GetStripeConfig resolves gateway credentials for a tenant. Any failure to
// read an active settings row (row absent, inactive, query error) falls back
// to process-wide environment defaults. The fallback masks tenant isolation
// for broken rows; every path taken is logged so operators can tell which
// credentials were in play.
func GetStripeConfig(tenantSchema string) StripeConfig {
	cfg := StripeConfig{
		SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:       os.Getenv("STRIPE_CURRENCY"),
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}

	tdb, err := config.TenantDB(tenantSchema)
	if err != nil {
		log.Printf("stripe config: falling back to environment credentials for %s: %v", tenantSchema, err)
		return cfg
	}

	var settings models.PaymentSetting
	if err := tdb.Where("id = ? AND is_active = ?", models.PaymentSettingID, true).
		First(&settings).Error; err != nil {
		log.Printf("stripe config: falling back to environment credentials for %s: %v", tenantSchema, err)
		return cfg
	}

	if settings.SecretKey != "" {
		cfg.SecretKey = settings.SecretKey
	}
	if settings.PublishableKey != "" {
		cfg.PublishableKey = settings.PublishableKey
	}
	if settings.WebhookSecret != "" {
		cfg.WebhookSecret = settings.WebhookSecret
	}
	log.Printf("stripe config: using tenant credentials for %s", tenantSchema)
	return cfg
}

// StripeClient builds a gateway client for a tenant. Clients are constructed
// fresh per call rather than cached so credential updates take effect
// immediately. Fails only when no secret key is available from either the
// tenant row or the environment.
func StripeClient(tenantSchema string) (*client.API, StripeConfig, error) {
	cfg := GetStripeConfig(tenantSchema)
	if cfg.SecretKey == "" {
		return nil, cfg, errors.New("no Stripe secret key configured")
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return sc, cfg, nil
}

// CreateIntentInput carries the tenant-facing parameters of a new intent.
type CreateIntentInput struct {
	Amount        int64 // minor units
	Currency      string
	Description   string
	CustomerEmail string
	TabID         *uuid.UUID
	Metadata      map[string]string
}

// CreateIntent creates a gateway payment intent and the local pending
// payment record. The metadata always carries tenantSchema and userId: that
// is the only channel through which the webhook handler can recover the
// owning tenant from an asynchronous event.
func CreateIntent(tenantSchema, userID string, in CreateIntentInput) (*stripe.PaymentIntent, error) {
	if in.Amount <= 0 {
		return nil, errors.New("amount must be a positive number of minor units")
	}

	sc, cfg, err := StripeClient(tenantSchema)
	if err != nil {
		return nil, err
	}

	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = cfg.Currency
	}

	metadata := map[string]string{}
	for k, v := range in.Metadata {
		metadata[k] = v
	}
	metadata["tenantSchema"] = tenantSchema
	metadata["userId"] = userID
	if in.TabID != nil {
		metadata["tabId"] = in.TabID.String()
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	if in.CustomerEmail != "" {
		customerID, err := findOrCreateCustomer(sc, in.CustomerEmail)
		if err != nil {
			return nil, err
		}
		params.Customer = stripe.String(customerID)
		params.ReceiptEmail = stripe.String(in.CustomerEmail)
	}

	pi, err := sc.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	if err := persistPaymentRecord(tenantSchema, pi, in.TabID, metadata); err != nil {
		// The gateway intent exists; surface the local failure so the caller
		// does not hand out a client secret without a record behind it.
		return nil, err
	}

	return pi, nil
}

// RetrieveIntent fetches the current gateway state of an intent.
func RetrieveIntent(tenantSchema, paymentIntentID string) (*stripe.PaymentIntent, error) {
	sc, _, err := StripeClient(tenantSchema)
	if err != nil {
		return nil, err
	}
	pi, err := sc.PaymentIntents.Get(paymentIntentID, nil)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return pi, nil
}

// ConfirmIntent confirms an intent, optionally with an explicit payment
// method, and records the resulting status locally.
func ConfirmIntent(tenantSchema, paymentIntentID, paymentMethodID string) (*stripe.PaymentIntent, error) {
	sc, _, err := StripeClient(tenantSchema)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentConfirmParams{}
	if paymentMethodID != "" {
		params.PaymentMethod = stripe.String(paymentMethodID)
	}
	pi, err := sc.PaymentIntents.Confirm(paymentIntentID, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	updatePaymentStatus(tenantSchema, pi.ID, ConvertStatus(pi.Status), "")
	return pi, nil
}

// CancelIntent cancels an intent and records the canceled status locally.
func CancelIntent(tenantSchema, paymentIntentID string) (*stripe.PaymentIntent, error) {
	sc, _, err := StripeClient(tenantSchema)
	if err != nil {
		return nil, err
	}
	pi, err := sc.PaymentIntents.Cancel(paymentIntentID, nil)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	updatePaymentStatus(tenantSchema, pi.ID, models.PaymentStatusCanceled, "")
	return pi, nil
}

// CreateRefund refunds a charge or payment intent (full refund when amount
// is zero) and marks the local record refunded.
func CreateRefund(tenantSchema, chargeOrIntentID string, amount int64, reason string) (*stripe.Refund, error) {
	sc, _, err := StripeClient(tenantSchema)
	if err != nil {
		return nil, err
	}

	params := &stripe.RefundParams{}
	if strings.HasPrefix(chargeOrIntentID, "ch_") {
		params.Charge = stripe.String(chargeOrIntentID)
	} else {
		params.PaymentIntent = stripe.String(chargeOrIntentID)
	}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	if reason != "" {
		params.Reason = stripe.String(reason)
	}

	refund, err := sc.Refunds.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	intentID := chargeOrIntentID
	if refund.PaymentIntent != nil {
		intentID = refund.PaymentIntent.ID
	}
	updatePaymentStatus(tenantSchema, intentID, models.PaymentStatusRefunded, "")
	return refund, nil
}

// ConvertStatus maps a gateway intent status onto the local payment states.
// The mapping is total: unknown statuses land on failed.
func ConvertStatus(status stripe.PaymentIntentStatus) string {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return models.PaymentStatusCanceled
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction:
		return models.PaymentStatusPending
	default:
		return models.PaymentStatusFailed
	}
}

func findOrCreateCustomer(sc *client.API, email string) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)

	iter := sc.Customers.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", wrapStripeError(err)
	}

	cust, err := sc.Customers.New(&stripe.CustomerParams{Email: stripe.String(email)})
	if err != nil {
		return "", wrapStripeError(err)
	}
	return cust.ID, nil
}

func persistPaymentRecord(tenantSchema string, pi *stripe.PaymentIntent, tabID *uuid.UUID, metadata map[string]string) error {
	tdb, err := config.TenantDB(tenantSchema)
	if err != nil {
		return err
	}

	meta := models.JSONB{}
	for k, v := range metadata {
		meta[k] = v
	}

	record := models.StripePayment{
		PaymentIntentID: pi.ID,
		TabID:           tabID,
		Amount:          pi.Amount,
		Currency:        string(pi.Currency),
		Status:          models.PaymentStatusPending,
		Metadata:        meta,
	}
	if err := tdb.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to persist payment record: %w", err)
	}

	// Shared index so refund events resolve the tenant without a scan.
	index := models.StripePaymentIndex{
		PaymentIntentID: pi.ID,
		SchemaName:      tenantSchema,
		CreatedAt:       time.Now(),
	}
	if err := config.DB.Create(&index).Error; err != nil {
		log.Printf("failed to index payment intent %s for %s: %v", pi.ID, tenantSchema, err)
	}
	return nil
}

func updatePaymentStatus(tenantSchema, paymentIntentID, status, paymentMethod string) {
	tdb, err := config.TenantDB(tenantSchema)
	if err != nil {
		log.Printf("failed to resolve tenant %s updating payment %s: %v", tenantSchema, paymentIntentID, err)
		return
	}

	updates := map[string]interface{}{"status": status}
	if paymentMethod != "" {
		updates["payment_method"] = paymentMethod
	}
	if err := tdb.Model(&models.StripePayment{}).
		Where("payment_intent_id = ?", paymentIntentID).
		Updates(updates).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("failed to update payment %s in %s: %v", paymentIntentID, tenantSchema, err)
	}
}

// wrapStripeError surfaces the gateway's own message instead of the SDK's
// wrapper noise.
func wrapStripeError(err error) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe: %s", stripeErr.Msg)
	}
	return err
}
