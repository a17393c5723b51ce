package controllers

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restropos-backend/config"
	"restropos-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83/webhook"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMemoryDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

// useSharedDB points the registry at an in-memory database for the duration
// of a test.
func useSharedDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db := openMemoryDB(t, name)
	require.NoError(t, db.AutoMigrate(&models.Company{}, &models.StripePaymentIndex{}))
	prev := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = prev })
	return db
}

func provisionTenant(t *testing.T, schema, webhookSecret string) *gorm.DB {
	t.Helper()
	db := openMemoryDB(t, schema)
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Customer{},
		&models.Tab{},
		&models.Order{},
		&models.OrderItem{},
		&models.Sale{},
		&models.Expense{},
		&models.PaymentSetting{},
		&models.StripePayment{},
	))
	if webhookSecret != "" {
		require.NoError(t, db.Create(&models.PaymentSetting{
			ID:            models.PaymentSettingID,
			SecretKey:     "sk_test_" + schema + "key1",
			WebhookSecret: webhookSecret,
			TestMode:      true,
			IsActive:      true,
		}).Error)
	}
	config.RegisterTenantDB(schema, db)
	return db
}

func webhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/stripe", StripeWebhook)
	return r
}

func signPayload(payload []byte, secret string) string {
	ts := time.Now()
	sig := webhook.ComputeSignature(ts, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

func postWebhook(r *gin.Engine, payload []byte, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func succeededIntentPayload(intentID, schema string, tabID uuid.UUID, amount int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_%s",
		"object": "event",
		"api_version": "2025-07-30.basil",
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": "%s",
				"object": "payment_intent",
				"amount": %d,
				"currency": "usd",
				"status": "succeeded",
				"payment_method": "pm_card_visa",
				"metadata": {
					"tenantSchema": "%s",
					"userId": "user-1",
					"tabId": "%s"
				}
			}
		}
	}`, intentID, intentID, amount, schema, tabID))
}

func chargeRefundedPayload(chargeID, intentID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_%s",
		"object": "event",
		"api_version": "2025-07-30.basil",
		"type": "charge.refunded",
		"data": {
			"object": {
				"id": "%s",
				"object": "charge",
				"amount": 2500,
				"refunded": true,
				"payment_intent": "%s"
			}
		}
	}`, chargeID, chargeID, intentID))
}

func seedPaidTab(t *testing.T, db *gorm.DB, intentID string, amount int64) models.Tab {
	t.Helper()
	table := 7
	tab := models.Tab{TableNumber: &table, DeliveryType: models.DeliveryTypeDineIn, Status: models.TabStatusOpen}
	require.NoError(t, db.Create(&tab).Error)

	order := models.Order{TabID: tab.ID}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Create(&models.OrderItem{
		OrderID:     order.ID,
		ProductID:   uuid.New(),
		ProductName: "Carbonara",
		Quantity:    1,
		UnitPrice:   25.00,
		TotalPrice:  25.00,
	}).Error)

	require.NoError(t, db.Create(&models.StripePayment{
		PaymentIntentID: intentID,
		TabID:           &tab.ID,
		Amount:          amount,
		Currency:        "usd",
		Status:          models.PaymentStatusPending,
	}).Error)
	return tab
}

func TestStripeWebhookRequiresSignatureHeader(t *testing.T) {
	r := webhookRouter()
	w := postWebhook(r, []byte(`{"type":"payment_intent.succeeded"}`), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhookRequiresTenantMetadata(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	r := webhookRouter()

	payload := []byte(`{
		"id": "evt_no_tenant",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_no_tenant", "object": "payment_intent", "metadata": {}}}
	}`)
	w := postWebhook(r, payload, signPayload(payload, "whsec_sometestsecret1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	provisionTenant(t, "tenant_wh_badsig", "whsec_rightsecret01")
	r := webhookRouter()

	payload := succeededIntentPayload("pi_badsig", "tenant_wh_badsig", uuid.New(), 2500)
	w := postWebhook(r, payload, signPayload(payload, "whsec_wrongsecret01"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "signature")
}

func TestStripeWebhookIntentSucceededClosesTab(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	useSharedDB(t, "shared_wh_succeed")
	tdb := provisionTenant(t, "tenant_wh_succeed", "whsec_tenantsucceed1")
	tab := seedPaidTab(t, tdb, "pi_wh_succeed", 2500)
	r := webhookRouter()

	payload := succeededIntentPayload("pi_wh_succeed", "tenant_wh_succeed", tab.ID, 2500)
	w := postWebhook(r, payload, signPayload(payload, "whsec_tenantsucceed1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var record models.StripePayment
	require.NoError(t, tdb.First(&record, "payment_intent_id = ?", "pi_wh_succeed").Error)
	assert.Equal(t, models.PaymentStatusSucceeded, record.Status)
	assert.Equal(t, "pm_card_visa", record.PaymentMethod)
	assert.Equal(t, "pi_wh_succeed", record.GatewayResponse["id"])

	var closed models.Tab
	require.NoError(t, tdb.First(&closed, "id = ?", tab.ID).Error)
	assert.Equal(t, models.TabStatusClosed, closed.Status)

	var sales []models.Sale
	require.NoError(t, tdb.Find(&sales).Error)
	require.Len(t, sales, 1)
	assert.Equal(t, 25.00, sales[0].Total)
	assert.Equal(t, "card", sales[0].PaymentMethod)
}

func TestStripeWebhookRedeliveryIsNoOp(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	useSharedDB(t, "shared_wh_redeliver")
	tdb := provisionTenant(t, "tenant_wh_redeliver", "whsec_tenantredeliv1")
	tab := seedPaidTab(t, tdb, "pi_wh_redeliver", 2500)
	r := webhookRouter()

	payload := succeededIntentPayload("pi_wh_redeliver", "tenant_wh_redeliver", tab.ID, 2500)
	sig := signPayload(payload, "whsec_tenantredeliv1")

	require.Equal(t, http.StatusOK, postWebhook(r, payload, sig).Code)
	require.Equal(t, http.StatusOK, postWebhook(r, payload, sig).Code)

	var count int64
	require.NoError(t, tdb.Model(&models.Sale{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStripeWebhookChargeRefundedResolvesTenantByScan(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	shared := useSharedDB(t, "shared_wh_refund")

	tenants := map[string]*gorm.DB{}
	for i, schema := range []string{"tenant_wh_ref_a", "tenant_wh_ref_b", "tenant_wh_ref_c"} {
		tenants[schema] = provisionTenant(t, schema, fmt.Sprintf("whsec_refundtenant%d", i))
		require.NoError(t, shared.Create(&models.Company{
			Name:       schema,
			Slug:       schema,
			SchemaName: schema,
		}).Error)
	}

	// The intent lives in tenant B only; no shared index row exists, so the
	// handler has to fall back to scanning the registry.
	require.NoError(t, tenants["tenant_wh_ref_b"].Create(&models.StripePayment{
		PaymentIntentID: "pi_wh_refund_b",
		Amount:          2500,
		Currency:        "usd",
		Status:          models.PaymentStatusSucceeded,
	}).Error)

	r := webhookRouter()
	payload := chargeRefundedPayload("ch_wh_refund", "pi_wh_refund_b")
	w := postWebhook(r, payload, signPayload(payload, "whsec_refundtenant1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var record models.StripePayment
	require.NoError(t, tenants["tenant_wh_ref_b"].First(&record, "payment_intent_id = ?", "pi_wh_refund_b").Error)
	assert.Equal(t, models.PaymentStatusRefunded, record.Status)

	for _, schema := range []string{"tenant_wh_ref_a", "tenant_wh_ref_c"} {
		var count int64
		require.NoError(t, tenants[schema].Model(&models.StripePayment{}).Count(&count).Error)
		assert.Zero(t, count, schema)
	}
}

func TestStripeWebhookChargeRefundedUsesSharedIndex(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	shared := useSharedDB(t, "shared_wh_refidx")
	tdb := provisionTenant(t, "tenant_wh_refidx", "whsec_refidxsecret1")

	require.NoError(t, tdb.Create(&models.StripePayment{
		PaymentIntentID: "pi_wh_refidx",
		Amount:          1200,
		Currency:        "usd",
		Status:          models.PaymentStatusSucceeded,
	}).Error)
	require.NoError(t, shared.Create(&models.StripePaymentIndex{
		PaymentIntentID: "pi_wh_refidx",
		SchemaName:      "tenant_wh_refidx",
		CreatedAt:       time.Now(),
	}).Error)

	r := webhookRouter()
	payload := chargeRefundedPayload("ch_wh_refidx", "pi_wh_refidx")
	w := postWebhook(r, payload, signPayload(payload, "whsec_refidxsecret1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var record models.StripePayment
	require.NoError(t, tdb.First(&record, "payment_intent_id = ?", "pi_wh_refidx").Error)
	assert.Equal(t, models.PaymentStatusRefunded, record.Status)
}
