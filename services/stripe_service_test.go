package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"restropos-backend/config"
	"restropos-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubGateway stands in for the Stripe API: it captures the authorization
// header and the form-encoded params, and answers payment-intent creation
// with an intent echoing the submitted metadata.
func stubGateway(t *testing.T) (*httptest.Server, *http.Header, *url.Values) {
	t.Helper()
	var header http.Header
	var form url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		require.NoError(t, r.ParseForm())
		form = r.PostForm

		metadata := map[string]string{}
		for key, vals := range r.PostForm {
			if strings.HasPrefix(key, "metadata[") && strings.HasSuffix(key, "]") {
				metadata[key[len("metadata["):len(key)-1]] = vals[0]
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "pi_stub_create",
			"object":        "payment_intent",
			"amount":        5000,
			"currency":      r.PostForm.Get("currency"),
			"status":        "requires_payment_method",
			"client_secret": "pi_stub_create_secret",
			"metadata":      metadata,
		})
	}))
	t.Cleanup(server.Close)

	prev := stripe.GetBackend(stripe.APIBackend)
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(server.URL),
	}))
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, prev) })

	return server, &header, &form
}

func useSharedIndexDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StripePaymentIndex{}))
	prev := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = prev })
	return db
}

func TestConvertStatusCoversEveryGatewayStatus(t *testing.T) {
	cases := map[stripe.PaymentIntentStatus]string{
		stripe.PaymentIntentStatusSucceeded:             models.PaymentStatusSucceeded,
		stripe.PaymentIntentStatusCanceled:              models.PaymentStatusCanceled,
		stripe.PaymentIntentStatusProcessing:            models.PaymentStatusPending,
		stripe.PaymentIntentStatusRequiresPaymentMethod: models.PaymentStatusPending,
		stripe.PaymentIntentStatusRequiresConfirmation:  models.PaymentStatusPending,
		stripe.PaymentIntentStatusRequiresAction:        models.PaymentStatusPending,
		stripe.PaymentIntentStatusRequiresCapture:       models.PaymentStatusFailed,
	}
	for in, want := range cases {
		assert.Equal(t, want, ConvertStatus(in), string(in))
	}

	// Statuses the gateway has not invented yet still map somewhere.
	assert.Equal(t, models.PaymentStatusFailed, ConvertStatus("some_future_status"))
}

func TestCreateIntentEmbedsTenantMetadataAndPersists(t *testing.T) {
	shared := useSharedIndexDB(t, "shared_intent_create")
	tdb := newTenantDB(t, "tenant_intent_create")
	require.NoError(t, tdb.Create(&models.PaymentSetting{
		ID:        models.PaymentSettingID,
		SecretKey: "sk_test_intentcreate1",
		TestMode:  true,
		IsActive:  true,
	}).Error)

	_, header, form := stubGateway(t)

	tabID := uuid.New()
	pi, err := CreateIntent("tenant_intent_create", "user-42", CreateIntentInput{
		Amount:      5000,
		Description: "Table 7 check",
		TabID:       &tabID,
		Metadata:    map[string]string{"terminal": "front-desk"},
	})
	require.NoError(t, err)

	// The tenant's own key reached the gateway and the default currency
	// filled in.
	assert.Equal(t, "Bearer sk_test_intentcreate1", header.Get("Authorization"))
	assert.Equal(t, "usd", form.Get("currency"))

	// Every intent carries the owning tenant and caller; that metadata is
	// the only way the webhook handler can route the event later.
	assert.Equal(t, "tenant_intent_create", pi.Metadata["tenantSchema"])
	assert.Equal(t, "user-42", pi.Metadata["userId"])
	assert.Equal(t, tabID.String(), pi.Metadata["tabId"])
	assert.Equal(t, "front-desk", pi.Metadata["terminal"])
	assert.Equal(t, "pi_stub_create_secret", pi.ClientSecret)

	var record models.StripePayment
	require.NoError(t, tdb.First(&record, "payment_intent_id = ?", "pi_stub_create").Error)
	assert.Equal(t, models.PaymentStatusPending, record.Status)
	assert.Equal(t, int64(5000), record.Amount)
	assert.Equal(t, "usd", record.Currency)
	require.NotNil(t, record.TabID)
	assert.Equal(t, tabID, *record.TabID)
	assert.Equal(t, "tenant_intent_create", record.Metadata["tenantSchema"])

	var index models.StripePaymentIndex
	require.NoError(t, shared.First(&index, "payment_intent_id = ?", "pi_stub_create").Error)
	assert.Equal(t, "tenant_intent_create", index.SchemaName)
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	_, err := CreateIntent("tenant_amounts", "user-1", CreateIntentInput{Amount: 0})
	assert.Error(t, err)
	_, err = CreateIntent("tenant_amounts", "user-1", CreateIntentInput{Amount: -500})
	assert.Error(t, err)
}

func TestGetStripeConfigEnvFallback(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_envfallback01")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_envfallback01")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_envfallback01")
	t.Setenv("STRIPE_CURRENCY", "")

	// No settings row at all: environment credentials apply.
	newTenantDB(t, "tenant_cfg_empty")
	cfg := GetStripeConfig("tenant_cfg_empty")
	assert.Equal(t, "sk_test_envfallback01", cfg.SecretKey)
	assert.Equal(t, "whsec_envfallback01", cfg.WebhookSecret)
	assert.Equal(t, "usd", cfg.Currency)
}

func TestGetStripeConfigPrefersActiveTenantRow(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_envfallback02")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_envfallback02")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_envfallback02")

	db := newTenantDB(t, "tenant_cfg_row")
	require.NoError(t, db.Create(&models.PaymentSetting{
		ID:             models.PaymentSettingID,
		SecretKey:      "sk_test_tenantrow01",
		PublishableKey: "pk_test_tenantrow01",
		WebhookSecret:  "whsec_tenantrow01",
		TestMode:       true,
		IsActive:       true,
	}).Error)

	cfg := GetStripeConfig("tenant_cfg_row")
	assert.Equal(t, "sk_test_tenantrow01", cfg.SecretKey)
	assert.Equal(t, "pk_test_tenantrow01", cfg.PublishableKey)
	assert.Equal(t, "whsec_tenantrow01", cfg.WebhookSecret)
}

func TestGetStripeConfigIgnoresInactiveRow(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_envfallback03")

	db := newTenantDB(t, "tenant_cfg_inactive")
	require.NoError(t, db.Create(&models.PaymentSetting{
		ID:        models.PaymentSettingID,
		SecretKey: "sk_test_disabledrow1",
	}).Error)
	require.NoError(t, db.Model(&models.PaymentSetting{}).
		Where("id = ?", models.PaymentSettingID).
		Update("is_active", false).Error)

	cfg := GetStripeConfig("tenant_cfg_inactive")
	assert.Equal(t, "sk_test_envfallback03", cfg.SecretKey)
}
