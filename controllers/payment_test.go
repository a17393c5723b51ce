package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paymentRouter(schema string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	withTenant := func(c *gin.Context) { c.Set("tenantSchema", schema) }
	r.POST("/payments/:id/refund", withTenant, RefundPayment)
	return r
}

func TestRefundPaymentBodyHandling(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	provisionTenant(t, "tenant_pay_refund", "")
	r := paymentRouter("tenant_pay_refund")

	// An empty body is a full refund: binding is skipped and the request
	// proceeds until the missing gateway credentials stop it.
	w := jsonPost(r, "/payments/pi_refund_empty/refund", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "no Stripe secret key configured")

	// A malformed body is rejected up front, even when the decoder's
	// message happens to mention EOF.
	w = jsonPost(r, "/payments/pi_refund_bad/refund", `{"amount": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid input")

	w = jsonPost(r, "/payments/pi_refund_bad/refund", `{"amount": "not-a-number"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
