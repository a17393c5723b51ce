package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSchemaName(t *testing.T) {
	valid := []string{"tenant_bistro", "t1", "a", "tenant_caf_roma_2"}
	for _, name := range valid {
		assert.True(t, ValidateSchemaName(name), name)
	}

	invalid := []string{
		"",
		"Tenant_Bistro",
		"1tenant",
		"tenant-bistro",
		`tenant"; DROP SCHEMA public CASCADE; --`,
		"tenant bistro",
		"tenant.bistro",
		strings.Repeat("a", 64),
	}
	for _, name := range invalid {
		assert.False(t, ValidateSchemaName(name), name)
	}
}

func TestValidateSecretKeyModeConsistency(t *testing.T) {
	assert.True(t, ValidateSecretKey("sk_test_abcdefgh123", true))
	assert.True(t, ValidateSecretKey("sk_live_abcdefgh123", false))

	// Key prefix must match the configured mode
	assert.False(t, ValidateSecretKey("sk_live_abcdefgh123", true))
	assert.False(t, ValidateSecretKey("sk_test_abcdefgh123", false))

	assert.False(t, ValidateSecretKey("pk_test_abcdefgh123", true))
	assert.False(t, ValidateSecretKey("sk_test_", true))
	assert.False(t, ValidateSecretKey("", true))
}

func TestValidatePublishableKeyModeConsistency(t *testing.T) {
	assert.True(t, ValidatePublishableKey("pk_test_abcdefgh123", true))
	assert.True(t, ValidatePublishableKey("pk_live_abcdefgh123", false))
	assert.False(t, ValidatePublishableKey("pk_live_abcdefgh123", true))
	assert.False(t, ValidatePublishableKey("sk_test_abcdefgh123", true))
}

func TestValidateWebhookSecret(t *testing.T) {
	assert.True(t, ValidateWebhookSecret("whsec_abcdefgh123"))
	assert.False(t, ValidateWebhookSecret("abcdefgh123"))
	assert.False(t, ValidateWebhookSecret("whsec_"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "la_piazza", Slugify("La Piazza"))
	assert.Equal(t, "caf_42", Slugify("  Café @ 42!  "))
	assert.Equal(t, "bistro", Slugify("Bistro"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestGenerateRandomString(t *testing.T) {
	a := GenerateRandomString(6)
	b := GenerateRandomString(6)
	assert.Len(t, a, 6)
	assert.Len(t, b, 6)
	assert.NotEqual(t, a, b)
}
