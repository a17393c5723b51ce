// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var (
	schemaNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)
	secretKeyRegex  = regexp.MustCompile(`^sk_(test_|live_)[0-9a-zA-Z]{8,}$`)
	publishKeyRegex = regexp.MustCompile(`^pk_(test_|live_)[0-9a-zA-Z]{8,}$`)
	webhookKeyRegex = regexp.MustCompile(`^whsec_[0-9a-zA-Z]{8,}$`)
)

// ValidateSchemaName allow-lists tenant schema names before they are ever
// used in SQL. Schema names are embedded into DDL statements as identifiers,
// so anything outside [a-z0-9_] must be rejected outright.
func ValidateSchemaName(name string) bool {
	return schemaNameRegex.MatchString(name)
}

// ValidateSecretKey checks the Stripe secret key format and that its
// test/live prefix matches the configured mode.
func ValidateSecretKey(key string, testMode bool) bool {
	if !secretKeyRegex.MatchString(key) {
		return false
	}
	if testMode {
		return strings.HasPrefix(key, "sk_test_")
	}
	return strings.HasPrefix(key, "sk_live_")
}

// ValidatePublishableKey checks the Stripe publishable key format and mode
// consistency.
func ValidatePublishableKey(key string, testMode bool) bool {
	if !publishKeyRegex.MatchString(key) {
		return false
	}
	if testMode {
		return strings.HasPrefix(key, "pk_test_")
	}
	return strings.HasPrefix(key, "pk_live_")
}

// ValidateWebhookSecret checks the webhook signing secret format.
func ValidateWebhookSecret(key string) bool {
	return webhookKeyRegex.MatchString(key)
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	// Clean the phone number
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	// Regular expression for international phone numbers
	// Allows + prefix followed by 7-15 digits
	regex := `^\+?[1-9]\d{1,14}$`
	match, _ := regexp.MatchString(regex, cleaned)
	return match
}

// Slugify lowercases a name and collapses everything outside [a-z0-9] into
// underscores, producing a string safe for schema names and storage folders.
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
