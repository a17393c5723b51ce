package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentSettingID is the fixed id of the single per-tenant settings row.
const PaymentSettingID = "default"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusCanceled  = "canceled"
	PaymentStatusRefunded  = "refunded"
)

// PaymentSetting holds a tenant's gateway credentials. "Deletion" only flips
// IsActive; secrets are retained.
type PaymentSetting struct {
	ID             string `gorm:"primary_key;type:varchar(20)" json:"id"`
	Provider       string `gorm:"type:varchar(20);default:'stripe'" json:"provider"`
	SecretKey      string `json:"-"`
	PublishableKey string `json:"publishableKey"`
	WebhookSecret  string `json:"-"`
	TestMode       bool   `gorm:"default:true" json:"testMode"`
	IsActive       bool   `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StripePayment is the local record of a gateway payment intent. Created when
// an intent is created; mutated only by the webhook handler or by direct
// confirm/cancel/refund calls; never deleted.
type StripePayment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	PaymentIntentID string     `gorm:"uniqueIndex;not null"`
	TabID           *uuid.UUID `gorm:"type:uuid;index"`
	Amount          int64      `gorm:"not null"` // minor units
	Currency        string     `gorm:"type:varchar(3);not null"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentMethod   string
	Metadata        JSONB `gorm:"type:jsonb"`
	GatewayResponse JSONB `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (sp *StripePayment) BeforeCreate(tx *gorm.DB) (err error) {
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	return
}

// StripePaymentIndex lives in the shared schema and maps a payment intent to
// the owning tenant schema, so refund events resolve the tenant without
// scanning every schema. Populated at intent-creation time.
type StripePaymentIndex struct {
	PaymentIntentID string    `gorm:"primary_key"`
	SchemaName      string    `gorm:"index;not null"`
	CreatedAt       time.Time
}

func (StripePaymentIndex) TableName() string {
	return "stripe_payment_index"
}
