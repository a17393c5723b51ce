package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TabStatusOpen   = "open"
	TabStatusClosed = "closed"
)

const (
	DeliveryTypeDineIn   = "dine_in"
	DeliveryTypeTakeaway = "takeaway"
	DeliveryTypeDelivery = "delivery"
)

// Tab is an open check. Orders attach to it; closing it is terminal and
// produces exactly one Sale.
type Tab struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TableNumber   *int      `gorm:"index"`
	CustomerPhone string
	DeliveryType  string  `gorm:"type:varchar(20);not null;default:'dine_in'"`
	Status        string  `gorm:"type:varchar(10);not null;default:'open';index"`
	Total         float64 `gorm:"type:decimal(10,2);default:0.0"`
	ClosedAt      *time.Time

	Orders []Order `gorm:"foreignKey:TabID"`

	gorm.Model
}

func (t *Tab) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

type Order struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	TabID uuid.UUID `gorm:"type:uuid;index;not null"`
	Notes string

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	gorm.Model
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}

type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductName string    `gorm:"not null"`
	Quantity    int       `gorm:"default:1"`
	UnitPrice   float64   `gorm:"type:decimal(10,2);not null"`
	TotalPrice  float64   `gorm:"type:decimal(10,2);not null"`
}

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) (err error) {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return
}
