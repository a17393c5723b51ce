package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sale is an immutable snapshot created once at tab-close time. It is never
// updated afterwards.
type Sale struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	SaleNumber string    `gorm:"uniqueIndex;not null"`
	TabID      uuid.UUID `gorm:"type:uuid;index;not null"`

	Subtotal float64 `gorm:"type:decimal(10,2);not null"`
	Discount float64 `gorm:"type:decimal(10,2);default:0.0"`
	Tip      float64 `gorm:"type:decimal(10,2);default:0.0"`
	Tax      float64 `gorm:"type:decimal(10,2);default:0.0"`
	Total    float64 `gorm:"type:decimal(10,2);not null"`

	PaymentMethod string     `gorm:"type:varchar(20);not null"`
	Items         JSONBArray `gorm:"type:jsonb"`
	ClosedAt      time.Time

	CreatedAt time.Time
}

func (s *Sale) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

type Expense struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Description string    `gorm:"not null"`
	Category    string    `gorm:"type:varchar(50);default:'General'"`
	Amount      float64   `gorm:"type:decimal(10,2);not null"`
	ExpenseDate time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	Notes       string

	gorm.Model
}

func (e *Expense) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
