package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant registry row. It lives in the shared (public)
// schema; every tenant-scoped table lives in the schema SchemaName points at.
type Company struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Slug          string    `gorm:"uniqueIndex;not null" json:"slug"`
	SchemaName    string    `gorm:"uniqueIndex;not null" json:"schemaName"` // immutable once created
	StorageFolder string    `json:"storageFolder"`
	Plan          string    `gorm:"type:varchar(20);default:'basic'" json:"plan"`
	IsActive      bool      `gorm:"default:true" json:"isActive"`

	Users []User `gorm:"foreignKey:CompanyID" json:"-"`

	gorm.Model
}

func (co *Company) BeforeCreate(tx *gorm.DB) (err error) {
	co.ID = uuid.New()
	return
}
