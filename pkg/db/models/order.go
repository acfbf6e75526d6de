package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techcreator/storefront/pkg/enums"
)

// Order is written once per verified payment attempt. TransactionRef is
// unique so a retried insert cannot produce a second row.
type Order struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ProjectID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProjectTitle   string            `gorm:"type:text;not null"`
	CustomerName   string            `gorm:"type:text;not null"`
	CustomerEmail  string            `gorm:"type:text;not null"`
	CustomerPhone  string            `gorm:"type:text;not null;default:''"`
	Price          int               `gorm:"not null"`
	Status         enums.OrderStatus `gorm:"type:text;not null"`
	TransactionRef *string           `gorm:"type:text;uniqueIndex:orders_transaction_ref_key"`
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
