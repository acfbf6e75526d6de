package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a purchasable template listed in the catalog. Price is whole
// rupees.
type Project struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title            string    `gorm:"type:text;not null"`
	Description      string    `gorm:"type:text;not null;default:''"`
	Category         string    `gorm:"type:text;not null"`
	Price            int       `gorm:"not null"`
	Image            string    `gorm:"type:text;not null;default:''"`
	Features         []string  `gorm:"type:jsonb;serializer:json;not null"`
	TechnicalDetails *string   `gorm:"type:text"`
	Featured         bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return nil
}
