package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inquiry is a contact-form submission.
type Inquiry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientName  string    `gorm:"type:text;not null"`
	Email       string    `gorm:"type:text;not null"`
	ProjectType string    `gorm:"type:text;not null"`
	Budget      string    `gorm:"type:text;not null;default:''"`
	Message     string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (i *Inquiry) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
