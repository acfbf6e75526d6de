package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techcreator/storefront/pkg/enums"
)

// ProjectDocument is a deliverable attached to a project. Inactive documents
// are hidden from buyers and never emailed.
type ProjectDocument struct {
	ID               uuid.UUID              `gorm:"type:uuid;primaryKey"`
	ProjectID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	Name             string                 `gorm:"type:text;not null"`
	URL              string                 `gorm:"column:url;type:text;not null"`
	Type             string                 `gorm:"type:text;not null"`
	Size             int64                  `gorm:"not null;default:0"`
	ReviewStage      enums.ReviewStage      `gorm:"type:text;not null"`
	DocumentCategory enums.DocumentCategory `gorm:"type:text;not null"`
	Description      *string                `gorm:"type:text"`
	StoragePath      *string                `gorm:"type:text"`
	IsActive         bool                   `gorm:"not null"`
	CreatedAt        time.Time              `gorm:"autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"autoUpdateTime"`
}

func (d *ProjectDocument) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
