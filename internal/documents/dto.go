package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
)

type DocumentDTO struct {
	ID               uuid.UUID              `json:"id"`
	ProjectID        uuid.UUID              `json:"project_id"`
	Name             string                 `json:"name"`
	URL              string                 `json:"url"`
	Type             string                 `json:"type"`
	Size             int64                  `json:"size"`
	ReviewStage      enums.ReviewStage      `json:"review_stage"`
	ReviewStageLabel string                 `json:"review_stage_label"`
	DocumentCategory enums.DocumentCategory `json:"document_category"`
	Description      *string                `json:"description,omitempty"`
	StoragePath      *string                `json:"storage_path,omitempty"`
	IsActive         bool                   `json:"is_active"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func FromModel(d models.ProjectDocument) DocumentDTO {
	return DocumentDTO{
		ID:               d.ID,
		ProjectID:        d.ProjectID,
		Name:             d.Name,
		URL:              d.URL,
		Type:             d.Type,
		Size:             d.Size,
		ReviewStage:      d.ReviewStage,
		ReviewStageLabel: d.ReviewStage.Label(),
		DocumentCategory: d.DocumentCategory,
		Description:      d.Description,
		StoragePath:      d.StoragePath,
		IsActive:         d.IsActive,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
