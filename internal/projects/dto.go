package projects

import (
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/internal/payments/upi"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
)

// ProjectDTO is the catalog entry returned to clients.
type ProjectDTO struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Price            int       `json:"price"`
	PriceDisplay     string    `json:"price_display"`
	Image            string    `json:"image"`
	Features         []string  `json:"features"`
	TechnicalDetails *string   `json:"technical_details,omitempty"`
	Featured         bool      `json:"featured"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StageSummary counts the active documents of one review stage.
type StageSummary struct {
	Stage     enums.ReviewStage `json:"stage"`
	Label     string            `json:"label"`
	Documents int               `json:"documents"`
}

// ProjectDetailDTO adds the document inventory to a project.
type ProjectDetailDTO struct {
	ProjectDTO
	Stages         []StageSummary `json:"stages"`
	TotalDocuments int            `json:"total_documents"`
}

// FromModel maps a project row to its DTO.
func FromModel(p models.Project) ProjectDTO {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return ProjectDTO{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		Category:         p.Category,
		Price:            p.Price,
		PriceDisplay:     upi.FormatAmount(p.Price),
		Image:            p.Image,
		Features:         features,
		TechnicalDetails: p.TechnicalDetails,
		Featured:         p.Featured,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func detailFromModel(p models.Project, counts map[enums.ReviewStage]int) ProjectDetailDTO {
	detail := ProjectDetailDTO{ProjectDTO: FromModel(p), Stages: make([]StageSummary, 0, len(enums.ReviewStages))}
	for _, stage := range enums.ReviewStages {
		n := counts[stage]
		detail.Stages = append(detail.Stages, StageSummary{Stage: stage, Label: stage.Label(), Documents: n})
		detail.TotalDocuments += n
	}
	return detail
}
