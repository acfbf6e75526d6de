package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techcreator/storefront/internal/repo"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
)

// ListQuery narrows a project's document listing.
type ListQuery struct {
	ProjectID       uuid.UUID
	Stage           *enums.ReviewStage
	IncludeInactive bool
}

// Repository persists project documents.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListActiveByProject returns active documents by stage then name.
func (r *Repository) ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectDocument, error) {
	return r.List(ctx, ListQuery{ProjectID: projectID})
}

func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.ProjectDocument, error) {
	query := r.DB(ctx).Where("project_id = ?", q.ProjectID)
	if !q.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if q.Stage != nil {
		query = query.Where("review_stage = ?", *q.Stage)
	}
	var docs []models.ProjectDocument
	if err := query.Order("review_stage ASC, name ASC, id ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProjectDocument, error) {
	var doc models.ProjectDocument
	if err := r.First(ctx, &doc, "document not found", "id = ?", id); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) Create(ctx context.Context, doc *models.ProjectDocument) (*models.ProjectDocument, error) {
	if err := r.DB(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Repository) Update(ctx context.Context, doc *models.ProjectDocument) (*models.ProjectDocument, error) {
	if err := r.DB(ctx).Save(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteByID(ctx, &models.ProjectDocument{}, id, "document not found")
}
