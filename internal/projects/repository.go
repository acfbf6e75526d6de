package projects

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techcreator/storefront/internal/repo"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
)

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Category     string
	FeaturedOnly bool
	Query        string
}

// Repository persists catalog projects.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByID loads a project or returns NOT_FOUND.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.First(ctx, &project, "project not found", "id = ?", id); err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns featured projects first, newest first within each group.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Project, error) {
	query := r.DB(ctx).Model(&models.Project{})
	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(c))
	}
	if filter.FeaturedOnly {
		query = query.Where("featured = ?", true)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var projects []models.Project
	if err := query.Order("featured DESC, created_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *Repository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.DB(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (r *Repository) Update(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.DB(ctx).Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project and its documents.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DB(ctx).Where("project_id = ?", id).Delete(&models.ProjectDocument{}).Error; err != nil {
		return err
	}
	return r.DeleteByID(ctx, &models.Project{}, id, "project not found")
}

type stageCount struct {
	ReviewStage enums.ReviewStage
	Total       int
}

// DocumentCounts returns the number of active documents per review stage.
func (r *Repository) DocumentCounts(ctx context.Context, projectID uuid.UUID) (map[enums.ReviewStage]int, error) {
	var rows []stageCount
	err := r.DB(ctx).
		Model(&models.ProjectDocument{}).
		Select("review_stage, COUNT(*) AS total").
		Where("project_id = ? AND is_active = ?", projectID, true).
		Group("review_stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.ReviewStage]int, len(enums.ReviewStages))
	for _, stage := range enums.ReviewStages {
		counts[stage] = 0
	}
	for _, row := range rows {
		counts[row.ReviewStage] = row.Total
	}
	return counts, nil
}
