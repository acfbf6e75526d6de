package inquiries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techcreator/storefront/internal/repo"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/pagination"
)

// Repository persists contact-form submissions.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, inquiry *models.Inquiry) (*models.Inquiry, error) {
	if err := r.DB(ctx).Create(inquiry).Error; err != nil {
		return nil, err
	}
	return inquiry, nil
}

// List returns inquiries newest first. limit includes the look-ahead row.
func (r *Repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Inquiry, error) {
	query := r.DB(ctx).Model(&models.Inquiry{})
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt.UTC(), cursor.ID)
	}
	var rows []models.Inquiry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteByID(ctx, &models.Inquiry{}, id, "inquiry not found")
}
