package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techcreator/storefront/internal/repo"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.First(ctx, &order, "order not found", "id = ?", id); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByTransactionRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	if err := r.First(ctx, &order, "order not found", "transaction_ref = ?", ref); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, using (created_at, id) as the keyset.
func (r *repository) List(ctx context.Context, q ListQuery) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{})
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.ProjectID != nil {
		query = query.Where("project_id = ?", *q.ProjectID)
	}
	if email := strings.TrimSpace(q.Email); email != "" {
		query = query.Where("LOWER(customer_email) = ?", strings.ToLower(email))
	}
	if q.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", q.Cursor.CreatedAt.UTC(), q.Cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(q.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	res := r.DB(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteByID(ctx, &models.Order{}, id, "order not found")
}
