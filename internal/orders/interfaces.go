package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
	"github.com/techcreator/storefront/pkg/pagination"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByTransactionRef(ctx context.Context, ref string) (*models.Order, error)
	List(ctx context.Context, q ListQuery) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListQuery is the repository form of a list request. Limit already includes
// the look-ahead row.
type ListQuery struct {
	Status    *enums.OrderStatus
	ProjectID *uuid.UUID
	Email     string
	Limit     int
	Cursor    *pagination.Cursor
}
