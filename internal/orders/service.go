package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/db"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/pagination"
)

const transactionRefConstraint = "orders_transaction_ref_key"

// DocumentDeliverer re-sends the document email for an existing order.
type DocumentDeliverer interface {
	DeliverDocuments(ctx context.Context, order *models.Order) (int, error)
}

// Service defines order operations for checkout and the back office.
type Service interface {
	CreateForPayment(ctx context.Context, order *models.Order) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params ListParams) (*OrderList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ResendDocuments(ctx context.Context, id uuid.UUID, deliverer DocumentDeliverer) (*DeliveryResult, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// CreateForPayment inserts the order for a verified payment. A second call
// with the same transaction ref returns the stored order instead of a new row.
func (s *service) CreateForPayment(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if order.TransactionRef == nil || strings.TrimSpace(*order.TransactionRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction ref required")
	}
	if order.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	if order.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusCompleted
	}
	if !order.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	created, err := s.repo.Create(ctx, order)
	if err == nil {
		return created, nil
	}
	if !db.IsUniqueViolation(err, transactionRefConstraint) && !db.IsUniqueViolation(err, "transaction_ref") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	existing, findErr := s.repo.FindByTransactionRef(ctx, *order.TransactionRef)
	if findErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load existing order")
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"order_id":        existing.ID.String(),
		"transaction_ref": *order.TransactionRef,
	}), "order already recorded for transaction ref")
	return existing, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*OrderList, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	query := ListQuery{
		Status:    params.Status,
		ProjectID: params.ProjectID,
		Email:     params.Email,
		Limit:     pagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	rows, nextCursor := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	out := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: nextCursor}
	for _, row := range rows {
		out.Orders = append(out.Orders, FromModel(row))
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_id": id.String(), "status": status}), "order status updated")
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

// ResendDocuments emails the project documents for an order again. Unlike the
// post-purchase send, delivery failures are returned to the caller.
func (s *service) ResendDocuments(ctx context.Context, id uuid.UUID, deliverer DocumentDeliverer) (*DeliveryResult, error) {
	if deliverer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "document deliverer not configured")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := deliverer.DeliverDocuments(ctx, order)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver documents")
	}
	return &DeliveryResult{OrderID: order.ID, Documents: n, Sent: n > 0}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
