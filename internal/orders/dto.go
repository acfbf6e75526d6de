package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/internal/payments/upi"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
)

// ListParams are the admin list inputs.
type ListParams struct {
	Status    *enums.OrderStatus
	ProjectID *uuid.UUID
	Email     string
	Limit     int
	Cursor    string
}

// OrderDTO exposes an order to the back office.
type OrderDTO struct {
	ID             uuid.UUID         `json:"id"`
	ProjectID      uuid.UUID         `json:"project_id"`
	ProjectTitle   string            `json:"project_title"`
	CustomerName   string            `json:"customer_name"`
	CustomerEmail  string            `json:"customer_email"`
	CustomerPhone  string            `json:"customer_phone"`
	Price          int               `json:"price"`
	PriceDisplay   string            `json:"price_display"`
	Status         enums.OrderStatus `json:"status"`
	TransactionRef *string           `json:"transaction_ref,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// DeliveryResult reports a manual document resend.
type DeliveryResult struct {
	OrderID   uuid.UUID `json:"order_id"`
	Documents int       `json:"documents"`
	Sent      bool      `json:"sent"`
}

func FromModel(o models.Order) OrderDTO {
	return OrderDTO{
		ID:             o.ID,
		ProjectID:      o.ProjectID,
		ProjectTitle:   o.ProjectTitle,
		CustomerName:   o.CustomerName,
		CustomerEmail:  o.CustomerEmail,
		CustomerPhone:  o.CustomerPhone,
		Price:          o.Price,
		PriceDisplay:   upi.FormatAmount(o.Price),
		Status:         o.Status,
		TransactionRef: o.TransactionRef,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
