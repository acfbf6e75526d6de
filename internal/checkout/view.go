package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/internal/payments/upi"
	"github.com/techcreator/storefront/pkg/enums"
)

// View is the client-facing snapshot of a checkout session.
type View struct {
	ID               uuid.UUID                  `json:"id"`
	Project          ProjectSnapshot            `json:"project"`
	Amount           int                        `json:"amount"`
	AmountDisplay    string                     `json:"amount_display"`
	Status           enums.PaymentStatus        `json:"status"`
	RemainingSeconds int                        `json:"remaining_seconds"`
	Countdown        string                     `json:"countdown"`
	TransactionRef   string                     `json:"transaction_ref,omitempty"`
	PaymentLink      string                     `json:"payment_link,omitempty"`
	QRCodeURL        string                     `json:"qr_code_url,omitempty"`
	HandoffURL       string                     `json:"handoff_url,omitempty"`
	FailureReason    enums.PaymentFailureReason `json:"failure_reason,omitempty"`
	OrderID          *uuid.UUID                 `json:"order_id,omitempty"`
	Verifying        bool                       `json:"verifying"`
	Attempts         int                        `json:"attempts"`
	Customer         *Form                      `json:"customer,omitempty"`
	StartedAt        *time.Time                 `json:"started_at,omitempty"`
	ResolvedAt       *time.Time                 `json:"resolved_at,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

func (s *session) view() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *session) viewLocked() *View {
	a := s.attempt
	v := &View{
		ID:               s.id,
		Project:          s.project,
		Amount:           a.Amount,
		AmountDisplay:    upi.FormatAmount(a.Amount),
		Status:           a.Status,
		RemainingSeconds: a.RemainingSeconds,
		Countdown:        upi.FormatCountdown(a.RemainingSeconds),
		TransactionRef:   a.TransactionRef,
		PaymentLink:      a.PaymentLink,
		QRCodeURL:        a.QRCodeURL,
		HandoffURL:       a.HandoffURL,
		FailureReason:    a.FailureReason,
		OrderID:          a.OrderID,
		Verifying:        a.Verified(),
		Attempts:         s.attempts,
		StartedAt:        a.StartedAt,
		ResolvedAt:       a.ResolvedAt,
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
	if s.form != nil {
		f := *s.form
		v.Customer = &f
	}
	return v
}
