package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

// Attempt is one payment attempt. It only changes through the methods below,
// which enforce the transition table:
//
//	idle -> pending -> success | failed | unrecorded
//	failed -> idle (retry)
type Attempt struct {
	TransactionRef   string                     `json:"transaction_ref,omitempty"`
	Amount           int                        `json:"amount"`
	PayeeVPA         string                     `json:"payee_vpa"`
	PayeeName        string                     `json:"payee_name"`
	Status           enums.PaymentStatus        `json:"status"`
	RemainingSeconds int                        `json:"remaining_seconds"`
	PaymentLink      string                     `json:"payment_link,omitempty"`
	QRCodeURL        string                     `json:"qr_code_url,omitempty"`
	HandoffURL       string                     `json:"handoff_url,omitempty"`
	FailureReason    enums.PaymentFailureReason `json:"failure_reason,omitempty"`
	OrderID          *uuid.UUID                 `json:"order_id,omitempty"`
	StartedAt        *time.Time                 `json:"started_at,omitempty"`
	ResolvedAt       *time.Time                 `json:"resolved_at,omitempty"`

	// set once a success outcome is recorded and the order is being written
	verified bool
}

// Links are the artifacts built when an attempt enters pending.
type Links struct {
	TransactionRef string
	PaymentLink    string
	QRCodeURL      string
	HandoffURL     string
}

func newAttempt(amount int, payeeVPA, payeeName string, countdown int) Attempt {
	return Attempt{
		Amount:           amount,
		PayeeVPA:         payeeVPA,
		PayeeName:        payeeName,
		Status:           enums.PaymentStatusIdle,
		RemainingSeconds: countdown,
	}
}

func transitionError(from enums.PaymentStatus, action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s a %s payment", action, from)).
		WithDetails(map[string]any{"status": from})
}

// Verified reports whether a success outcome was recorded while the order is
// still being persisted.
func (a *Attempt) Verified() bool {
	return a.verified
}

func (a *Attempt) begin(links Links, countdown int, now time.Time) error {
	if a.Status != enums.PaymentStatusIdle {
		return transitionError(a.Status, "submit")
	}
	a.TransactionRef = links.TransactionRef
	a.PaymentLink = links.PaymentLink
	a.QRCodeURL = links.QRCodeURL
	a.HandoffURL = links.HandoffURL
	a.RemainingSeconds = countdown
	a.Status = enums.PaymentStatusPending
	a.FailureReason = ""
	a.StartedAt = &now
	return nil
}

// tick decrements the countdown. It returns true when the tick expired the
// attempt. Ticks are ignored once an outcome has been recorded.
func (a *Attempt) tick(now time.Time) bool {
	if a.Status != enums.PaymentStatusPending || a.verified {
		return false
	}
	if a.RemainingSeconds > 0 {
		a.RemainingSeconds--
	}
	if a.RemainingSeconds == 0 {
		a.fail(enums.PaymentFailureTimeExpired, now)
		return true
	}
	return false
}

// recordOutcome applies a verification result. It returns false when the
// attempt already left pending or already holds an outcome.
func (a *Attempt) recordOutcome(success bool, now time.Time) bool {
	if a.Status != enums.PaymentStatusPending || a.verified {
		return false
	}
	if !success {
		a.fail(enums.PaymentFailureVerificationFailed, now)
		return true
	}
	a.verified = true
	return true
}

func (a *Attempt) complete(orderID uuid.UUID, now time.Time) bool {
	if a.Status != enums.PaymentStatusPending || !a.verified {
		return false
	}
	a.OrderID = &orderID
	a.Status = enums.PaymentStatusSuccess
	a.ResolvedAt = &now
	return true
}

func (a *Attempt) markUnrecorded(now time.Time) bool {
	if a.Status != enums.PaymentStatusPending || !a.verified {
		return false
	}
	a.Status = enums.PaymentStatusUnrecorded
	a.ResolvedAt = &now
	return true
}

func (a *Attempt) fail(reason enums.PaymentFailureReason, now time.Time) {
	a.Status = enums.PaymentStatusFailed
	a.FailureReason = reason
	a.ResolvedAt = &now
}

// reset returns a failed attempt to idle with a fresh countdown. The previous
// reference and link are discarded.
func (a *Attempt) reset(countdown int) error {
	if a.Status != enums.PaymentStatusFailed {
		return transitionError(a.Status, "retry")
	}
	*a = newAttempt(a.Amount, a.PayeeVPA, a.PayeeName, countdown)
	return nil
}
