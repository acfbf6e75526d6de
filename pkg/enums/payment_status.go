package enums

import "fmt"

// PaymentStatus is the lifecycle of a single UPI payment attempt.
type PaymentStatus string

const (
	PaymentStatusIdle    PaymentStatus = "idle"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	// PaymentStatusUnrecorded marks a verified payment whose order could not
	// be persisted. It needs manual reconciliation.
	PaymentStatusUnrecorded PaymentStatus = "unrecorded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusIdle,
	PaymentStatusPending,
	PaymentStatusSuccess,
	PaymentStatusFailed,
	PaymentStatusUnrecorded,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further automatic transition can happen.
func (p PaymentStatus) IsTerminal() bool {
	switch p {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusUnrecorded:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// PaymentFailureReason distinguishes why an attempt ended in failed.
type PaymentFailureReason string

const (
	PaymentFailureTimeExpired        PaymentFailureReason = "time_expired"
	PaymentFailureVerificationFailed PaymentFailureReason = "verification_failed"
	PaymentFailureInitiationFailed   PaymentFailureReason = "initiation_failed"
)

// PaymentMethod is the checkout payment option picked by the customer.
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)
