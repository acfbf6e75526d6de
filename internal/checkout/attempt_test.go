package checkout

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

func pendingAttempt(t *testing.T, countdown int) Attempt {
	t.Helper()
	a := newAttempt(1500, "store@upi", "Store", countdown)
	if err := a.begin(Links{TransactionRef: "TXN1", PaymentLink: "upi://pay?pa=store@upi"}, countdown, time.Now()); err != nil {
		t.Fatalf("begin: %v", err)
	}
	return a
}

func TestAttemptBeginRequiresIdle(t *testing.T) {
	a := pendingAttempt(t, 3)
	if a.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", a.Status)
	}
	err := a.begin(Links{TransactionRef: "TXN2"}, 3, time.Now())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if a.TransactionRef != "TXN1" {
		t.Fatalf("ref overwritten: %s", a.TransactionRef)
	}
}

func TestAttemptTickExpires(t *testing.T) {
	a := pendingAttempt(t, 2)
	if a.tick(time.Now()) {
		t.Fatalf("first tick should not expire")
	}
	if a.RemainingSeconds != 1 {
		t.Fatalf("expected 1 second left, got %d", a.RemainingSeconds)
	}
	if !a.tick(time.Now()) {
		t.Fatalf("second tick should expire")
	}
	if a.Status != enums.PaymentStatusFailed || a.FailureReason != enums.PaymentFailureTimeExpired {
		t.Fatalf("unexpected state %s/%s", a.Status, a.FailureReason)
	}
	if a.ResolvedAt == nil {
		t.Fatalf("expected resolved timestamp")
	}
	if a.tick(time.Now()) {
		t.Fatalf("ticks after failure must be ignored")
	}
}

func TestAttemptOutcomeBlocksTimeout(t *testing.T) {
	a := pendingAttempt(t, 1)
	if !a.recordOutcome(true, time.Now()) {
		t.Fatalf("expected outcome recorded")
	}
	if a.tick(time.Now()) {
		t.Fatalf("tick must not expire a verified attempt")
	}
	if a.Status != enums.PaymentStatusPending || !a.Verified() {
		t.Fatalf("expected verified pending attempt, got %s", a.Status)
	}
	if a.recordOutcome(false, time.Now()) {
		t.Fatalf("second outcome must be ignored")
	}
	id := uuid.New()
	if !a.complete(id, time.Now()) {
		t.Fatalf("expected completion")
	}
	if a.Status != enums.PaymentStatusSuccess || a.OrderID == nil || *a.OrderID != id {
		t.Fatalf("unexpected completion state %+v", a)
	}
}

func TestAttemptCompleteRequiresVerification(t *testing.T) {
	a := pendingAttempt(t, 5)
	if a.complete(uuid.New(), time.Now()) {
		t.Fatalf("complete must require a recorded outcome")
	}
	if a.markUnrecorded(time.Now()) {
		t.Fatalf("unrecorded must require a recorded outcome")
	}
}

func TestAttemptUnrecorded(t *testing.T) {
	a := pendingAttempt(t, 5)
	a.recordOutcome(true, time.Now())
	if !a.markUnrecorded(time.Now()) {
		t.Fatalf("expected unrecorded transition")
	}
	if a.Status != enums.PaymentStatusUnrecorded {
		t.Fatalf("expected unrecorded, got %s", a.Status)
	}
	if err := a.reset(5); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("unrecorded attempts cannot be retried, got %v", err)
	}
}

func TestAttemptVerificationFailure(t *testing.T) {
	a := pendingAttempt(t, 5)
	if !a.recordOutcome(false, time.Now()) {
		t.Fatalf("expected failure recorded")
	}
	if a.FailureReason != enums.PaymentFailureVerificationFailed {
		t.Fatalf("unexpected reason %s", a.FailureReason)
	}
}

func TestAttemptResetClearsAttempt(t *testing.T) {
	a := pendingAttempt(t, 1)
	a.tick(time.Now())

	if err := a.reset(9); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if a.Status != enums.PaymentStatusIdle {
		t.Fatalf("expected idle, got %s", a.Status)
	}
	if a.TransactionRef != "" || a.PaymentLink != "" || a.FailureReason != "" {
		t.Fatalf("reset left stale fields: %+v", a)
	}
	if a.RemainingSeconds != 9 || a.Amount != 1500 {
		t.Fatalf("unexpected reset state %+v", a)
	}
}

func TestAttemptResetRequiresFailed(t *testing.T) {
	a := newAttempt(100, "store@upi", "Store", 5)
	if err := a.reset(5); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
