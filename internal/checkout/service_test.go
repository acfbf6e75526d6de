package checkout

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
)

type stubCatalog struct {
	projects map[uuid.UUID]*models.Project
}

func (s stubCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	return p, nil
}

type stubFulfiller struct {
	mu        sync.Mutex
	recordErr error
	purchases []Purchase
	notified  []uuid.UUID
}

func (f *stubFulfiller) Record(_ context.Context, p Purchase) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchases = append(f.purchases, p)
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	ref := p.TransactionRef
	return &models.Order{ID: uuid.New(), ProjectID: p.ProjectID, TransactionRef: &ref, CreatedAt: time.Now()}, nil
}

func (f *stubFulfiller) Notify(_ context.Context, order *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, order.ID)
}

func (f *stubFulfiller) DeliverDocuments(context.Context, *models.Order) (int, error) {
	return 0, nil
}

func (f *stubFulfiller) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.purchases), len(f.notified)
}

type harness struct {
	svc       Service
	fulfiller *stubFulfiller
	project   *models.Project
}

func testPaymentsConfig() config.PaymentsConfig {
	return config.PaymentsConfig{
		PayeeVPA:          "store@okicici",
		PayeeName:         "TechCreator",
		TransactionPrefix: "TXN",
		CountdownSeconds:  600,
		TickInterval:      time.Hour,
		VerifyDelay:       time.Millisecond,
		PollInterval:      time.Millisecond,
		VerifyTimeout:     time.Second,
		SessionTTL:        time.Minute,
		QRCodeEndpoint:    "https://qr.example.com/",
		QRCodeSize:        200,
	}
}

func newHarness(t *testing.T, cfg config.PaymentsConfig, verifier Verifier) *harness {
	t.Helper()
	project := &models.Project{ID: uuid.New(), Title: "Portfolio Site", Price: 1499}
	fulfiller := &stubFulfiller{}
	svc, err := NewService(ServiceParams{
		Config:    cfg,
		Catalog:   stubCatalog{projects: map[uuid.UUID]*models.Project{project.ID: project}},
		Verifier:  verifier,
		Fulfiller: fulfiller,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)
	return &harness{svc: svc, fulfiller: fulfiller, project: project}
}

func fixedVerifier(result VerificationResult) Verifier {
	return VerifierFunc(func(context.Context, string) (VerificationResult, error) {
		return result, nil
	})
}

func waitForStatus(t *testing.T, svc Service, id uuid.UUID, want enums.PaymentStatus) *View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		view, err := svc.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if view.Status == want {
			return view
		}
		if time.Now().After(deadline) {
			t.Fatalf("status never reached %s, last %s", want, view.Status)
		}
		time.Sleep(time.Millisecond)
	}
}

func (h *harness) startAndSubmit(t *testing.T) *View {
	t.Helper()
	ctx := context.Background()
	view, err := h.svc.Start(ctx, h.project.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Status != enums.PaymentStatusIdle || view.Amount != h.project.Price {
		t.Fatalf("unexpected initial view %+v", view)
	}
	submitted, err := h.svc.Submit(ctx, view.ID, validForm(), "Mozilla/5.0 (Linux; Android 14)")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return submitted
}

func TestNewServiceRejectsInvalidPayee(t *testing.T) {
	cfg := testPaymentsConfig()
	cfg.PayeeVPA = "nobody"
	_, err := NewService(ServiceParams{
		Config:    cfg,
		Catalog:   stubCatalog{},
		Verifier:  fixedVerifier(VerificationPending),
		Fulfiller: &stubFulfiller{},
		Logger:    logger.New(logger.Options{Output: io.Discard}),
	})
	if err == nil {
		t.Fatalf("expected error for invalid payee vpa")
	}
}

func TestStartRejectsUnknownAndFreeProjects(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationPending))
	if _, err := h.svc.Start(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	h.project.Price = 0
	if _, err := h.svc.Start(context.Background(), h.project.ID); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitVerifiedPaymentRecordsOrder(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationSuccess))
	submitted := h.startAndSubmit(t)

	if submitted.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", submitted.Status)
	}
	if submitted.TransactionRef == "" || submitted.PaymentLink == "" || submitted.QRCodeURL == "" {
		t.Fatalf("expected payment artifacts, got %+v", submitted)
	}
	if submitted.Attempts != 1 {
		t.Fatalf("expected one attempt, got %d", submitted.Attempts)
	}

	view := waitForStatus(t, h.svc, submitted.ID, enums.PaymentStatusSuccess)
	if view.OrderID == nil {
		t.Fatalf("expected order id on success")
	}
	h.svc.Close()

	records, notified := h.fulfiller.counts()
	if records != 1 || notified != 1 {
		t.Fatalf("expected one record and one notify, got %d/%d", records, notified)
	}
	if h.fulfiller.purchases[0].TransactionRef != submitted.TransactionRef {
		t.Fatalf("recorded ref %s, want %s", h.fulfiller.purchases[0].TransactionRef, submitted.TransactionRef)
	}
}

func TestSubmitBuildsAndroidHandoff(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationPending))
	view, err := h.svc.Start(context.Background(), h.project.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	form := validForm()
	form.UPIApp = "phonepe"
	submitted, err := h.svc.Submit(context.Background(), view.ID, form, "Mozilla/5.0 (Linux; Android 14)")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.HandoffURL == "" || submitted.HandoffURL[:9] != "intent://" {
		t.Fatalf("expected android intent, got %q", submitted.HandoffURL)
	}
}

func TestSubmitTwiceConflicts(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationPending))
	submitted := h.startAndSubmit(t)
	_, err := h.svc.Submit(context.Background(), submitted.ID, validForm(), "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSubmitRejectsInvalidForm(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationPending))
	view, err := h.svc.Start(context.Background(), h.project.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = h.svc.Submit(context.Background(), view.ID, Form{}, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := h.svc.Get(context.Background(), view.ID)
	if got.Status != enums.PaymentStatusIdle {
		t.Fatalf("invalid form must not leave idle, got %s", got.Status)
	}
}

func TestSubmitRejectsMalformedEmail(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationSuccess))
	view, err := h.svc.Start(context.Background(), h.project.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	form := validForm()
	form.CustomerEmail = "not-an-email"
	if _, err := h.svc.Submit(context.Background(), view.ID, form, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := h.svc.Get(context.Background(), view.ID)
	if got.Status != enums.PaymentStatusIdle || got.TransactionRef != "" {
		t.Fatalf("malformed email must leave the session idle, got %s", got.Status)
	}
}

func TestCountdownExpiryThenRetry(t *testing.T) {
	cfg := testPaymentsConfig()
	cfg.CountdownSeconds = 3
	cfg.TickInterval = time.Millisecond
	cfg.VerifyDelay = time.Hour
	h := newHarness(t, cfg, fixedVerifier(VerificationPending))
	submitted := h.startAndSubmit(t)

	failed := waitForStatus(t, h.svc, submitted.ID, enums.PaymentStatusFailed)
	if failed.FailureReason != enums.PaymentFailureTimeExpired {
		t.Fatalf("expected time_expired, got %s", failed.FailureReason)
	}
	if failed.RemainingSeconds != 0 {
		t.Fatalf("expected countdown at zero, got %d", failed.RemainingSeconds)
	}

	reset, err := h.svc.Retry(context.Background(), submitted.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if reset.Status != enums.PaymentStatusIdle || reset.TransactionRef != "" || reset.RemainingSeconds != 3 {
		t.Fatalf("unexpected reset view %+v", reset)
	}

	again, err := h.svc.Submit(context.Background(), submitted.ID, validForm(), "")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.TransactionRef == submitted.TransactionRef {
		t.Fatalf("retry must issue a fresh transaction ref")
	}
	if again.Attempts != 2 {
		t.Fatalf("expected two attempts, got %d", again.Attempts)
	}
}

func TestFailedVerificationThenRetrySucceeds(t *testing.T) {
	var (
		mu       sync.Mutex
		rejected string
	)
	// The first ref ever verified is declined; every later one clears.
	verifier := VerifierFunc(func(_ context.Context, ref string) (VerificationResult, error) {
		mu.Lock()
		defer mu.Unlock()
		if rejected == "" || rejected == ref {
			rejected = ref
			return VerificationFailed, nil
		}
		return VerificationSuccess, nil
	})
	h := newHarness(t, testPaymentsConfig(), verifier)
	first := h.startAndSubmit(t)

	failed := waitForStatus(t, h.svc, first.ID, enums.PaymentStatusFailed)
	if failed.FailureReason != enums.PaymentFailureVerificationFailed {
		t.Fatalf("expected verification_failed, got %s", failed.FailureReason)
	}
	if records, _ := h.fulfiller.counts(); records != 0 {
		t.Fatalf("declined attempt recorded %d orders", records)
	}

	reset, err := h.svc.Retry(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if reset.Status != enums.PaymentStatusIdle {
		t.Fatalf("expected idle after retry, got %s", reset.Status)
	}
	again, err := h.svc.Submit(context.Background(), first.ID, validForm(), "")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.Status != enums.PaymentStatusPending || again.TransactionRef == first.TransactionRef {
		t.Fatalf("expected fresh pending attempt, got %+v", again)
	}
	paid := waitForStatus(t, h.svc, first.ID, enums.PaymentStatusSuccess)
	if paid.OrderID == nil || paid.Attempts != 2 {
		t.Fatalf("unexpected settled view %+v", paid)
	}

	// A second purchase of the same project is its own order.
	other := h.startAndSubmit(t)
	waitForStatus(t, h.svc, other.ID, enums.PaymentStatusSuccess)
	h.svc.Close()

	records, notified := h.fulfiller.counts()
	if records != 2 || notified != 2 {
		t.Fatalf("expected two recorded and notified orders, got %d/%d", records, notified)
	}
	refs := map[string]bool{}
	for _, p := range h.fulfiller.purchases {
		if p.TransactionRef == first.TransactionRef {
			t.Fatalf("declined ref %s was recorded", p.TransactionRef)
		}
		refs[p.TransactionRef] = true
	}
	if !refs[again.TransactionRef] || !refs[other.TransactionRef] || len(refs) != 2 {
		t.Fatalf("expected orders for %s and %s, got %v", again.TransactionRef, other.TransactionRef, refs)
	}
}

func TestSlowVerificationDoesNotStallCountdown(t *testing.T) {
	cfg := testPaymentsConfig()
	cfg.CountdownSeconds = 50
	cfg.TickInterval = 2 * time.Millisecond
	cfg.VerifyTimeout = 5 * time.Second
	var calls atomic.Int32
	verifier := VerifierFunc(func(ctx context.Context, _ string) (VerificationResult, error) {
		calls.Add(1)
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return VerificationPending, nil
	})
	h := newHarness(t, cfg, verifier)
	submitted := h.startAndSubmit(t)

	view := waitForStatus(t, h.svc, submitted.ID, enums.PaymentStatusFailed)
	if view.FailureReason != enums.PaymentFailureTimeExpired || view.RemainingSeconds != 0 {
		t.Fatalf("expected expiry at zero, got %s/%d", view.FailureReason, view.RemainingSeconds)
	}
	if calls.Load() == 0 {
		t.Fatalf("expected a verification in flight while the countdown ran")
	}
}

func TestRetryRequiresFailed(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationPending))
	submitted := h.startAndSubmit(t)
	if _, err := h.svc.Retry(context.Background(), submitted.ID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestVerificationFailure(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationFailed))
	submitted := h.startAndSubmit(t)

	view := waitForStatus(t, h.svc, submitted.ID, enums.PaymentStatusFailed)
	if view.FailureReason != enums.PaymentFailureVerificationFailed {
		t.Fatalf("expected verification_failed, got %s", view.FailureReason)
	}
	h.svc.Close()
	if records, _ := h.fulfiller.counts(); records != 0 {
		t.Fatalf("failed payments must not record orders, got %d", records)
	}
}

func TestPendingAndErroredVerificationsPollAgain(t *testing.T) {
	var calls atomic.Int32
	verifier := VerifierFunc(func(context.Context, string) (VerificationResult, error) {
		switch calls.Add(1) {
		case 1:
			return VerificationPending, nil
		case 2:
			return "", errors.New("gateway timeout")
		default:
			return VerificationSuccess, nil
		}
	})
	h := newHarness(t, testPaymentsConfig(), verifier)
	submitted := h.startAndSubmit(t)

	waitForStatus(t, h.svc, submitted.ID, enums.PaymentStatusSuccess)
	if calls.Load() != 3 {
		t.Fatalf("expected three verification calls, got %d", calls.Load())
	}
}

func TestPersistenceFailureMarksUnrecorded(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationSuccess))
	h.fulfiller.recordErr = errors.New("database unavailable")
	submitted := h.startAndSubmit(t)

	view := waitForStatus(t, h.svc, submitted.ID, enums.PaymentStatusUnrecorded)
	if view.OrderID != nil {
		t.Fatalf("unrecorded attempt must not carry an order id")
	}
	h.svc.Close()
	if _, notified := h.fulfiller.counts(); notified != 0 {
		t.Fatalf("unrecorded payments must not send emails, got %d", notified)
	}
}

func TestCancelRemovesSession(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationPending))
	submitted := h.startAndSubmit(t)

	if err := h.svc.Cancel(context.Background(), submitted.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.svc.Get(context.Background(), submitted.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after cancel, got %v", err)
	}
	if err := h.svc.Cancel(context.Background(), submitted.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second cancel, got %v", err)
	}
}

func TestSweepDropsSettledSessions(t *testing.T) {
	cfg := testPaymentsConfig()
	cfg.VerifyDelay = time.Hour
	h := newHarness(t, cfg, fixedVerifier(VerificationPending))
	svc := h.svc.(*service)

	idle, err := svc.Start(context.Background(), h.project.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	pending := h.startAndSubmit(t)

	if removed := svc.sweep(time.Now()); removed != 0 {
		t.Fatalf("fresh sessions swept: %d", removed)
	}
	if removed := svc.sweep(time.Now().Add(2 * cfg.SessionTTL)); removed != 1 {
		t.Fatalf("expected one stale session swept, got %d", removed)
	}
	if _, err := svc.Get(context.Background(), idle.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("idle session should have been swept, got %v", err)
	}
	if _, err := svc.Get(context.Background(), pending.ID); err != nil {
		t.Fatalf("pending session must survive sweep: %v", err)
	}
}

func TestViewFormatsAmountAndCountdown(t *testing.T) {
	h := newHarness(t, testPaymentsConfig(), fixedVerifier(VerificationPending))
	view, err := h.svc.Start(context.Background(), h.project.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.AmountDisplay != "₹1,499" {
		t.Fatalf("unexpected amount display %q", view.AmountDisplay)
	}
	if view.Countdown != "10:00" {
		t.Fatalf("unexpected countdown %q", view.Countdown)
	}
}
