package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/internal/payments/upi"
	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/metrics"
)

// ProjectLookup loads the catalog entry being purchased.
type ProjectLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// Service runs checkout sessions. Each session holds its current payment
// attempt; a driver goroutine per pending attempt serialises countdown ticks
// and verification results.
type Service interface {
	Start(ctx context.Context, projectID uuid.UUID) (*View, error)
	Submit(ctx context.Context, sessionID uuid.UUID, form Form, userAgent string) (*View, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*View, error)
	Retry(ctx context.Context, sessionID uuid.UUID) (*View, error)
	Cancel(ctx context.Context, sessionID uuid.UUID) error
	Run(ctx context.Context)
	Close()
}

type ServiceParams struct {
	Config    config.PaymentsConfig
	Catalog   ProjectLookup
	Verifier  Verifier
	Fulfiller Fulfiller
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
	Now       func() time.Time
}

type service struct {
	cfg       config.PaymentsConfig
	catalog   ProjectLookup
	verifier  Verifier
	fulfiller Fulfiller
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time

	root     context.Context
	stop     context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	refs     map[string]struct{}
}

type session struct {
	mu          sync.Mutex
	id          uuid.UUID
	project     ProjectSnapshot
	form        *Form
	attempt     Attempt
	attempts    int
	createdAt   time.Time
	updatedAt   time.Time
	cancelDrive context.CancelFunc
}

// ProjectSnapshot is the catalog data frozen when the session started.
type ProjectSnapshot struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Price int       `json:"price"`
}

func NewService(p ServiceParams) (Service, error) {
	if p.Catalog == nil {
		return nil, fmt.Errorf("project lookup required")
	}
	if p.Verifier == nil {
		return nil, fmt.Errorf("verifier required")
	}
	if p.Fulfiller == nil {
		return nil, fmt.Errorf("fulfiller required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !upi.ValidateVPA(p.Config.PayeeVPA) {
		return nil, fmt.Errorf("payee vpa %q is invalid", p.Config.PayeeVPA)
	}
	if p.Config.CountdownSeconds <= 0 {
		return nil, fmt.Errorf("countdown must be positive")
	}
	if p.Config.TickInterval <= 0 {
		p.Config.TickInterval = time.Second
	}
	if p.Config.VerifyDelay <= 0 {
		p.Config.VerifyDelay = 10 * time.Second
	}
	if p.Config.PollInterval <= 0 {
		p.Config.PollInterval = 5 * time.Second
	}
	if p.Config.VerifyTimeout <= 0 {
		p.Config.VerifyTimeout = 5 * time.Second
	}
	if p.Config.SessionTTL <= 0 {
		p.Config.SessionTTL = 30 * time.Minute
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	root, stop := context.WithCancel(context.Background())
	return &service{
		cfg:       p.Config,
		catalog:   p.Catalog,
		verifier:  p.Verifier,
		fulfiller: p.Fulfiller,
		logg:      p.Logger,
		metrics:   p.Metrics,
		now:       p.Now,
		root:      root,
		stop:      stop,
		sessions:  make(map[uuid.UUID]*session),
		refs:      make(map[string]struct{}),
	}, nil
}

func (s *service) Start(ctx context.Context, projectID uuid.UUID) (*View, error) {
	if projectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	project, err := s.catalog.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project is not purchasable")
	}

	now := s.now()
	sess := &session{
		id:        uuid.New(),
		project:   ProjectSnapshot{ID: project.ID, Title: project.Title, Price: project.Price},
		attempt:   newAttempt(project.Price, s.cfg.PayeeVPA, s.cfg.PayeeName, s.cfg.CountdownSeconds),
		createdAt: now,
		updatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetSessions(count)

	s.logg.Info(s.logg.WithCheckout(ctx, sess.id.String(), ""), "checkout session started")
	return sess.view(), nil
}

func (s *service) Submit(ctx context.Context, sessionID uuid.UUID, form Form, userAgent string) (*View, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	form = form.Normalize()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.attempt.Status != enums.PaymentStatusIdle {
		return nil, transitionError(sess.attempt.Status, "submit")
	}

	now := s.now()
	ref := s.issueRef(now)
	link, err := upi.BuildPaymentLink(upi.PaymentData{
		PayeeVPA:       s.cfg.PayeeVPA,
		PayeeName:      s.cfg.PayeeName,
		Amount:         sess.project.Price,
		Note:           upi.PaymentNote(sess.project.Title),
		TransactionRef: ref,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building payment link")
	}
	links := Links{
		TransactionRef: ref,
		PaymentLink:    link,
		QRCodeURL:      upi.QRCodeURL(s.cfg.QRCodeEndpoint, link, s.cfg.QRCodeSize),
	}
	if app, ok := upi.FindApp(form.UPIApp); ok {
		links.HandoffURL = upi.HandoffURL(app, link, upi.DetectPlatform(userAgent))
	}

	if err := sess.attempt.begin(links, s.cfg.CountdownSeconds, now); err != nil {
		return nil, err
	}
	sess.form = &form
	sess.attempts++
	sess.updatedAt = now

	driveCtx, cancel := context.WithCancel(s.root)
	sess.cancelDrive = cancel
	driveCtx = s.logg.WithCheckout(driveCtx, sess.id.String(), ref)

	s.wg.Add(1)
	go s.drive(driveCtx, sess, ref)

	s.metrics.IncTransition(string(enums.PaymentStatusPending), "")
	s.logg.Info(s.logg.WithCheckout(ctx, sess.id.String(), ref), "payment attempt pending")
	return sess.viewLocked(), nil
}

func (s *service) Get(_ context.Context, sessionID uuid.UUID) (*View, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

func (s *service) Retry(ctx context.Context, sessionID uuid.UUID) (*View, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.attempt.reset(s.cfg.CountdownSeconds); err != nil {
		return nil, err
	}
	if sess.cancelDrive != nil {
		sess.cancelDrive()
		sess.cancelDrive = nil
	}
	sess.updatedAt = s.now()

	s.metrics.IncTransition(string(enums.PaymentStatusIdle), "retry")
	s.logg.Info(s.logg.WithCheckout(ctx, sess.id.String(), ""), "payment attempt reset for retry")
	return sess.viewLocked(), nil
}

// Cancel tears a session down. A running persistence or email send is left
// to finish but its result is no longer visible.
func (s *service) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	count := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	s.metrics.SetSessions(count)

	sess.mu.Lock()
	if sess.cancelDrive != nil {
		sess.cancelDrive()
		sess.cancelDrive = nil
	}
	ref := sess.attempt.TransactionRef
	sess.mu.Unlock()

	s.logg.Info(s.logg.WithCheckout(ctx, sessionID.String(), ref), "checkout session cancelled")
	return nil
}

// Run sweeps settled sessions until ctx is done.
func (s *service) Run(ctx context.Context) {
	interval := s.cfg.SessionTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.root.Done():
			return
		case <-ticker.C:
			if n := s.sweep(s.now()); n > 0 {
				s.logg.Info(s.logg.WithField(ctx, "removed", n), "swept checkout sessions")
			}
		}
	}
}

// Close stops every driver and waits for them to exit.
func (s *service) Close() {
	s.stop()
	s.wg.Wait()
}

// sweep drops sessions that are not pending and have been untouched for the
// session TTL.
func (s *service) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.attempt.Status != enums.PaymentStatusPending && now.Sub(sess.updatedAt) > s.cfg.SessionTTL
		sess.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			removed++
		}
	}
	s.metrics.SetSessions(len(s.sessions))
	return removed
}

func (s *service) lookup(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	return sess, nil
}

// issueRef returns a transaction ref never handed out by this process.
func (s *service) issueRef(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		ref := upi.GenerateTransactionRef(s.cfg.TransactionPrefix, now)
		if _, dup := s.refs[ref]; !dup {
			s.refs[ref] = struct{}{}
			return ref
		}
	}
}

type verifyAction int

const (
	verifyStop verifyAction = iota
	verifyAgain
	verifyFulfill
)

func (s *service) drive(ctx context.Context, sess *session, ref string) {
	defer s.wg.Done()

	// Leaving the loop aborts a verification still in flight.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	poll := time.NewTimer(s.cfg.VerifyDelay)
	defer poll.Stop()

	// The poll timer is only re-armed once a result lands, so at most one
	// verification runs while the countdown keeps ticking.
	results := make(chan VerificationResult, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.onTick(ctx, sess, ref) {
				return
			}
		case <-poll.C:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				results <- s.verify(ctx, ref)
			}()
		case result := <-results:
			if ctx.Err() != nil {
				return
			}
			switch s.onVerification(ctx, sess, ref, result) {
			case verifyAgain:
				poll.Reset(s.cfg.PollInterval)
			case verifyFulfill:
				s.fulfill(ctx, sess, ref)
				return
			default:
				return
			}
		}
	}
}

// onTick reports whether the driver should exit.
func (s *service) onTick(ctx context.Context, sess *session, ref string) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.attempt.TransactionRef != ref || sess.attempt.Status != enums.PaymentStatusPending {
		return true
	}
	if !sess.attempt.tick(s.now()) {
		return false
	}
	sess.updatedAt = s.now()
	s.metrics.IncTransition(string(enums.PaymentStatusFailed), string(enums.PaymentFailureTimeExpired))
	s.logg.Warn(ctx, "payment attempt expired")
	return true
}

func (s *service) verify(ctx context.Context, ref string) VerificationResult {
	vctx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.verifier.Verify(vctx, ref)
	if err != nil {
		s.metrics.ObserveVerification("error", time.Since(started))
		if ctx.Err() == nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "payment verification errored, polling again")
		}
		return VerificationPending
	}
	s.metrics.ObserveVerification(string(result), time.Since(started))
	return result
}

func (s *service) onVerification(ctx context.Context, sess *session, ref string, result VerificationResult) verifyAction {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.attempt.TransactionRef != ref || sess.attempt.Status != enums.PaymentStatusPending {
		return verifyStop
	}
	switch result {
	case VerificationSuccess:
		if !sess.attempt.recordOutcome(true, s.now()) {
			return verifyStop
		}
		s.logg.Info(ctx, "payment verified")
		return verifyFulfill
	case VerificationFailed:
		if sess.attempt.recordOutcome(false, s.now()) {
			sess.updatedAt = s.now()
			s.metrics.IncTransition(string(enums.PaymentStatusFailed), string(enums.PaymentFailureVerificationFailed))
			s.logg.Warn(ctx, "payment verification failed")
		}
		return verifyStop
	default:
		return verifyAgain
	}
}

// fulfill persists the order and sends emails. It runs detached from the
// session's cancellation so a teardown does not abort an in-flight write.
func (s *service) fulfill(ctx context.Context, sess *session, ref string) {
	work := context.WithoutCancel(ctx)

	sess.mu.Lock()
	purchase := Purchase{
		SessionID:      sess.id,
		ProjectID:      sess.project.ID,
		ProjectTitle:   sess.project.Title,
		Amount:         sess.project.Price,
		Customer:       *sess.form,
		TransactionRef: ref,
	}
	sess.mu.Unlock()

	order, err := s.fulfiller.Record(work, purchase)

	sess.mu.Lock()
	if err != nil {
		sess.attempt.markUnrecorded(s.now())
		sess.updatedAt = s.now()
		sess.mu.Unlock()
		s.metrics.IncTransition(string(enums.PaymentStatusUnrecorded), "persist_failed")
		s.logg.Error(s.logg.WithFields(work, map[string]any{
			"amount":         purchase.Amount,
			"customer_email": purchase.Customer.CustomerEmail,
			"project_id":     purchase.ProjectID.String(),
		}), "verified payment could not be recorded, manual reconciliation required", err)
		return
	}
	sess.attempt.complete(order.ID, s.now())
	sess.updatedAt = s.now()
	sess.mu.Unlock()

	s.metrics.IncTransition(string(enums.PaymentStatusSuccess), "")
	s.logg.Info(s.logg.WithField(work, "order_id", order.ID.String()), "order recorded")

	s.fulfiller.Notify(work, order)
}
