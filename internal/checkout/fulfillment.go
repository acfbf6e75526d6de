package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/techcreator/storefront/internal/notifications"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/metrics"
)

// OrderCreator persists the order for a verified payment. Implementations
// must return the existing row when the transaction ref was already stored.
type OrderCreator interface {
	CreateForPayment(ctx context.Context, order *models.Order) (*models.Order, error)
}

// DocumentLister returns a project's active documents.
type DocumentLister interface {
	ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectDocument, error)
}

// Notifier is the subset of the notification service used after purchase.
type Notifier interface {
	DeliverDocuments(ctx context.Context, d notifications.DocumentDelivery) error
	SendOrderConfirmation(ctx context.Context, o notifications.OrderConfirmation) error
}

// LinkSigner issues time-limited download URLs for uploaded documents.
type LinkSigner interface {
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

// Purchase is the data captured from a session when its payment verifies.
type Purchase struct {
	SessionID      uuid.UUID
	ProjectID      uuid.UUID
	ProjectTitle   string
	Amount         int
	Customer       Form
	TransactionRef string
}

// Fulfiller records verified purchases and sends the follow-up emails.
type Fulfiller interface {
	Record(ctx context.Context, p Purchase) (*models.Order, error)
	Notify(ctx context.Context, order *models.Order)
	DeliverDocuments(ctx context.Context, order *models.Order) (int, error)
}

type FulfillerParams struct {
	Orders    OrderCreator
	Documents DocumentLister
	Notifier  Notifier
	Attempts  int
	Backoff   time.Duration
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics

	// Links signs delivery URLs for documents that carry a storage path.
	// Without it the stored URL is sent as is.
	Links      LinkSigner
	LinkBucket string
	LinkTTL    time.Duration
}

type orderFulfiller struct {
	orders     OrderCreator
	documents  DocumentLister
	notifier   Notifier
	links      LinkSigner
	linkBucket string
	linkTTL    time.Duration
	attempts   int
	backoff    time.Duration
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

func NewFulfiller(p FulfillerParams) (Fulfiller, error) {
	if p.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if p.Documents == nil {
		return nil, fmt.Errorf("document lister required")
	}
	if p.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = 100 * time.Millisecond
	}
	if p.Links != nil && p.LinkTTL <= 0 {
		return nil, fmt.Errorf("link ttl must be positive")
	}
	return &orderFulfiller{
		orders:     p.Orders,
		documents:  p.Documents,
		notifier:   p.Notifier,
		links:      p.Links,
		linkBucket: p.LinkBucket,
		linkTTL:    p.LinkTTL,
		attempts:   p.Attempts,
		backoff:    p.Backoff,
		logg:       p.Logger,
		metrics:    p.Metrics,
	}, nil
}

func (f *orderFulfiller) Record(ctx context.Context, p Purchase) (*models.Order, error) {
	ref := p.TransactionRef
	b := retry.WithMaxRetries(uint64(f.attempts-1), retry.NewExponential(f.backoff))

	var created *models.Order
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		order, err := f.orders.CreateForPayment(ctx, &models.Order{
			ProjectID:      p.ProjectID,
			ProjectTitle:   p.ProjectTitle,
			CustomerName:   p.Customer.CustomerName,
			CustomerEmail:  p.Customer.CustomerEmail,
			CustomerPhone:  p.Customer.CustomerPhone,
			Price:          p.Amount,
			Status:         enums.OrderStatusCompleted,
			TransactionRef: &ref,
		})
		if err != nil {
			f.metrics.IncPersist("error")
			if !pkgerrors.Retryable(err) {
				return err
			}
			f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "order persistence failed, retrying")
			return retry.RetryableError(err)
		}
		f.metrics.IncPersist("ok")
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Notify sends the confirmation and the document delivery concurrently.
// Failures are logged and never returned.
func (f *orderFulfiller) Notify(ctx context.Context, order *models.Order) {
	ctx = f.logg.WithField(ctx, "order_id", order.ID.String())

	var g errgroup.Group
	g.Go(func() error {
		ref := ""
		if order.TransactionRef != nil {
			ref = *order.TransactionRef
		}
		err := f.notifier.SendOrderConfirmation(ctx, notifications.OrderConfirmation{
			CustomerName:   order.CustomerName,
			CustomerEmail:  order.CustomerEmail,
			ProjectTitle:   order.ProjectTitle,
			Price:          order.Price,
			OrderID:        order.ID.String(),
			TransactionRef: ref,
			OrderDate:      order.CreatedAt,
		})
		if err != nil {
			f.logg.Error(ctx, "order confirmation email failed", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := f.DeliverDocuments(ctx, order); err != nil {
			f.logg.Error(ctx, "document delivery failed", err)
		}
		return nil
	})
	_ = g.Wait()
}

// DeliverDocuments emails the order's active project documents and returns
// how many were listed. No email is sent when the project has none.
func (f *orderFulfiller) DeliverDocuments(ctx context.Context, order *models.Order) (int, error) {
	docs, err := f.documents.ListActiveByProject(ctx, order.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("listing project documents: %w", err)
	}
	if len(docs) == 0 {
		f.logg.Info(ctx, "no active documents for project, skipping delivery")
		return 0, nil
	}

	now := time.Now()
	delivery := notifications.DocumentDelivery{
		ProjectTitle:  order.ProjectTitle,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		OrderID:       order.ID.String(),
		AccessExpires: notifications.DefaultAccessExpires,
		DeliveredAt:   now,
		Documents:     make([]notifications.Document, 0, len(docs)),
	}
	signed := false
	for _, d := range docs {
		link := d.URL
		if url, ok := f.signedLink(ctx, d); ok {
			link, signed = url, true
		}
		delivery.Documents = append(delivery.Documents, notifications.Document{
			Name:        d.Name,
			URL:         link,
			Category:    d.DocumentCategory,
			ReviewStage: d.ReviewStage,
			Size:        d.Size,
		})
	}
	if signed {
		delivery.AccessExpires = "Download links expire " + now.Add(f.linkTTL).UTC().Format(time.RFC1123)
	}
	if err := f.notifier.DeliverDocuments(ctx, delivery); err != nil {
		return len(docs), err
	}
	return len(docs), nil
}

func (f *orderFulfiller) signedLink(ctx context.Context, d models.ProjectDocument) (string, bool) {
	if f.links == nil || d.StoragePath == nil || *d.StoragePath == "" {
		return "", false
	}
	url, err := f.links.SignedReadURL(f.linkBucket, *d.StoragePath, f.linkTTL)
	if err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "document_id", d.ID.String()), "signing download link failed, sending stored url")
		return "", false
	}
	return url, true
}
