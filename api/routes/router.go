package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/techcreator/storefront/api/controllers"
	"github.com/techcreator/storefront/api/middleware"
	"github.com/techcreator/storefront/internal/auth"
	"github.com/techcreator/storefront/internal/checkout"
	"github.com/techcreator/storefront/internal/documents"
	"github.com/techcreator/storefront/internal/inquiries"
	"github.com/techcreator/storefront/internal/orders"
	"github.com/techcreator/storefront/internal/projects"
	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/enums"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/metrics"
	pkgredis "github.com/techcreator/storefront/pkg/redis"
)

// Redis is the subset of the redis client the HTTP layer needs.
type Redis interface {
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
	controllers.Pinger
}

// Dependencies bundles everything the router hands to controllers.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    Redis
	Storage  controllers.Pinger
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Auth          auth.Service
	Projects      projects.Service
	Documents     documents.Service
	Checkout      checkout.Service
	Orders        orders.Service
	Deliverer     orders.DocumentDeliverer
	Inquiries     inquiries.Service
	Notifications controllers.ConfigReporter
}

func NewRouter(d Dependencies) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS),
		middleware.Logging(logg, d.Metrics),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	contactPolicy := middleware.NewRateLimitPolicy("contact", cfg.RateLimit.ContactWindow, cfg.RateLimit.ContactIPLimit, 0)
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutIPLimit, 0)

	var redisStore pkgredis.IdempotencyStore
	var limiter pkgredis.RateLimiter
	deps := map[string]controllers.Pinger{}
	if d.DB != nil {
		deps["db"] = d.DB
	}
	if d.Redis != nil {
		redisStore = d.Redis
		limiter = d.Redis
		deps["redis"] = d.Redis
	}
	if d.Storage != nil {
		deps["gcs"] = d.Storage
	}
	idempotent := middleware.Idempotency(redisStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/projects", controllers.PublicListProjects(d.Projects, logg))
		r.Get("/projects/{projectId}", controllers.PublicGetProject(d.Projects, logg))
		r.Get("/payments/upi-apps", controllers.PublicListUPIApps())

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(d.Checkout, logg))
			r.Get("/{sessionId}", controllers.CheckoutGet(d.Checkout, logg))
			r.Delete("/{sessionId}", controllers.CheckoutCancel(d.Checkout, logg))
			r.With(
				middleware.RateLimit(checkoutPolicy, limiter, logg),
				idempotent,
			).Post("/{sessionId}/submit", controllers.CheckoutSubmit(d.Checkout, logg))
			r.Post("/{sessionId}/retry", controllers.CheckoutRetry(d.Checkout, logg))
		})

		r.With(
			middleware.RateLimit(contactPolicy, limiter, logg),
			idempotent,
		).Post("/contact", controllers.PublicSubmitContact(d.Inquiries, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, limiter, logg)).
			Post("/auth/login", controllers.AdminAuthLogin(d.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.RequireRole(enums.RoleAdmin, logg),
			)

			r.Post("/projects", controllers.AdminCreateProject(d.Projects, logg))
			r.Patch("/projects/{projectId}", controllers.AdminUpdateProject(d.Projects, logg))
			r.Delete("/projects/{projectId}", controllers.AdminDeleteProject(d.Projects, logg))
			r.Get("/projects/{projectId}/documents", controllers.AdminListDocuments(d.Documents, logg))
			r.Post("/projects/{projectId}/documents", controllers.AdminCreateDocument(d.Documents, logg))

			r.Post("/documents/uploads", controllers.AdminPresignDocumentUpload(d.Documents, logg))
			r.Patch("/documents/{documentId}", controllers.AdminUpdateDocument(d.Documents, logg))
			r.Delete("/documents/{documentId}", controllers.AdminDeleteDocument(d.Documents, logg))

			r.Get("/orders", controllers.AdminListOrders(d.Orders, logg))
			r.Get("/orders/{orderId}", controllers.AdminGetOrder(d.Orders, logg))
			r.Patch("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
			r.Delete("/orders/{orderId}", controllers.AdminDeleteOrder(d.Orders, logg))
			r.With(idempotent).
				Post("/orders/{orderId}/deliver-documents", controllers.AdminDeliverOrderDocuments(d.Orders, d.Deliverer, logg))

			r.Get("/inquiries", controllers.AdminListInquiries(d.Inquiries, logg))
			r.Delete("/inquiries/{inquiryId}", controllers.AdminDeleteInquiry(d.Inquiries, logg))

			r.Get("/notifications/config", controllers.AdminNotificationsConfig(d.Notifications, logg))
		})
	})

	return r
}
