package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyworks/licensing-backend/api/controllers"
	"github.com/tallyworks/licensing-backend/api/middleware"
	"github.com/tallyworks/licensing-backend/internal/adjustments"
	"github.com/tallyworks/licensing-backend/internal/billingcycles"
	"github.com/tallyworks/licensing-backend/internal/licenses"
	"github.com/tallyworks/licensing-backend/internal/payments"
	"github.com/tallyworks/licensing-backend/pkg/config"
	"github.com/tallyworks/licensing-backend/pkg/db"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	"github.com/tallyworks/licensing-backend/pkg/logger"
	"github.com/tallyworks/licensing-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	metricsRegistry *prometheus.Registry,
	licenseService licenses.Service,
	adjustmentService adjustments.Service,
	cycleService billingcycles.Service,
	paymentService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		// Reads are open to every authenticated role.
		r.Group(func(r chi.Router) {
			r.Get("/licenses/{licenseId}", controllers.LicenseGet(licenseService, logg))
			r.Get("/licenses/guid/{guid}", controllers.LicenseGetByGUID(licenseService, logg))
			r.Get("/licenses/{licenseId}/adjustments", controllers.AdjustmentList(adjustmentService, logg))
			r.Get("/licenses/{licenseId}/billing-cycles", controllers.CycleList(cycleService, logg))
			r.Get("/adjustments/{adjustmentId}", controllers.AdjustmentGet(adjustmentService, logg))
			r.Get("/adjustments/{adjustmentId}/payments", controllers.PaymentListForAdjustment(paymentService, logg))
			r.Get("/billing-cycles/{cycleId}", controllers.CycleGet(cycleService, logg))
			r.Get("/billing-cycles/{cycleId}/payments", controllers.PaymentListForCycle(paymentService, logg))
			r.Get("/payments/{paymentId}", controllers.PaymentGet(paymentService, logg))
		})

		// Writes require the billing role.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.APIRoleBilling))

			r.Post("/licenses/{licenseId}/adjustments", controllers.AdjustmentCreate(adjustmentService, logg))
			r.Post("/licenses/{licenseId}/billing-cycles", controllers.CycleCreate(cycleService, logg))
			r.Post("/adjustments/{adjustmentId}/invoice", controllers.AdjustmentInvoice(adjustmentService, logg))
			r.Post("/billing-cycles/{cycleId}/invoice", controllers.CycleInvoice(cycleService, logg))

			r.Post("/billing-cycles/{cycleId}/payments", controllers.PaymentCreateForCycle(paymentService, logg))
			r.Post("/adjustments/{adjustmentId}/payments", controllers.PaymentCreateForAdjustment(paymentService, logg))
			r.Route("/payments/{paymentId}", func(r chi.Router) {
				r.Post("/process", controllers.PaymentProcess(paymentService, logg))
				r.Post("/complete", controllers.PaymentComplete(paymentService, logg))
				r.Post("/fail", controllers.PaymentFail(paymentService, logg))
				r.Post("/cancel", controllers.PaymentCancel(paymentService, logg))
				r.Post("/refund", controllers.PaymentRefund(paymentService, logg))
			})
		})
	})

	return r
}
