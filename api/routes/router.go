package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/costumerental-backend/api/controllers"
	"github.com/angelmondragon/costumerental-backend/api/middleware"
	"github.com/angelmondragon/costumerental-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/costumerental-backend/internal/checkout"
	"github.com/angelmondragon/costumerental-backend/internal/costumes"
	"github.com/angelmondragon/costumerental-backend/internal/customers"
	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/internal/reports"
	"github.com/angelmondragon/costumerental-backend/pkg/config"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/metrics"
	"github.com/angelmondragon/costumerental-backend/pkg/redis"
)

// Params carries everything the router mounts.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Readiness   map[string]controllers.Pinger
	Idempotency redis.IdempotencyStore
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
	Clock       controllers.Clock

	Costumes  costumes.Service
	Customers customers.Service
	Rentals   rentals.Service
	Cart      cart.Service
	Checkout  checkoutsvc.Service
	Reports   reports.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.Tracing(),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})
	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(p.Registry))
	}

	idempotency := middleware.Idempotency(p.Idempotency, cfg.Provisioning.IdempotencyTTL, logg).
		BoundClaims(cfg.Provisioning.BatchDeadline)
	managerOnly := middleware.RequireRole(logg, enums.StaffRoleManager)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/costumes", func(r chi.Router) {
			r.Get("/", controllers.CostumeList(p.Costumes, logg))
			r.Get("/{costumeId}", controllers.CostumeDetail(p.Costumes, logg))
			r.With(managerOnly).Post("/", controllers.CostumeCreate(p.Costumes, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(p.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(p.Customers, logg))
			r.With(idempotency.Optional).Post("/", controllers.CustomerCreate(p.Customers, logg))
		})

		r.Route("/rentals", func(r chi.Router) {
			r.Get("/", controllers.RentalList(p.Rentals, p.Clock, logg))
			r.Get("/{rentalId}", controllers.RentalDetail(p.Rentals, p.Clock, logg))
			r.With(idempotency.Optional).Post("/", controllers.RentalCreate(p.Rentals, p.Clock, logg))
			r.With(idempotency.Optional).Post("/{rentalId}/return", controllers.RentalReturn(p.Rentals, p.Clock, logg))
			r.With(idempotency.Optional).Post("/{rentalId}/cancel", controllers.RentalCancel(p.Rentals, p.Clock, logg))
		})

		if p.Cart != nil {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(p.Cart, logg))
				r.Delete("/", controllers.CartClear(p.Cart, logg))
				r.Post("/items", controllers.CartAddItem(p.Cart, logg))
				r.Patch("/items/{index}", controllers.CartSetQuantity(p.Cart, logg))
				r.Delete("/items/{index}", controllers.CartRemoveItem(p.Cart, logg))
			})
		}
		if p.Checkout != nil {
			r.With(idempotency.Required).Post("/checkout", controllers.Checkout(p.Checkout, logg))
		}

		r.Route("/reports", func(r chi.Router) {
			r.Use(managerOnly)
			r.Get("/customers", controllers.ReportCustomers(p.Reports, logg))
			r.Get("/dashboard", controllers.ReportDashboard(p.Reports, logg))
		})
	})

	return r
}
