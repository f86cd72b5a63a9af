package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/barstockwise/backend/api/controllers"
	"github.com/barstockwise/backend/api/middleware"
	"github.com/barstockwise/backend/internal/credits"
	"github.com/barstockwise/backend/internal/inventory"
	"github.com/barstockwise/backend/internal/kitchen"
	"github.com/barstockwise/backend/internal/notifications"
	"github.com/barstockwise/backend/internal/sales"
	"github.com/barstockwise/backend/internal/tables"
	"github.com/barstockwise/backend/pkg/config"
	"github.com/barstockwise/backend/pkg/db"
	"github.com/barstockwise/backend/pkg/enums"
	"github.com/barstockwise/backend/pkg/logger"
	"github.com/barstockwise/backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Sales         sales.Service
	Credits       credits.Service
	Inventory     inventory.Service
	Kitchen       kitchen.Service
	Tables        tables.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", controllers.CreateSale(svcs.Sales, logg))
			r.Get("/", controllers.ListSales(svcs.Sales, logg))
			r.Get("/{saleId}", controllers.GetSale(svcs.Sales, logg))
			r.Post("/{saleId}/items", controllers.AddSaleItems(svcs.Sales, logg))
			r.Post("/{saleId}/status", controllers.UpdateSaleStatus(svcs.Sales, logg))
			r.Post("/{saleId}/mark-paid", controllers.MarkSalePaid(svcs.Sales, logg))
			r.Post("/{saleId}/cancel", controllers.CancelSale(svcs.Sales, logg))
		})

		r.Route("/credit-accounts", func(r chi.Router) {
			r.Get("/", controllers.ListCreditAccounts(svcs.Credits, logg))
			r.Get("/{accountId}", controllers.GetCreditAccount(svcs.Credits, logg))
			r.Get("/{accountId}/transactions", controllers.ListCreditTransactions(svcs.Credits, logg))
			r.Post("/{accountId}/payments", controllers.ApplyCreditPayment(svcs.Credits, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.StaffRoleAdmin.String(), enums.StaffRoleManager.String()))
				r.Post("/{accountId}/adjustments", controllers.ApplyCreditAdjustment(svcs.Credits, logg))
				r.Post("/{accountId}/reconcile", controllers.ReconcileCreditAccount(svcs.Credits, logg))
			})
		})

		r.Route("/kitchen", func(r chi.Router) {
			r.Post("/availability", controllers.CheckAvailability(svcs.Kitchen, logg))
			r.Post("/recipes/{productId}/prepare", controllers.PrepareRecipe(svcs.Inventory, logg))
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", controllers.ListIngredients(svcs.Kitchen, logg))
			r.Get("/movements", controllers.ListIngredientMovements(svcs.Inventory, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.StaffRoleAdmin.String(), enums.StaffRoleManager.String()))
				r.Post("/{ingredientId}/adjustments", controllers.AdjustIngredient(svcs.Inventory, logg))
			})
		})

		r.Route("/stock-movements", func(r chi.Router) {
			r.Get("/", controllers.ListStockMovements(svcs.Inventory, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/{purchaseId}/receive", controllers.ReceivePurchase(svcs.Inventory, logg))
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", controllers.ListTables(svcs.Tables, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
