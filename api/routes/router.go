package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calderaops/procurehub-backend/api/controllers"
	billablecontrollers "github.com/calderaops/procurehub-backend/api/controllers/billables"
	cartcontrollers "github.com/calderaops/procurehub-backend/api/controllers/carts"
	ordercontrollers "github.com/calderaops/procurehub-backend/api/controllers/orders"
	pocontrollers "github.com/calderaops/procurehub-backend/api/controllers/purchaseorders"
	"github.com/calderaops/procurehub-backend/api/middleware"
	"github.com/calderaops/procurehub-backend/internal/approval"
	"github.com/calderaops/procurehub-backend/internal/billback"
	"github.com/calderaops/procurehub-backend/internal/carts"
	"github.com/calderaops/procurehub-backend/internal/identity"
	"github.com/calderaops/procurehub-backend/internal/orders"
	"github.com/calderaops/procurehub-backend/internal/procurement"
	"github.com/calderaops/procurehub-backend/internal/receiving"
	"github.com/calderaops/procurehub-backend/pkg/auth/session"
	"github.com/calderaops/procurehub-backend/pkg/config"
	"github.com/calderaops/procurehub-backend/pkg/db"
	"github.com/calderaops/procurehub-backend/pkg/logger"
	pkgredis "github.com/calderaops/procurehub-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	sessions sessionManager,
	identityService identity.Service,
	cartsService carts.Service,
	ordersService orders.Service,
	approvalService approval.Service,
	procurementService procurement.Service,
	receivingService receiving.Service,
	billbackService billback.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger pkgredis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(identityService, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
	})

	var idemStore pkgredis.IdempotencyStore
	if redisClient != nil {
		idemStore = redisClient
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/v1/carts", func(r chi.Router) {
			r.Get("/", cartcontrollers.List(cartsService, logg))
			r.Get("/{cartId}", cartcontrollers.Detail(cartsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(identity.PermManageCarts, logg))
				r.Post("/", cartcontrollers.Create(cartsService, logg))
				r.Delete("/{cartId}", cartcontrollers.Delete(cartsService, logg))
				r.Patch("/{cartId}/status", cartcontrollers.UpdateStatus(cartsService, logg))
				r.Post("/{cartId}/items", cartcontrollers.AddItem(cartsService, logg))
				r.Patch("/{cartId}/items/{itemId}", cartcontrollers.UpdateItem(cartsService, logg))
				r.Delete("/{cartId}/items/{itemId}", cartcontrollers.RemoveItem(cartsService, logg))
			})

			r.With(middleware.RequirePermission(identity.PermSubmitCarts, logg)).
				Post("/{cartId}/submit", cartcontrollers.Submit(cartsService, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(identity.PermApproveOrders, logg))
				r.Post("/{orderId}/approvals/commit", ordercontrollers.CommitApprovals(approvalService, logg))
				r.Post("/{orderId}/approvals/approve-all", ordercontrollers.ApproveAll(approvalService, logg))
				r.Post("/{orderId}/approvals/reject-all", ordercontrollers.RejectAll(approvalService, logg))
			})

			r.With(middleware.RequirePermission(identity.PermProcureOrders, logg)).
				Post("/{orderId}/purchase-orders", ordercontrollers.Procure(procurementService, logg))
		})

		r.Route("/v1/purchase-orders", func(r chi.Router) {
			r.With(middleware.RequirePermission(identity.PermReceiveShip, logg)).
				Post("/{purchaseOrderId}/advance", pocontrollers.Advance(receivingService, logg))
			r.With(middleware.RequirePermission(identity.PermRecordPayments, logg)).
				Post("/{purchaseOrderId}/payment", pocontrollers.RecordPayment(receivingService, logg))
			r.With(middleware.RequirePermission(identity.PermManageBillback, logg)).
				Post("/{purchaseOrderId}/billables", pocontrollers.CreateBillables(billbackService, logg))
		})

		r.Route("/v1/billables", func(r chi.Router) {
			r.Use(middleware.RequirePermission(identity.PermManageBillback, logg))
			r.Get("/", billablecontrollers.List(billbackService, logg))
			r.Post("/sync", billablecontrollers.Sync(billbackService, logg))
			r.Post("/reset-markups", billablecontrollers.ResetMarkups(billbackService, logg))
		})
	})

	return r
}
