package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mealdash/mealdash-backend/api/controllers"
	dispatchcontrollers "github.com/mealdash/mealdash-backend/api/controllers/dispatch"
	ordercontrollers "github.com/mealdash/mealdash-backend/api/controllers/orders"
	restaurantcontrollers "github.com/mealdash/mealdash-backend/api/controllers/restaurant"
	ridercontrollers "github.com/mealdash/mealdash-backend/api/controllers/rider"
	wscontrollers "github.com/mealdash/mealdash-backend/api/controllers/ws"
	"github.com/mealdash/mealdash-backend/api/middleware"
	"github.com/mealdash/mealdash-backend/internal/chat"
	internaldispatch "github.com/mealdash/mealdash-backend/internal/dispatch"
	"github.com/mealdash/mealdash-backend/internal/gateway"
	"github.com/mealdash/mealdash-backend/internal/notifications"
	"github.com/mealdash/mealdash-backend/internal/orders"
	"github.com/mealdash/mealdash-backend/internal/riders"
	"github.com/mealdash/mealdash-backend/pkg/config"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	"github.com/mealdash/mealdash-backend/pkg/logger"
	pkgredis "github.com/mealdash/mealdash-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *pkgredis.Client
	HealthChecks  map[string]controllers.Pinger
	Registry      *prometheus.Registry
	Orders        orders.Service
	Riders        riders.Service
	Chat          chat.Service
	Notifications notifications.Service
	Dispatch      internaldispatch.Service
	Gateway       *gateway.Gateway
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthChecks))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	locationPolicy := middleware.NewRateLimitPolicy(
		"location",
		cfg.RateLimit.LocationWindow,
		cfg.RateLimit.LocationLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.ActorRoleCustomer)).
				Post("/", ordercontrollers.Place(deps.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleCustomer)).
				Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleCustomer)).
				Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.Post("/{orderId}/messages", ordercontrollers.SendMessage(deps.Chat, logg))
			r.Get("/{orderId}/messages", ordercontrollers.ListMessages(deps.Chat, logg))
		})

		r.Route("/restaurant", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleRestaurant))
			r.Get("/orders", restaurantcontrollers.ListOrders(deps.Orders, logg))
			r.Post("/orders/{orderId}/status", restaurantcontrollers.UpdateStatus(deps.Orders, logg))
			r.Post("/orders/{orderId}/ring", restaurantcontrollers.Ring(deps.Orders, logg))
		})

		r.Route("/rider", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleRider))
			r.Post("/availability", ridercontrollers.SetAvailability(deps.Riders, logg))
			r.With(middleware.RateLimit(locationPolicy, deps.Redis, logg)).
				Post("/location", ridercontrollers.UpdateLocation(deps.Riders, logg))
			r.Get("/orders", ridercontrollers.ListOrders(deps.Orders, logg))
		})

		r.Route("/dispatch", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))
			r.Post("/orders/{orderId}/assign", dispatchcontrollers.Assign(deps.Orders, logg))
			r.Post("/orders/{orderId}/notify", dispatchcontrollers.Notify(deps.Dispatch, logg))
			r.Post("/orders/{orderId}/status", dispatchcontrollers.OverrideStatus(deps.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleCustomer, enums.ActorRoleRider))
			r.Get("/", controllers.NotificationsList(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationsMarkRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.NotificationsMarkAllRead(deps.Notifications, logg))
		})
	})

	r.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/restaurant/{restaurantId}/orders", wscontrollers.RestaurantOrders(deps.Gateway, logg))
		r.With(middleware.RequireRole(logg, enums.ActorRoleCustomer)).
			Get("/user/orders", wscontrollers.UserOrders(deps.Gateway, logg))
		r.With(middleware.RequireRole(logg, enums.ActorRoleRider)).
			Get("/rider/assignments", wscontrollers.RiderFeed(deps.Gateway, logg))
		r.Get("/orders/{orderId}/snapshot", wscontrollers.OrderSnapshot(deps.Gateway, deps.Orders, logg))
		r.Get("/orders/{orderId}/chat", wscontrollers.OrderChat(deps.Gateway, deps.Orders, logg))
		r.With(middleware.RequireRole(logg, enums.ActorRoleAdmin)).
			Get("/dispatch", wscontrollers.DispatcherFeed(deps.Gateway, logg))
	})

	return r
}
