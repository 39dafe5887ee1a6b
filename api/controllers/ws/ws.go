package ws

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/api/middleware"
	"github.com/mealdash/mealdash-backend/api/responses"
	"github.com/mealdash/mealdash-backend/api/validators"
	"github.com/mealdash/mealdash-backend/internal/gateway"
	internalorders "github.com/mealdash/mealdash-backend/internal/orders"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
)

// RestaurantOrders streams live order activity for one restaurant.
// The caller must be that restaurant or an admin.
func RestaurantOrders(gw *gateway.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := validators.ParseUUIDParam(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role != enums.ActorRoleAdmin && (role != enums.ActorRoleRestaurant || actorID != restaurantID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "stream belongs to another restaurant"))
			return
		}

		gw.ServeRestaurantOrders(w, r, restaurantID)
	}
}

// UserOrders streams status changes for the authenticated customer.
func UserOrders(gw *gateway.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _, err := actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gw.ServeUserOrders(w, r, actorID)
	}
}

// RiderFeed streams assignments and zone broadcasts for the
// authenticated rider.
func RiderFeed(gw *gateway.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _, err := actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gw.ServeRiderFeed(w, r, actorID)
	}
}

// OrderSnapshot streams full order snapshots after each mutation.
// Restricted to the order's participants.
func OrderSnapshot(gw *gateway.Gateway, ordersSvc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := requireParticipant(r, ordersSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gw.ServeOrderSnapshot(w, r, orderID)
	}
}

// OrderChat streams the live conversation on one order. Restricted to
// the order's participants.
func OrderChat(gw *gateway.Gateway, ordersSvc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := requireParticipant(r, ordersSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gw.ServeOrderChat(w, r, orderID)
	}
}

// DispatcherFeed streams every broadcast and assignment across zones.
func DispatcherFeed(gw *gateway.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gw.ServeDispatcherFeed(w, r)
	}
}

func requireParticipant(r *http.Request, ordersSvc internalorders.Service) (uuid.UUID, error) {
	if ordersSvc == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable")
	}
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return uuid.Nil, err
	}
	actorID, role, err := actor(r)
	if err != nil {
		return uuid.Nil, err
	}

	view, err := ordersSvc.GetOrder(r.Context(), orderID)
	if err != nil {
		return uuid.Nil, err
	}

	switch role {
	case enums.ActorRoleAdmin:
		return orderID, nil
	case enums.ActorRoleCustomer:
		if view.UserID == actorID {
			return orderID, nil
		}
	case enums.ActorRoleRestaurant:
		if view.RestaurantID == actorID {
			return orderID, nil
		}
	case enums.ActorRoleRider:
		if view.RiderID != nil && *view.RiderID == actorID {
			return orderID, nil
		}
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a participant of this order")
}

func actor(r *http.Request) (uuid.UUID, enums.ActorRole, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id")
	}
	return id, middleware.RoleFromContext(r.Context()), nil
}
