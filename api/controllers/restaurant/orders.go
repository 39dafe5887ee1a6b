package restaurant

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/api/middleware"
	"github.com/mealdash/mealdash-backend/api/responses"
	"github.com/mealdash/mealdash-backend/api/validators"
	internalorders "github.com/mealdash/mealdash-backend/internal/orders"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/pagination"
)

type updateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Reason *string `json:"reason"`
}

type ringRequest struct {
	Ringed bool `json:"ringed"`
}

// Statuses a restaurant may set directly. Assignment and delivery
// moves belong to dispatch and riders.
var restaurantStatuses = map[enums.OrderStatus]struct{}{
	enums.OrderStatusAccepted:  {},
	enums.OrderStatusPicked:    {},
	enums.OrderStatusDelivered: {},
	enums.OrderStatusCancelled: {},
}

// ListOrders returns the authenticated restaurant's order feed.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		restaurantID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var filters internalorders.OrderFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
			from, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_from"))
				return
			}
			filters.DateFrom = &from
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
			to, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_to"))
				return
			}
			filters.DateTo = &to
		}

		list, err := svc.ListRestaurantOrders(r.Context(), restaurantID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UpdateStatus moves one of the restaurant's own orders through the
// lifecycle.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		restaurantID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}
		if _, ok := restaurantStatuses[status]; !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "status not allowed for restaurants"))
			return
		}

		if err := requireOwnership(r, svc, orderID, restaurantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID:   orderID,
			Status:    status,
			Reason:    payload.Reason,
			ActorID:   restaurantID,
			ActorRole: enums.ActorRoleRestaurant,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Ring toggles the new-order alert flag once the kitchen has seen the
// order.
func Ring(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		restaurantID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ringRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := requireOwnership(r, svc, orderID, restaurantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetRinged(r.Context(), orderID, payload.Ringed); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"ringed": payload.Ringed})
	}
}

func requireOwnership(r *http.Request, svc internalorders.Service, orderID, restaurantID uuid.UUID) error {
	view, err := svc.GetOrder(r.Context(), orderID)
	if err != nil {
		return err
	}
	if view.RestaurantID != restaurantID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to restaurant")
	}
	return nil
}

func actorUUID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id")
	}
	return id, nil
}
