package dispatch

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/api/middleware"
	"github.com/mealdash/mealdash-backend/api/responses"
	"github.com/mealdash/mealdash-backend/api/validators"
	internaldispatch "github.com/mealdash/mealdash-backend/internal/dispatch"
	internalorders "github.com/mealdash/mealdash-backend/internal/orders"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
)

type assignRequest struct {
	RiderID string `json:"rider_id" validate:"required,uuid"`
}

type overrideStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Reason *string `json:"reason"`
}

// Assign pins a specific rider onto an order.
func Assign(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := uuid.Parse(payload.RiderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rider id"))
			return
		}

		view, err := svc.AssignRider(r.Context(), internalorders.AssignRiderInput{
			OrderID: orderID,
			RiderID: riderID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Notify re-broadcasts an order to the available riders of its zone.
func Notify(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.NotifyRiders(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "notified"})
	}
}

// OverrideStatus lets a dispatcher force a lifecycle move, including
// aborting an order on the customer's behalf.
func OverrideStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actorID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload overrideStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		if status == enums.OrderStatusCancelled {
			if err := svc.AbortOrder(r.Context(), orderID, payload.Reason); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			view, err := svc.GetOrder(r.Context(), orderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		view, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID:   orderID,
			Status:    status,
			Reason:    payload.Reason,
			ActorID:   actorID,
			ActorRole: enums.ActorRoleAdmin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
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
