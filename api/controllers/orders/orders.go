package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealdash/mealdash-backend/api/middleware"
	"github.com/mealdash/mealdash-backend/api/responses"
	"github.com/mealdash/mealdash-backend/api/validators"
	internalorders "github.com/mealdash/mealdash-backend/internal/orders"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/pagination"
)

const maxReasonLength = 500

type placeOrderItemRequest struct {
	FoodID              string   `json:"food_id" validate:"required,uuid"`
	Quantity            int      `json:"quantity" validate:"required,min=1"`
	VariationID         *string  `json:"variation_id"`
	AddonIDs            []string `json:"addon_ids"`
	SpecialInstructions *string  `json:"special_instructions"`
}

type placeOrderRequest struct {
	RestaurantID    string                  `json:"restaurant_id" validate:"required,uuid"`
	PaymentMethod   string                  `json:"payment_method" validate:"required"`
	Tip             decimal.Decimal         `json:"tip"`
	CouponCode      *string                 `json:"coupon_code"`
	DeliveryAddress string                  `json:"delivery_address" validate:"required"`
	DeliveryLabel   *string                 `json:"delivery_label"`
	DeliveryLat     float64                 `json:"delivery_lat"`
	DeliveryLng     float64                 `json:"delivery_lng"`
	IsPickedUp      bool                    `json:"is_picked_up"`
	Items           []placeOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type cancelOrderRequest struct {
	Reason *string `json:"reason"`
}

// Place creates a new order for the authenticated customer.
func Place(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurantID, err := uuid.Parse(payload.RestaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id"))
			return
		}
		paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		items := make([]internalorders.PlaceOrderItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			foodID, err := uuid.Parse(item.FoodID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid food id"))
				return
			}
			items = append(items, internalorders.PlaceOrderItemInput{
				FoodID:              foodID,
				Quantity:            item.Quantity,
				VariationID:         item.VariationID,
				AddonIDs:            item.AddonIDs,
				SpecialInstructions: item.SpecialInstructions,
			})
		}

		view, err := svc.PlaceOrder(r.Context(), internalorders.PlaceOrderInput{
			UserID:          userID,
			RestaurantID:    restaurantID,
			PaymentMethod:   paymentMethod,
			Tip:             payload.Tip,
			CouponCode:      payload.CouponCode,
			DeliveryAddress: payload.DeliveryAddress,
			DeliveryLabel:   payload.DeliveryLabel,
			DeliveryLat:     payload.DeliveryLat,
			DeliveryLng:     payload.DeliveryLng,
			IsPickedUp:      payload.IsPickedUp,
			Items:           items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// Detail returns one order after checking the caller participates in it.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		view, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := authorizeOrderView(view, actorID, middleware.RoleFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// List returns the authenticated customer's order history.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, filters, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListUserOrders(r.Context(), userID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Cancel lets the customer cancel their own order while it is still
// cancellable.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Reason != nil {
			reason := validators.SanitizeString(*payload.Reason, maxReasonLength)
			payload.Reason = &reason
		}

		if err := svc.CancelOrder(r.Context(), orderID, userID, payload.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.OrderStatusCancelled)})
	}
}

func authorizeOrderView(view *internalorders.OrderView, actorID uuid.UUID, role enums.ActorRole) error {
	switch role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleCustomer:
		if view.UserID == actorID {
			return nil
		}
	case enums.ActorRoleRestaurant:
		if view.RestaurantID == actorID {
			return nil
		}
	case enums.ActorRoleRider:
		if view.RiderID != nil && *view.RiderID == actorID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
}

func listQuery(r *http.Request) (pagination.Params, internalorders.OrderFilters, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, internalorders.OrderFilters{}, err
	}
	params := pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	var filters internalorders.OrderFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return pagination.Params{}, internalorders.OrderFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return pagination.Params{}, internalorders.OrderFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_from")
		}
		filters.DateFrom = &from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return pagination.Params{}, internalorders.OrderFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_to")
		}
		filters.DateTo = &to
	}
	return params, filters, nil
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
