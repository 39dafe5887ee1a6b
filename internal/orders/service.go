package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/internal/bus"
	"github.com/mealdash/mealdash-backend/internal/cache"
	"github.com/mealdash/mealdash-backend/internal/riders"
	"github.com/mealdash/mealdash-backend/internal/zones"
	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/db/types"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order lifecycle operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderView, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderView, error)
	AssignRider(ctx context.Context, input AssignRiderInput) (*OrderView, error)
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID, reason *string) error
	AbortOrder(ctx context.Context, orderID uuid.UUID, reason *string) error
	SetRinged(ctx context.Context, orderID uuid.UUID, ringed bool) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderView, error)
	ListRestaurantOrders(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListRiderOrders(ctx context.Context, riderID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
}

// Deps bundles the service dependencies. All fields are required
// except Broadcaster, which may be nil when dispatch is disabled.
type Deps struct {
	Repo        Repository
	Tx          txRunner
	Bus         bus.Bus
	Cache       cache.Store
	Notifier    Notifier
	Zones       zones.Resolver
	Riders      riders.Repository
	Broadcaster ZoneBroadcaster
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	tx          txRunner
	bus         bus.Bus
	cache       cache.Store
	notifier    Notifier
	zones       zones.Resolver
	riders      riders.Repository
	broadcaster ZoneBroadcaster
	logg        *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if deps.Zones == nil {
		return nil, fmt.Errorf("zone resolver required")
	}
	if deps.Riders == nil {
		return nil, fmt.Errorf("riders repository required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        deps.Repo,
		tx:          deps.Tx,
		bus:         deps.Bus,
		cache:       deps.Cache,
		notifier:    deps.Notifier,
		zones:       deps.Zones,
		riders:      deps.Riders,
		broadcaster: deps.Broadcaster,
		logg:        deps.Logger,
	}, nil
}

var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:  {enums.OrderStatusAccepted, enums.OrderStatusCancelled},
	enums.OrderStatusAccepted: {enums.OrderStatusAssigned, enums.OrderStatusPicked, enums.OrderStatusCancelled},
	enums.OrderStatusAssigned: {enums.OrderStatusPicked, enums.OrderStatusCancelled},
	enums.OrderStatusPicked:   {enums.OrderStatusDelivered, enums.OrderStatusCompleted, enums.OrderStatusCancelled},
}

// CanTransition reports whether the lifecycle graph admits from→to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.RestaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.Tip.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip cannot be negative")
	}

	restaurant, err := s.repo.FindRestaurant(ctx, input.RestaurantID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	if !restaurant.Active {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "restaurant is not accepting orders")
	}

	deliveryPoint := types.Point{Lat: input.DeliveryLat, Lng: input.DeliveryLng}
	zonePoint := deliveryPoint
	if input.IsPickedUp {
		// Pickup orders are zoned by the restaurant's own location.
		zonePoint = types.Point{Lat: restaurant.Lat, Lng: restaurant.Lng}
	} else if len(restaurant.DeliveryBound) >= 3 && !zones.Contains(restaurant.DeliveryBound, deliveryPoint) {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cannot deliver to this address")
	}

	zone, err := s.zones.Resolve(ctx, zonePoint)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "address is outside all delivery zones")
	}

	items, itemsAmount, err := s.buildItems(ctx, restaurant, input.Items)
	if err != nil {
		return nil, err
	}

	deliveryCharge := decimal.Zero
	if !input.IsPickedUp {
		deliveryCharge = deliveryFee(restaurant, deliveryPoint)
	}

	taxAmount := itemsAmount.Mul(zone.TaxRate).Div(decimal.NewFromInt(100)).Round(2)

	couponDiscount := decimal.Zero
	if input.CouponCode != nil && *input.CouponCode != "" {
		couponDiscount, err = s.couponDiscount(ctx, *input.CouponCode, itemsAmount)
		if err != nil {
			return nil, err
		}
	}

	orderAmount := itemsAmount.Add(deliveryCharge).Add(taxAmount).Add(input.Tip).Sub(couponDiscount)

	order := &models.Order{
		Status:          enums.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		OrderAmount:     orderAmount,
		DeliveryCharge:  deliveryCharge,
		Tip:             input.Tip,
		TaxAmount:       taxAmount,
		CouponDiscount:  couponDiscount,
		CouponCode:      input.CouponCode,
		DeliveryAddress: input.DeliveryAddress,
		DeliveryLabel:   input.DeliveryLabel,
		DeliveryLat:     input.DeliveryLat,
		DeliveryLng:     input.DeliveryLng,
		IsPickedUp:      input.IsPickedUp,
		RestaurantID:    restaurant.ID,
		UserID:          input.UserID,
		ZoneID:          zone.ID,
		Items:           items,
	}

	// The sequence bump and the order row commit or roll back together.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sequence, err := repo.IncrementOrderSequence(ctx, restaurant.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment order sequence")
		}
		order.Code = fmt.Sprintf("%s-%d", restaurant.OrderPrefix, sequence)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := NewOrderView(order)
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.bus.Publish(ctx, bus.TopicOrderPlaced, bus.OrderPlacedPayload{
		OrderID:      order.ID,
		Code:         order.Code,
		RestaurantID: order.RestaurantID,
		UserID:       order.UserID,
		ZoneID:       order.ZoneID,
		Status:       order.Status,
		Body:         view,
	})
	s.notifier.NotifyRestaurant(ctx, order.RestaurantID, enums.NotificationTypeOrderPlaced, "New order", fmt.Sprintf("Order %s placed", order.Code), &order.ID)
	s.notifier.NotifyUser(ctx, order.UserID, enums.NotificationTypeOrderPlaced, "Order placed", fmt.Sprintf("Your order %s was placed", order.Code), &order.ID)
	s.invalidateListCaches(ctx, order)

	return &view, nil
}

func (s *service) buildItems(ctx context.Context, restaurant *models.Restaurant, inputs []PlaceOrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, item := range inputs {
		if item.FoodID == uuid.Nil {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "item food id required")
		}
		if item.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		ids = append(ids, item.FoodID)
	}

	foods, err := s.repo.FindFoodsByIDs(ctx, restaurant.ID, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu items")
	}
	byID := make(map[uuid.UUID]*models.Food, len(foods))
	for i := range foods {
		byID[foods[i].ID] = &foods[i]
	}

	items := make([]models.OrderItem, 0, len(inputs))
	total := decimal.Zero
	for _, input := range inputs {
		food, ok := byID[input.FoodID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeBusinessRule, "item is not on the restaurant menu")
		}
		if !food.Available {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("%s is currently unavailable", food.Title))
		}

		unitPrice := food.Price
		var variation *types.VariationSelection
		if input.VariationID != nil {
			found := false
			for _, v := range food.Variations {
				if v.ID == *input.VariationID {
					variation = &types.VariationSelection{VariationID: v.ID, Title: v.Title, Price: v.Price}
					unitPrice = v.Price
					found = true
					break
				}
			}
			if !found {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown variation for menu item")
			}
		}

		addons := make([]types.AddonSelection, 0, len(input.AddonIDs))
		for _, addonID := range input.AddonIDs {
			found := false
			for _, a := range food.Addons {
				if a.ID == addonID {
					addons = append(addons, types.AddonSelection{AddonID: a.ID, Title: a.Title, Price: a.Price})
					unitPrice = unitPrice.Add(a.Price)
					found = true
					break
				}
			}
			if !found {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown addon for menu item")
			}
		}

		totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
		items = append(items, models.OrderItem{
			FoodID:              food.ID,
			Title:               food.Title,
			Variation:           variation,
			Addons:              addons,
			Quantity:            input.Quantity,
			UnitPrice:           unitPrice,
			TotalPrice:          totalPrice,
			SpecialInstructions: input.SpecialInstructions,
		})
		total = total.Add(totalPrice)
	}
	return items, total, nil
}

func deliveryFee(restaurant *models.Restaurant, point types.Point) decimal.Decimal {
	fee := restaurant.DeliveryCost
	if restaurant.CostType == enums.DeliveryCostTypePerKM {
		km := zones.DistanceKm(types.Point{Lat: restaurant.Lat, Lng: restaurant.Lng}, point)
		fee = restaurant.DeliveryCost.Mul(decimal.NewFromFloat(km)).Round(2)
	}
	if fee.LessThan(restaurant.MinDeliveryFee) {
		fee = restaurant.MinDeliveryFee
	}
	return fee
}

func (s *service) couponDiscount(ctx context.Context, code string, itemsAmount decimal.Decimal) (decimal.Decimal, error) {
	coupon, err := s.repo.FindCouponByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon code is not valid")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !coupon.Valid(time.Now().UTC()) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon code is expired")
	}
	discount := coupon.Discount
	if coupon.Percent {
		discount = itemsAmount.Mul(coupon.Discount).Div(decimal.NewFromInt(100)).Round(2)
	}
	if discount.GreaterThan(itemsAmount) {
		discount = itemsAmount
	}
	return discount, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderView, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	restaurant, err := s.repo.FindRestaurant(ctx, order.RestaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}

	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", order.Status))
	}
	if !CanTransition(order.Status, input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Status))
	}

	now := time.Now().UTC()
	updates := map[string]any{"status": input.Status}
	switch input.Status {
	case enums.OrderStatusAccepted:
		completion := now.Add(time.Duration(restaurant.DeliveryTime) * time.Minute)
		updates["accepted_at"] = now
		updates["completion_time"] = completion
		order.AcceptedAt = &now
		order.CompletionTime = &completion
	case enums.OrderStatusAssigned:
		updates["assigned_at"] = now
		order.AssignedAt = &now
	case enums.OrderStatusPicked:
		completion := now.Add(time.Duration(restaurant.DeliveryTime) * time.Minute)
		updates["picked_at"] = now
		updates["completion_time"] = completion
		order.PickedAt = &now
		order.CompletionTime = &completion
	case enums.OrderStatusDelivered, enums.OrderStatusCompleted:
		updates["delivered_at"] = now
		order.DeliveredAt = &now
		if order.PaymentMethod == enums.PaymentMethodCOD {
			updates["payment_status"] = enums.PaymentStatusPaid
			order.PaymentStatus = enums.PaymentStatusPaid
		}
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
		updates["reason"] = input.Reason
		order.CancelledAt = &now
		order.Reason = input.Reason
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = input.Status

	view := NewOrderView(order)
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.bus.Publish(ctx, bus.TopicStatusChanged, bus.StatusChangedPayload{
		OrderID:      order.ID,
		Code:         order.Code,
		RestaurantID: order.RestaurantID,
		UserID:       order.UserID,
		Status:       order.Status,
		Reason:       order.Reason,
	})
	s.publishSnapshot(ctx, order.ID, view)
	s.notifier.NotifyUser(ctx, order.UserID, enums.NotificationTypeOrderStatus, "Order update", fmt.Sprintf("Order %s is now %s", order.Code, order.Status), &order.ID)

	if input.Status == enums.OrderStatusCancelled && order.RiderID != nil {
		s.removeRider(ctx, order, *order.RiderID)
	}
	if input.Status == enums.OrderStatusAccepted && order.RiderID == nil && !order.IsPickedUp && s.broadcaster != nil {
		if err := s.broadcaster.NotifyZoneRiders(ctx, order); err != nil {
			s.logg.Error(ctx, "zone rider broadcast failed", err)
		}
	}
	s.invalidateOrderCaches(ctx, order)

	return &view, nil
}

func (s *service) removeRider(ctx context.Context, order *models.Order, riderID uuid.UUID) {
	if err := s.riders.ReleaseAssignment(ctx, riderID); err != nil {
		s.logg.Error(ctx, "release rider assignment failed", err)
	}
	s.bus.Publish(ctx, bus.TopicRiderAssigned, bus.RiderAssignedPayload{
		OrderID: order.ID,
		Code:    order.Code,
		RiderID: riderID,
		Removed: true,
	})
	s.notifier.NotifyRider(ctx, riderID, enums.NotificationTypeRiderRemoved, "Assignment removed", fmt.Sprintf("Order %s is no longer assigned to you", order.Code), &order.ID)
}

func (s *service) AssignRider(ctx context.Context, input AssignRiderInput) (*OrderView, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.RiderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", order.Status))
	}
	if order.IsPickedUp {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "pickup orders are not assigned to riders")
	}
	if order.Status != enums.OrderStatusAccepted && order.Status != enums.OrderStatusAssigned {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot assign rider while order is %s", order.Status))
	}
	if order.RiderID != nil && *order.RiderID == input.RiderID {
		view := NewOrderView(order)
		return &view, nil
	}

	rider, err := s.riders.FindByID(ctx, input.RiderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider")
	}
	if !rider.Active || !rider.Available {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "rider is not available")
	}

	previousRider := order.RiderID
	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ridersRepo := s.riders.WithTx(tx)

		claimed, err := ridersRepo.ClaimForAssignment(ctx, input.RiderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim rider")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "rider is not available")
		}
		if previousRider != nil {
			if err := ridersRepo.ReleaseAssignment(ctx, *previousRider); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release previous rider")
			}
		}
		updates := map[string]any{
			"status":      enums.OrderStatusAssigned,
			"rider_id":    input.RiderID,
			"assigned_at": now,
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusAssigned
	order.RiderID = &input.RiderID
	order.AssignedAt = &now

	view := NewOrderView(order)
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if previousRider != nil {
		s.bus.Publish(ctx, bus.TopicRiderAssigned, bus.RiderAssignedPayload{
			OrderID: order.ID,
			Code:    order.Code,
			RiderID: *previousRider,
			Removed: true,
		})
		s.notifier.NotifyRider(ctx, *previousRider, enums.NotificationTypeRiderRemoved, "Assignment removed", fmt.Sprintf("Order %s was reassigned", order.Code), &order.ID)
	}
	s.bus.Publish(ctx, bus.TopicRiderAssigned, bus.RiderAssignedPayload{
		OrderID: order.ID,
		Code:    order.Code,
		RiderID: input.RiderID,
		Body:    view,
	})
	s.publishSnapshot(ctx, order.ID, view)
	s.notifier.NotifyRider(ctx, input.RiderID, enums.NotificationTypeRiderAssigned, "New assignment", fmt.Sprintf("Order %s was assigned to you", order.Code), &order.ID)
	s.notifier.NotifyUser(ctx, order.UserID, enums.NotificationTypeOrderStatus, "Rider assigned", fmt.Sprintf("A rider is on the way for order %s", order.Code), &order.ID)
	s.invalidateOrderCaches(ctx, order)

	return &view, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID, userID uuid.UUID, reason *string) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	_, err = s.UpdateStatus(ctx, UpdateStatusInput{
		OrderID:   orderID,
		Status:    enums.OrderStatusCancelled,
		Reason:    reason,
		ActorID:   userID,
		ActorRole: enums.ActorRoleCustomer,
	})
	return err
}

func (s *service) AbortOrder(ctx context.Context, orderID uuid.UUID, reason *string) error {
	_, err := s.UpdateStatus(ctx, UpdateStatusInput{
		OrderID:   orderID,
		Status:    enums.OrderStatusCancelled,
		Reason:    reason,
		ActorRole: enums.ActorRoleAdmin,
	})
	return err
}

func (s *service) SetRinged(ctx context.Context, orderID uuid.UUID, ringed bool) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := s.repo.SetRinged(ctx, orderID, ringed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ring flag")
	}
	s.cache.Invalidate(ctx, s.cache.Key("order", orderID.String(), "detail"))
	return nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	key := s.cache.Key("order", orderID.String(), "detail")
	var cached OrderView
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	view := NewOrderView(order)
	s.cache.SetJSON(ctx, key, view)
	return &view, nil
}

func (s *service) ListRestaurantOrders(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	return s.cachedList(ctx, "restaurant", restaurantID, params, filters, s.repo.ListByRestaurant)
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	return s.cachedList(ctx, "user", userID, params, filters, s.repo.ListByUser)
}

func (s *service) ListRiderOrders(ctx context.Context, riderID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	return s.cachedList(ctx, "rider", riderID, params, filters, s.repo.ListByRider)
}

type listFn func(ctx context.Context, id uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)

func (s *service) cachedList(ctx context.Context, scope string, id uuid.UUID, params pagination.Params, filters OrderFilters, load listFn) (*OrderList, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, scope+" id required")
	}

	key := s.cache.Key(scope, id.String(), "orders", listParamsKey(params, filters))
	var cached OrderList
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	list, err := load(ctx, id, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	s.cache.SetJSON(ctx, key, list)
	return list, nil
}

func listParamsKey(params pagination.Params, filters OrderFilters) string {
	status := "any"
	if filters.Status != nil {
		status = filters.Status.String()
	}
	return fmt.Sprintf("l%d.c%s.s%s", pagination.NormalizeLimit(params.Limit), params.Cursor, status)
}

func (s *service) publishSnapshot(ctx context.Context, orderID uuid.UUID, view OrderView) {
	s.bus.Publish(ctx, bus.TopicOrderSnapshot, bus.OrderSnapshotPayload{OrderID: orderID, Body: view})
}

func (s *service) invalidateListCaches(ctx context.Context, order *models.Order) {
	s.cache.InvalidatePattern(ctx, s.cache.Key("restaurant", order.RestaurantID.String(), "orders", "*"))
	s.cache.InvalidatePattern(ctx, s.cache.Key("user", order.UserID.String(), "orders", "*"))
}

func (s *service) invalidateOrderCaches(ctx context.Context, order *models.Order) {
	s.cache.Invalidate(ctx, s.cache.Key("order", order.ID.String(), "detail"))
	s.invalidateListCaches(ctx, order)
	if order.RiderID != nil {
		s.cache.InvalidatePattern(ctx, s.cache.Key("rider", order.RiderID.String(), "orders", "*"))
	}
}
