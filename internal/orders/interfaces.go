package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	"github.com/mealdash/mealdash-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables plus
// the adjacent reads order placement needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	SetRinged(ctx context.Context, orderID uuid.UUID, ringed bool) error

	FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	// IncrementOrderSequence bumps the restaurant's order counter and
	// returns the new value. Must run inside the placement transaction.
	IncrementOrderSequence(ctx context.Context, restaurantID uuid.UUID) (int64, error)
	FindFoodsByIDs(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]models.Food, error)
	FindCouponByCode(ctx context.Context, code string) (*models.Coupon, error)

	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListByRider(ctx context.Context, riderID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
}

// Notifier delivers best-effort notifications after order mutations.
// Implementations must never fail the calling mutation.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
	NotifyRestaurant(ctx context.Context, restaurantID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
	NotifyRider(ctx context.Context, riderID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
}

// ZoneBroadcaster offers an order to the available riders of its zone.
type ZoneBroadcaster interface {
	NotifyZoneRiders(ctx context.Context, order *models.Order) error
}
