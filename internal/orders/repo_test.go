package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	"github.com/mealdash/mealdash-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	restaurants := `
CREATE TABLE IF NOT EXISTS restaurants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  order_prefix TEXT NOT NULL,
  order_sequence INTEGER NOT NULL DEFAULT 0,
  lat REAL NOT NULL,
  lng REAL NOT NULL,
  delivery_time INTEGER NOT NULL DEFAULT 30,
  cost_type TEXT NOT NULL DEFAULT 'fixed',
  delivery_cost NUMERIC NOT NULL DEFAULT 0,
  min_delivery_fee NUMERIC NOT NULL DEFAULT 0,
  delivery_bound TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  notification_token TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL,
  order_amount NUMERIC NOT NULL,
  delivery_charge NUMERIC NOT NULL,
  tip NUMERIC NOT NULL,
  tax_amount NUMERIC NOT NULL,
  coupon_discount NUMERIC NOT NULL DEFAULT 0,
  coupon_code TEXT,
  delivery_address TEXT NOT NULL,
  delivery_label TEXT,
  delivery_lat REAL NOT NULL,
  delivery_lng REAL NOT NULL,
  is_picked_up INTEGER NOT NULL DEFAULT 0,
  ringed INTEGER NOT NULL DEFAULT 0,
  reason TEXT,
  completion_time DATETIME,
  accepted_at DATETIME,
  assigned_at DATETIME,
  picked_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  restaurant_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  rider_id TEXT,
  zone_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  food_id TEXT NOT NULL,
  title TEXT NOT NULL,
  variation TEXT,
  addons TEXT,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  special_instructions TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(restaurants).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func newRestaurantRow(t *testing.T, db *gorm.DB, prefix string) *models.Restaurant {
	t.Helper()
	restaurant := &models.Restaurant{
		ID:             uuid.New(),
		Name:           "Golden Bowl",
		OrderPrefix:    prefix,
		Lat:            23.5,
		Lng:            90.5,
		DeliveryTime:   30,
		CostType:       enums.DeliveryCostTypeFixed,
		DeliveryCost:   decimal.NewFromInt(5),
		MinDeliveryFee: decimal.NewFromInt(2),
		Active:         true,
	}
	require.NoError(t, db.Create(restaurant).Error)
	return restaurant
}

func newOrderRow(t *testing.T, db *gorm.DB, restaurantID, userID uuid.UUID, code string, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		Code:            code,
		Status:          status,
		PaymentMethod:   enums.PaymentMethodCOD,
		PaymentStatus:   enums.PaymentStatusPending,
		OrderAmount:     decimal.NewFromInt(28),
		DeliveryCharge:  decimal.NewFromInt(5),
		Tip:             decimal.NewFromInt(1),
		TaxAmount:       decimal.NewFromInt(2),
		DeliveryAddress: "12 Lake Road",
		DeliveryLat:     23.5,
		DeliveryLng:     90.5,
		RestaurantID:    restaurantID,
		UserID:          userID,
		ZoneID:          uuid.New(),
		CreatedAt:       createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestIncrementOrderSequence(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	restaurant := newRestaurantRow(t, db, "GB")
	ctx := context.Background()

	first, err := repo.IncrementOrderSequence(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := repo.IncrementOrderSequence(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	_, err = repo.IncrementOrderSequence(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateAndFindOrderWithItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	restaurant := newRestaurantRow(t, db, "GB")
	ctx := context.Background()

	order := &models.Order{
		ID:              uuid.New(),
		Code:            "GB-1",
		Status:          enums.OrderStatusPending,
		PaymentMethod:   enums.PaymentMethodCOD,
		PaymentStatus:   enums.PaymentStatusPending,
		OrderAmount:     decimal.NewFromInt(28),
		DeliveryCharge:  decimal.NewFromInt(5),
		Tip:             decimal.NewFromInt(1),
		TaxAmount:       decimal.NewFromInt(2),
		DeliveryAddress: "12 Lake Road",
		DeliveryLat:     23.5,
		DeliveryLng:     90.5,
		RestaurantID:    restaurant.ID,
		UserID:          uuid.New(),
		ZoneID:          uuid.New(),
		Items: []models.OrderItem{
			{
				ID:         uuid.New(),
				FoodID:     uuid.New(),
				Title:      "Biryani",
				Quantity:   2,
				UnitPrice:  decimal.NewFromInt(10),
				TotalPrice: decimal.NewFromInt(20),
			},
		},
	}
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "GB-1", loaded.Code)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Biryani", loaded.Items[0].Title)
	assert.True(t, loaded.Items[0].TotalPrice.Equal(decimal.NewFromInt(20)))
}

func TestUpdateOrderStampsStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	restaurant := newRestaurantRow(t, db, "GB")
	ctx := context.Background()

	order := newOrderRow(t, db, restaurant.ID, uuid.New(), "GB-1", enums.OrderStatusPending, time.Now().UTC())
	now := time.Now().UTC()
	err := repo.UpdateOrder(ctx, order.ID, map[string]any{
		"status":      enums.OrderStatusAccepted,
		"accepted_at": now,
	})
	require.NoError(t, err)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAccepted, loaded.Status)
	require.NotNil(t, loaded.AcceptedAt)
}

func TestSetRinged(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	restaurant := newRestaurantRow(t, db, "GB")
	ctx := context.Background()

	order := newOrderRow(t, db, restaurant.ID, uuid.New(), "GB-1", enums.OrderStatusPending, time.Now().UTC())
	require.NoError(t, repo.SetRinged(ctx, order.ID, true))

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Ringed)
}

func TestListByRestaurantCursorPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	restaurant := newRestaurantRow(t, db, "GB")
	userID := uuid.New()
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		newOrderRow(t, db, restaurant.ID, userID, codeFor(i), enums.OrderStatusPending, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := repo.ListByRestaurant(ctx, restaurant.ID, pagination.Params{Limit: 2}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.NotEmpty(t, page.NextCursor)
	// Newest first.
	assert.Equal(t, codeFor(4), page.Orders[0].Code)
	assert.Equal(t, codeFor(3), page.Orders[1].Code)

	next, err := repo.ListByRestaurant(ctx, restaurant.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, next.Orders, 2)
	assert.Equal(t, codeFor(2), next.Orders[0].Code)
	assert.Equal(t, codeFor(1), next.Orders[1].Code)
}

func TestListByUserStatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	restaurant := newRestaurantRow(t, db, "GB")
	userID := uuid.New()
	ctx := context.Background()

	now := time.Now().UTC()
	newOrderRow(t, db, restaurant.ID, userID, "GB-1", enums.OrderStatusPending, now.Add(-2*time.Minute))
	newOrderRow(t, db, restaurant.ID, userID, "GB-2", enums.OrderStatusDelivered, now.Add(-time.Minute))

	status := enums.OrderStatusDelivered
	page, err := repo.ListByUser(ctx, userID, pagination.Params{}, OrderFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "GB-2", page.Orders[0].Code)
	assert.Empty(t, page.NextCursor)
}

func codeFor(i int) string {
	return fmt.Sprintf("GB-%d", i+1)
}
